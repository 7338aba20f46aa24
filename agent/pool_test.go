package agent

import "testing"

func TestAddAssignsIncreasingIDs(t *testing.T) {
	p := NewPool(4)
	i0 := p.Add(Agent{SpeciesIndex: 0})
	i1 := p.Add(Agent{SpeciesIndex: 1})
	if p.At(i0).ID == p.At(i1).ID {
		t.Fatalf("distinct agents got the same ID")
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
}

// Swap-remove preserves set: after removal the multiset of surviving agent
// records equals the pre-sweep multiset minus the removed agents' records.
func TestRemoveIndicesPreservesSurvivingSet(t *testing.T) {
	p := NewPool(8)
	ids := make([]int64, 0, 6)
	for i := 0; i < 6; i++ {
		idx := p.Add(Agent{SpeciesIndex: i})
		ids = append(ids, p.At(idx).ID)
	}

	// remove agents originally at indices 1 and 3 (their current IDs are
	// ids[1] and ids[3])
	p.RemoveIndices([]int{1, 3})

	if p.Len() != 4 {
		t.Fatalf("Len() after removal = %d, want 4", p.Len())
	}

	remaining := map[int64]bool{}
	for i := 0; i < p.Len(); i++ {
		remaining[p.At(i).ID] = true
	}

	removedSet := map[int64]bool{ids[1]: true, ids[3]: true}
	for _, id := range ids {
		if removedSet[id] {
			if remaining[id] {
				t.Fatalf("removed agent ID %d still present", id)
			}
			continue
		}
		if !remaining[id] {
			t.Fatalf("surviving agent ID %d missing after removal", id)
		}
	}
}

func TestRemoveIndicesDeduplicatesAndToleratesUnsortedInput(t *testing.T) {
	p := NewPool(4)
	for i := 0; i < 4; i++ {
		p.Add(Agent{SpeciesIndex: i})
	}
	p.RemoveIndices([]int{2, 0, 2, 0})
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}
}

func TestCountBySpecies(t *testing.T) {
	p := NewPool(4)
	p.Add(Agent{SpeciesIndex: 0})
	p.Add(Agent{SpeciesIndex: 0})
	p.Add(Agent{SpeciesIndex: 1})
	counts := make([]int, 2)
	p.CountBySpecies(counts)
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("CountBySpecies = %v, want [2 1]", counts)
	}
}

func TestClearEmptiesPool(t *testing.T) {
	p := NewPool(4)
	p.Add(Agent{})
	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", p.Len())
	}
}
