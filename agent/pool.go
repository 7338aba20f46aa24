package agent

import "sort"

// Pool is the flat, caller-owned slice of every live agent. It is the sole
// owner of each Agent record; no other package keeps agent pointers across a
// step boundary.
type Pool struct {
	agents []Agent
	nextID int64
}

// NewPool returns an empty pool with capacity preallocated.
func NewPool(capacity int) *Pool {
	return &Pool{agents: make([]Agent, 0, capacity)}
}

// Len is the number of live agents.
func (p *Pool) Len() int { return len(p.agents) }

// At returns a pointer to the agent at index i, valid until the next
// structural mutation (Add/RemoveIndices) of the pool.
func (p *Pool) At(i int) *Agent { return &p.agents[i] }

// All returns the backing slice directly; callers may iterate and mutate
// fields in place but must not reslice or retain it across a RemoveIndices
// call.
func (p *Pool) All() []Agent { return p.agents }

// Add appends a new agent, assigns it a fresh logical ID, and returns its
// current pool index.
func (p *Pool) Add(a Agent) int {
	p.nextID++
	a.ID = p.nextID
	p.agents = append(p.agents, a)
	return len(p.agents) - 1
}

// RemoveIndices removes every agent at the given pool indices using
// swap-with-last compaction: indices are deduplicated and sorted descending
// first, so removing agent k never invalidates an index greater than k that
// a caller still holds from earlier in the same sweep.
func (p *Pool) RemoveIndices(indices []int) {
	if len(indices) == 0 {
		return
	}
	dedup := dedupeDescending(indices)
	last := len(p.agents) - 1
	for _, idx := range dedup {
		if idx < 0 || idx > last {
			continue
		}
		p.agents[idx] = p.agents[last]
		p.agents = p.agents[:last]
		last--
	}
}

func dedupeDescending(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Clear empties the pool but keeps its backing capacity.
func (p *Pool) Clear() {
	p.agents = p.agents[:0]
}

// CountBySpecies tallies live agents per species index into out, which must
// be sized to the number of species; out is zeroed first.
func (p *Pool) CountBySpecies(out []int) {
	for i := range out {
		out[i] = 0
	}
	for i := range p.agents {
		s := p.agents[i].SpeciesIndex
		if s >= 0 && s < len(out) {
			out[s]++
		}
	}
}
