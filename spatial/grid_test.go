package spatial

import (
	"math"
	"math/rand"
	"testing"
)

func TestInsertAndNeighborsFindsSelf(t *testing.T) {
	g := NewGrid(10, 1000, 1000)
	g.Insert(0, 50, 50)
	got := g.Neighbors(50, 50, 5)
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("Neighbors = %v, want [0]", got)
	}
}

func TestClearEmptiesBuckets(t *testing.T) {
	g := NewGrid(10, 1000, 1000)
	g.Insert(0, 50, 50)
	g.Clear()
	got := g.Neighbors(50, 50, 5)
	if len(got) != 0 {
		t.Fatalf("Neighbors after Clear = %v, want empty", got)
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	g := NewGrid(10, 1000, 1000)
	g.Insert(99, 500, 500)
	positions := [][2]float64{{10, 10}, {10, 12}, {900, 900}}
	g.Rebuild(len(positions), func(i int) (float64, float64) {
		return positions[i][0], positions[i][1]
	})
	got := g.Neighbors(10, 10, 5)
	if len(got) != 2 {
		t.Fatalf("Neighbors after Rebuild = %v, want 2 entries near (10,10)", got)
	}
	for _, idx := range got {
		if idx == 99 {
			t.Fatalf("stale index 99 survived Rebuild")
		}
	}
}

func TestToroidalDeltaWraps(t *testing.T) {
	if d := ToroidalDelta(10, 790, 800); d != -20 {
		t.Fatalf("ToroidalDelta(10,790,800) = %v, want -20", d)
	}
	if d := ToroidalDelta(790, 10, 800); d != 20 {
		t.Fatalf("ToroidalDelta(790,10,800) = %v, want 20", d)
	}
}

// Spatial-index completeness: every agent whose true distance to the query
// point is <= radius must appear in the returned set (superset property).
func TestNeighborsSupersetProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 500
	const world = 1000.0
	xs := make([]float64, n)
	ys := make([]float64, n)
	g := NewGrid(25, world, world)
	g.Rebuild(n, func(i int) (float64, float64) {
		xs[i] = rng.Float64() * world
		ys[i] = rng.Float64() * world
		return xs[i], ys[i]
	})

	qx, qy, radius := 500.0, 500.0, 60.0
	got := g.Neighbors(qx, qy, radius)
	present := make(map[int32]bool, len(got))
	for _, idx := range got {
		present[idx] = true
	}

	for i := 0; i < n; i++ {
		dx, dy := xs[i]-qx, ys[i]-qy
		if math.Hypot(dx, dy) <= radius && !present[int32(i)] {
			t.Fatalf("agent %d within radius missing from query result", i)
		}
	}
}

// Stress scenario from the spec: 10,000 random agents, query every agent for
// neighbors within 50 units; exact pair count must match brute force.
func TestSpatialIndexStressMatchesBruteForce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in -short mode")
	}
	rng := rand.New(rand.NewSource(42))
	const n = 10000
	const world = 4000.0
	const radius = 50.0

	xs := make([]float64, n)
	ys := make([]float64, n)
	g := NewGrid(50, world, world)
	g.Rebuild(n, func(i int) (float64, float64) {
		xs[i] = rng.Float64() * world
		ys[i] = rng.Float64() * world
		return xs[i], ys[i]
	})

	var indexedPairs int
	for i := 0; i < n; i++ {
		neighbors := g.Neighbors(xs[i], ys[i], radius)
		for _, j := range neighbors {
			if int(j) == i {
				continue
			}
			dx, dy := xs[i]-xs[j], ys[i]-ys[j]
			if math.Hypot(dx, dy) <= radius {
				indexedPairs++
			}
		}
	}

	var bruteForcePairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := xs[i]-xs[j], ys[i]-ys[j]
			if math.Hypot(dx, dy) <= radius {
				bruteForcePairs += 2
			}
		}
	}

	if indexedPairs != bruteForcePairs {
		t.Fatalf("indexed pair count = %d, brute force = %d", indexedPairs, bruteForcePairs)
	}
}
