package pathfind

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/physarum/agent"
)

func openGrid(w, h int) *Grid {
	return NewGrid(w, h, 1)
}

func TestBFSFindsShortestPathOnOpenGrid(t *testing.T) {
	g := openGrid(10, 10)
	res := Find(g, BFS, Cell{0, 0}, Cell{9, 0}, nil)
	if !res.Found {
		t.Fatalf("expected path found")
	}
	// Straight line along one row: 8-connected BFS reaches it in 9 hops.
	if len(res.Path) != 10 {
		t.Fatalf("path length = %d, want 10 cells", len(res.Path))
	}
	if res.Path[0] != (Cell{0, 0}) || res.Path[len(res.Path)-1] != (Cell{9, 0}) {
		t.Fatalf("path endpoints wrong: %v", res.Path)
	}
}

func TestAStarMatchesBFSCostOnOpenGrid(t *testing.T) {
	g := openGrid(12, 12)
	start, goal := Cell{0, 0}, Cell{11, 11}
	bfsRes := Find(g, BFS, start, goal, nil)
	astarRes := Find(g, AStar, start, goal, nil)
	if !bfsRes.Found || !astarRes.Found {
		t.Fatalf("expected both to find a path")
	}
	// Diagonal-optimal: A* should never report a longer path than BFS's
	// move-count-only route on an open grid.
	if astarRes.PathLengthWorldUnits > bfsRes.PathLengthWorldUnits+1e-9 {
		t.Fatalf("A* path length %v exceeds BFS path length %v", astarRes.PathLengthWorldUnits, bfsRes.PathLengthWorldUnits)
	}
}

func TestCornerCutIsForbidden(t *testing.T) {
	g := openGrid(5, 5)
	g.SetBlocked(1, 0, true)
	g.SetBlocked(0, 1, true)
	neighbors := g.Neighbors(Cell{0, 0})
	for _, n := range neighbors {
		if n == (Cell{1, 1}) {
			t.Fatalf("diagonal move to (1,1) should be forbidden when both adjacent cardinals are blocked")
		}
	}
}

func TestBlockedGoalReturnsNotFound(t *testing.T) {
	g := openGrid(5, 5)
	g.SetBlocked(4, 4, true)
	for _, algo := range []Algorithm{BFS, DFS, Dijkstra, AStar, Greedy, Bidirectional} {
		res := Find(g, algo, Cell{0, 0}, Cell{4, 4}, rand.New(rand.NewSource(1)))
		if res.Found {
			t.Fatalf("algorithm %v: expected not-found for a blocked goal", algo)
		}
	}
}

func TestWallWithGapForcesDetour(t *testing.T) {
	g := openGrid(10, 10)
	for y := 0; y < 10; y++ {
		if y == 5 {
			continue
		}
		g.SetBlocked(5, y, true)
	}
	res := Find(g, AStar, Cell{0, 0}, Cell{9, 9}, nil)
	if !res.Found {
		t.Fatalf("expected a path through the gap")
	}
	sawGap := false
	for _, c := range res.Path {
		if c == (Cell{5, 5}) {
			sawGap = true
		}
	}
	if !sawGap {
		t.Fatalf("path should route through the only open gap at (5,5): %v", res.Path)
	}
}

func TestDFSFindsAPathButNotNecessarilyShortest(t *testing.T) {
	g := openGrid(8, 8)
	res := Find(g, DFS, Cell{0, 0}, Cell{7, 7}, rand.New(rand.NewSource(9)))
	if !res.Found {
		t.Fatalf("expected DFS to find a path on an open grid")
	}
	if res.Path[0] != (Cell{0, 0}) || res.Path[len(res.Path)-1] != (Cell{7, 7}) {
		t.Fatalf("DFS path endpoints wrong: %v", res.Path)
	}
}

func TestBidirectionalMatchesBFSPathLength(t *testing.T) {
	g := openGrid(10, 10)
	start, goal := Cell{0, 0}, Cell{9, 0}
	bfsRes := Find(g, BFS, start, goal, nil)
	biRes := Find(g, Bidirectional, start, goal, nil)
	if !biRes.Found {
		t.Fatalf("expected bidirectional to find a path")
	}
	if len(biRes.Path) != len(bfsRes.Path) {
		t.Fatalf("bidirectional path length %d, want %d", len(biRes.Path), len(bfsRes.Path))
	}
}

func TestBidirectionalHandlesAdjacentStartAndGoal(t *testing.T) {
	g := openGrid(5, 5)
	res := Find(g, Bidirectional, Cell{2, 2}, Cell{2, 3}, nil)
	if !res.Found {
		t.Fatalf("expected adjacent start/goal to be found")
	}
	if res.Path[0] != (Cell{2, 2}) || res.Path[len(res.Path)-1] != (Cell{2, 3}) {
		t.Fatalf("unexpected path endpoints: %v", res.Path)
	}
}

func TestWorldToGridRoundTrip(t *testing.T) {
	g := NewGrid(20, 20, 2.5)
	c := g.WorldToGrid(7.0, 12.6)
	wx, wy := g.GridToWorld(c)
	back := g.WorldToGrid(wx, wy)
	if back != c {
		t.Fatalf("round trip mismatch: %v -> (%v,%v) -> %v", c, wx, wy, back)
	}
}

func TestExplorationStepsExpandFrontierAndReachGoal(t *testing.T) {
	g := openGrid(6, 6)
	a := &agent.Agent{}
	start := agent.GridCell{X: 0, Y: 0}
	goal := agent.GridCell{X: 3, Y: 0}
	StartExploration(a, start)

	reached := false
	for i := 0; i < 100 && !reached; i++ {
		_, ok := StepExploration(a, g, goal)
		if ok {
			reached = true
		}
	}
	if !reached {
		t.Fatalf("exploration never reached the goal")
	}
	path := ReconstructExplorationPath(a, goal)
	if path[0] != start || path[len(path)-1] != goal {
		t.Fatalf("reconstructed exploration path endpoints wrong: %v", path)
	}
}

func TestMeetingTableDetectsOverlap(t *testing.T) {
	mt := NewMeetingTable()
	c := agent.GridCell{X: 3, Y: 3}
	if mt.Met(c) {
		t.Fatalf("should not be met before either side visits")
	}
	mt.MarkFromStart(c)
	if mt.Met(c) {
		t.Fatalf("should not be met after only one side visits")
	}
	mt.MarkFromGoal(c)
	if !mt.Met(c) {
		t.Fatalf("should be met once both sides have visited")
	}
}
