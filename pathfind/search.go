package pathfind

import (
	"container/heap"
	"math/rand"
	"time"
)

// Algorithm selects which search the benchmark harness races.
type Algorithm int

const (
	BFS Algorithm = iota
	DFS
	Dijkstra
	AStar
	Greedy
	Bidirectional
)

// ParseAlgorithm maps a config algorithm name to its constant; unknown names
// fall back to AStar.
func ParseAlgorithm(s string) Algorithm {
	switch s {
	case "bfs":
		return BFS
	case "dfs":
		return DFS
	case "dijkstra":
		return Dijkstra
	case "greedy":
		return Greedy
	case "bidirectional":
		return Bidirectional
	default:
		return AStar
	}
}

// Result is the shared return shape every pathfinder produces.
type Result struct {
	Found                bool
	Path                 []Cell
	ComputeTime          time.Duration
	NodesExpanded        int
	PathLengthWorldUnits float64
}

// Find dispatches to the search named by algo. rng is only consulted by DFS,
// whose randomized neighbor order is what keeps it from degenerating into a
// deterministic wall-hugger.
func Find(g *Grid, algo Algorithm, start, goal Cell, rng *rand.Rand) Result {
	switch algo {
	case BFS:
		return bfs(g, start, goal)
	case DFS:
		return dfs(g, start, goal, rng)
	case Dijkstra:
		return priorityWeightedSearch(g, start, goal, 1, 0)
	case Greedy:
		return priorityWeightedSearch(g, start, goal, 0, 1)
	case Bidirectional:
		return bidirectional(g, start, goal)
	default:
		return priorityWeightedSearch(g, start, goal, 1, 1)
	}
}

func bfs(g *Grid, start, goal Cell) Result {
	startTime := time.Now()
	queue := []Cell{start}
	visited := map[Cell]bool{start: true}
	cameFrom := map[Cell]Cell{}
	expanded := 0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		expanded++
		if cur == goal {
			path := reconstruct(cameFrom, goal)
			return Result{Found: true, Path: path, ComputeTime: time.Since(startTime), NodesExpanded: expanded, PathLengthWorldUnits: pathLength(path, g.cellSize)}
		}
		for _, n := range g.Neighbors(cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			cameFrom[n] = cur
			queue = append(queue, n)
		}
	}
	return Result{Found: false, ComputeTime: time.Since(startTime), NodesExpanded: expanded}
}

// dfs explores with a LIFO frontier and a randomized neighbor order, so it
// returns the first path it stumbles on, not the shortest.
func dfs(g *Grid, start, goal Cell, rng *rand.Rand) Result {
	startTime := time.Now()
	stack := []Cell{start}
	visited := map[Cell]bool{}
	cameFrom := map[Cell]Cell{}
	expanded := 0

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		expanded++
		if cur == goal {
			path := reconstruct(cameFrom, goal)
			return Result{Found: true, Path: path, ComputeTime: time.Since(startTime), NodesExpanded: expanded, PathLengthWorldUnits: pathLength(path, g.cellSize)}
		}
		neighbors := g.Neighbors(cur)
		rng.Shuffle(len(neighbors), func(i, j int) { neighbors[i], neighbors[j] = neighbors[j], neighbors[i] })
		for _, n := range neighbors {
			if visited[n] {
				continue
			}
			if _, ok := cameFrom[n]; !ok {
				cameFrom[n] = cur
			}
			stack = append(stack, n)
		}
	}
	return Result{Found: false, ComputeTime: time.Since(startTime), NodesExpanded: expanded}
}

// pqItem is one entry in the binary heap priorityWeightedSearch drives.
type pqItem struct {
	cell     Cell
	priority float64
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// priorityWeightedSearch is the shared engine behind Dijkstra, A*, and
// greedy best-first: all three expand a container/heap frontier ordered by
// gWeight*g(n) + hWeight*h(n). Dijkstra drops the heuristic term (hWeight 0),
// greedy drops the cost-so-far term (gWeight 0), and A* keeps both.
func priorityWeightedSearch(g *Grid, start, goal Cell, gWeight, hWeight float64) Result {
	startTime := time.Now()
	gScore := map[Cell]float64{start: 0}
	cameFrom := map[Cell]Cell{}
	visited := map[Cell]bool{}
	expanded := 0

	open := &priorityQueue{{cell: start, priority: hWeight * octile(start, goal)}}
	heap.Init(open)

	for open.Len() > 0 {
		item := heap.Pop(open).(*pqItem)
		cur := item.cell
		if visited[cur] {
			continue
		}
		visited[cur] = true
		expanded++
		if cur == goal {
			path := reconstruct(cameFrom, goal)
			return Result{Found: true, Path: path, ComputeTime: time.Since(startTime), NodesExpanded: expanded, PathLengthWorldUnits: pathLength(path, g.cellSize)}
		}
		for _, n := range g.Neighbors(cur) {
			if visited[n] {
				continue
			}
			cost := gScore[cur] + moveCost(cur, n)
			if existing, ok := gScore[n]; ok && cost >= existing {
				continue
			}
			gScore[n] = cost
			cameFrom[n] = cur
			heap.Push(open, &pqItem{cell: n, priority: gWeight*cost + hWeight*octile(n, goal)})
		}
	}
	return Result{Found: false, ComputeTime: time.Since(startTime), NodesExpanded: expanded}
}

// bidirectional grows two BFS wavefronts, one from start and one from goal,
// alternating a layer at a time, and stitches the two half-paths together at
// the first cell both fronts have touched.
func bidirectional(g *Grid, start, goal Cell) Result {
	startTime := time.Now()
	if start == goal {
		return Result{Found: true, Path: []Cell{start}, ComputeTime: time.Since(startTime), NodesExpanded: 1}
	}
	if g.IsBlocked(goal.X, goal.Y) {
		return Result{Found: false, ComputeTime: time.Since(startTime)}
	}

	frontA := []Cell{start}
	frontB := []Cell{goal}
	parentA := map[Cell]Cell{start: start}
	parentB := map[Cell]Cell{goal: goal}
	expanded := 0

	for len(frontA) > 0 && len(frontB) > 0 {
		meet, found, next := expandFrontier(g, frontA, parentA, parentB, &expanded)
		frontA = next
		if found {
			return stitchBidirectional(g, parentA, parentB, start, goal, meet, time.Since(startTime), expanded)
		}

		meet, found, next = expandFrontier(g, frontB, parentB, parentA, &expanded)
		frontB = next
		if found {
			return stitchBidirectional(g, parentA, parentB, start, goal, meet, time.Since(startTime), expanded)
		}
	}
	return Result{Found: false, ComputeTime: time.Since(startTime), NodesExpanded: expanded}
}

// expandFrontier grows one side's wavefront by a single layer, returning the
// meeting cell (if this layer touched a cell the other side already owns).
func expandFrontier(g *Grid, front []Cell, own, other map[Cell]Cell, expanded *int) (Cell, bool, []Cell) {
	next := make([]Cell, 0, len(front)*2)
	for _, cur := range front {
		*expanded++
		for _, n := range g.Neighbors(cur) {
			if _, ok := own[n]; ok {
				continue
			}
			own[n] = cur
			next = append(next, n)
			if _, ok := other[n]; ok {
				return n, true, next
			}
		}
	}
	return Cell{}, false, next
}

func stitchBidirectional(g *Grid, parentA, parentB map[Cell]Cell, start, goal, meet Cell, elapsed time.Duration, expanded int) Result {
	var forward []Cell
	for cur := meet; cur != start; cur = parentA[cur] {
		forward = append(forward, cur)
	}
	forward = append(forward, start)
	for i, j := 0, len(forward)-1; i < j; i, j = i+1, j-1 {
		forward[i], forward[j] = forward[j], forward[i]
	}

	var backward []Cell
	if meet != goal {
		for cur := parentB[meet]; cur != goal; cur = parentB[cur] {
			backward = append(backward, cur)
		}
		backward = append(backward, goal)
	}

	path := append(forward, backward...)
	return Result{Found: true, Path: path, ComputeTime: elapsed, NodesExpanded: expanded, PathLengthWorldUnits: pathLength(path, g.cellSize)}
}
