// Package pathfind implements the Pathfinder Suite: a grid graph over the
// world plus the family of search algorithms the benchmark harness races
// against each other, and the blind "exploration mode" state an agent
// carries when it has to discover the grid one frontier cell at a time
// instead of seeing the whole graph up front.
package pathfind

import "math"

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// Grid is the pathfinder's own world view: a flat blocked-cell mask plus the
// world-unit size of one cell. Cells are marked through SetBlocked (the
// benchmark maze generator is the caller that does so) and never mutated
// by a search itself.
type Grid struct {
	blocked  []bool
	width    int
	height   int
	cellSize float64
}

// NewGrid builds an all-open grid of width x height cells, each cellSize
// world units across.
func NewGrid(width, height int, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		blocked:  make([]bool, width*height),
		width:    width,
		height:   height,
		cellSize: cellSize,
	}
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// SetBlocked marks or clears a cell as impassable. Out-of-bounds calls are
// ignored; out-of-bounds cells already read as blocked.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if !g.inBounds(x, y) {
		return
	}
	g.blocked[y*g.width+x] = blocked
}

// IsBlocked reports whether a cell is impassable. Out-of-bounds cells are
// always blocked, which lets Neighbors skip bounds-checking its offsets.
func (g *Grid) IsBlocked(x, y int) bool {
	if !g.inBounds(x, y) {
		return true
	}
	return g.blocked[y*g.width+x]
}

// WorldToGrid converts a world-space position to the cell containing it.
func (g *Grid) WorldToGrid(x, y float64) Cell {
	return Cell{X: int(math.Floor(x / g.cellSize)), Y: int(math.Floor(y / g.cellSize))}
}

// GridToWorld returns the world-space center of a cell.
func (g *Grid) GridToWorld(c Cell) (float64, float64) {
	return (float64(c.X) + 0.5) * g.cellSize, (float64(c.Y) + 0.5) * g.cellSize
}

// CellSize returns the world-unit size of one grid cell.
func (g *Grid) CellSize() float64 { return g.cellSize }

// neighborOffsets lists the 4 cardinal directions before the 4 diagonals;
// Neighbors uses the split to know when to run the corner-cut check.
var neighborOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// Neighbors returns c's open 8-connected neighbors, forbidding any diagonal
// move when either of the two cardinal cells beside it is blocked.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 8)
	for i, off := range neighborOffsets {
		nx, ny := c.X+off[0], c.Y+off[1]
		if g.IsBlocked(nx, ny) {
			continue
		}
		if i >= 4 {
			if g.IsBlocked(c.X+off[0], c.Y) || g.IsBlocked(c.X, c.Y+off[1]) {
				continue
			}
		}
		out = append(out, Cell{X: nx, Y: ny})
	}
	return out
}

// moveCost is the edge weight between two adjacent cells: 1 for cardinal
// moves, sqrt(2) for diagonals.
func moveCost(a, b Cell) float64 {
	if a.X != b.X && a.Y != b.Y {
		return math.Sqrt2
	}
	return 1
}

// octile is the admissible heuristic for 8-connected grids with the
// cardinal/diagonal cost split above.
func octile(a, b Cell) float64 {
	dx := math.Abs(float64(a.X - b.X))
	dy := math.Abs(float64(a.Y - b.Y))
	if dx < dy {
		dx, dy = dy, dx
	}
	return dx + (math.Sqrt2-1)*dy
}

func pathLength(path []Cell, cellSize float64) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += moveCost(path[i-1], path[i]) * cellSize
	}
	return total
}

func reconstruct(cameFrom map[Cell]Cell, goal Cell) []Cell {
	path := []Cell{goal}
	cur := goal
	for {
		prev, ok := cameFrom[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
