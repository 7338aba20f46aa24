// Package benchmark implements the Benchmark Harness: a maze race pitting
// the pathfinder suite's algorithms (and an authentic stigmergic "slime"
// agent) against each other on a shared grid, with arrival order recorded
// per algorithm lane.
package benchmark

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/pathfind"
)

// Maze is a generated race grid: an open playing field carved into
// "rooms and corridors" by thresholding simplex noise, restricted to its
// single largest connected component so every reachable cell really is
// reachable from every lane's spawn point.
type Maze struct {
	Grid *pathfind.Grid
	Goal pathfind.Cell
}

// Generate carves a maze sized and textured per cfg, seeded deterministically
// from seed. Difficulty in [0,1] scales how much of the field is carved out
// as wall versus open floor — 0 is nearly open, 1 is densely obstructed.
func Generate(cfg config.BenchmarkConfig, seed int64) *Maze {
	cols, rows := cfg.MazeCols, cfg.MazeRows
	if cols < 2 {
		cols = 2
	}
	if rows < 2 {
		rows = 2
	}
	cellSize := cfg.CellSizeWorldUnits
	if cellSize <= 0 {
		cellSize = 1
	}

	grid := pathfind.NewGrid(cols, rows, cellSize)
	noise := opensimplex.New(seed)
	carveRoomsAndCorridors(grid, noise, cols, rows, clamp01(cfg.Difficulty))

	keepLargestComponent(grid, cols, rows)

	rng := rand.New(rand.NewSource(seed))
	goal := farthestOpenCellFrom(grid, cols, rows, randomOpenCell(grid, cols, rows, rng))

	return &Maze{Grid: grid, Goal: goal}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// carveRoomsAndCorridors blocks a cell when two octaves of simplex noise
// (a coarse "room" layer and a fine "corridor" layer) both read above a
// difficulty-scaled threshold, producing open rooms connected by narrower
// passages rather than uniform static.
func carveRoomsAndCorridors(g *pathfind.Grid, noise opensimplex.Noise, cols, rows int, difficulty float64) {
	roomThreshold := 0.5 - 0.35*difficulty
	corridorThreshold := 0.7 - 0.35*difficulty
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			room := noise.Eval2(float64(x)*0.08, float64(y)*0.08)
			corridor := noise.Eval2(float64(x)*0.22+100, float64(y)*0.22+100)
			if room > roomThreshold && corridor > corridorThreshold {
				g.SetBlocked(x, y, true)
			}
		}
	}
	// Never block the border ring outright: keeping it open guarantees at
	// least one large loop survives the threshold pass.
	for x := 0; x < cols; x++ {
		g.SetBlocked(x, 0, false)
		g.SetBlocked(x, rows-1, false)
	}
	for y := 0; y < rows; y++ {
		g.SetBlocked(0, y, false)
		g.SetBlocked(cols-1, y, false)
	}
}

// keepLargestComponent flood-fills every open region and blocks every cell
// outside the single largest one, so the maze never leaves an unreachable
// pocket that could strand a lane's spawn point or the goal.
func keepLargestComponent(g *pathfind.Grid, cols, rows int) {
	visited := make([]bool, cols*rows)
	var best []pathfind.Cell

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			idx := y*cols + x
			if visited[idx] || g.IsBlocked(x, y) {
				continue
			}
			component := floodFill(g, cols, rows, visited, pathfind.Cell{X: x, Y: y})
			if len(component) > len(best) {
				best = component
			}
		}
	}

	keep := make(map[pathfind.Cell]bool, len(best))
	for _, c := range best {
		keep[c] = true
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := pathfind.Cell{X: x, Y: y}
			if !g.IsBlocked(x, y) && !keep[c] {
				g.SetBlocked(x, y, true)
			}
		}
	}
}

func floodFill(g *pathfind.Grid, cols, rows int, visited []bool, start pathfind.Cell) []pathfind.Cell {
	queue := []pathfind.Cell{start}
	visited[start.Y*cols+start.X] = true
	var component []pathfind.Cell
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		component = append(component, cur)
		for _, n := range g.Neighbors(cur) {
			idx := n.Y*cols + n.X
			if visited[idx] {
				continue
			}
			visited[idx] = true
			queue = append(queue, n)
		}
	}
	return component
}

func randomOpenCell(g *pathfind.Grid, cols, rows int, rng *rand.Rand) pathfind.Cell {
	for attempt := 0; attempt < cols*rows; attempt++ {
		c := pathfind.Cell{X: rng.Intn(cols), Y: rng.Intn(rows)}
		if !g.IsBlocked(c.X, c.Y) {
			return c
		}
	}
	return pathfind.Cell{}
}

// farthestOpenCellFrom runs a BFS from start and returns the last cell it
// settles, i.e. a cell at (one of) the maximum BFS depth — a simple way to
// place the goal far from an arbitrary spawn without needing true
// all-pairs distances.
func farthestOpenCellFrom(g *pathfind.Grid, cols, rows int, start pathfind.Cell) pathfind.Cell {
	visited := map[pathfind.Cell]bool{start: true}
	queue := []pathfind.Cell{start}
	farthest := start
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		farthest = cur
		for _, n := range g.Neighbors(cur) {
			if visited[n] {
				continue
			}
			visited[n] = true
			queue = append(queue, n)
		}
	}
	return farthest
}
