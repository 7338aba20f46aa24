package benchmark

import (
	"math/rand"
	"strings"

	"github.com/pthm-cable/physarum/pathfind"
)

// Lane is one algorithm's horizontal slice of the maze: its spawn cell and
// the pool indices of the agents racing along it.
type Lane struct {
	Algorithm    pathfind.Algorithm
	AlgorithmRaw string
	SpawnCell    pathfind.Cell
	AgentIndices []int
}

// AssignLanes lays out one lane per enabled algorithm, in a random order
// freshly shuffled per session (spec 4.8), each given an even horizontal
// band of the maze with its spawn cell on the open column nearest that
// band's left edge.
func AssignLanes(g *pathfind.Grid, cols, rows int, enabled []string, rng *rand.Rand) []Lane {
	order := make([]string, len(enabled))
	copy(order, enabled)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	lanes := make([]Lane, 0, len(order))
	bandHeight := rows / max1(len(order))
	for i, name := range order {
		bandTop := i * bandHeight
		bandBottom := bandTop + bandHeight
		if i == len(order)-1 {
			bandBottom = rows
		}
		spawn := nearestOpenCellInBand(g, cols, bandTop, bandBottom)
		lanes = append(lanes, Lane{
			Algorithm:    pathfind.ParseAlgorithm(strings.TrimSuffix(name, "_blind")),
			AlgorithmRaw: name,
			SpawnCell:    spawn,
		})
	}
	return lanes
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// nearestOpenCellInBand scans left-to-right, top-to-bottom within
// [bandTop, bandBottom) for the first open cell, which anchors that lane's
// spawn point near the maze's entrance edge.
func nearestOpenCellInBand(g *pathfind.Grid, cols, bandTop, bandBottom int) pathfind.Cell {
	for x := 0; x < cols; x++ {
		for y := bandTop; y < bandBottom; y++ {
			if !g.IsBlocked(x, y) {
				return pathfind.Cell{X: x, Y: y}
			}
		}
	}
	return pathfind.Cell{X: 0, Y: bandTop}
}
