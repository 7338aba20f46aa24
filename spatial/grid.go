// Package spatial implements a hashed uniform grid for O(1) agent neighbor
// queries over a toroidal (wrap-around) world.
package spatial

import "math"

// cellKey packs integer cell coordinates into a single map key.
type cellKey int64

func key(cx, cy int32) cellKey {
	return cellKey(int64(cx)<<32 | int64(uint32(cy)))
}

// MaxQueryResults bounds how many indices a single Neighbors or
// NeighborsToroidal call returns, so a
// pathological cluster cannot blow out a caller's per-step allocation.
const MaxQueryResults = 4096

// Grid is a mapping from integer cell coordinates (world position
// floor-divided by cellSize) to a list of agent-pool indices. It does not own
// agents; it only stores indices into a caller-owned pool, and it is a
// per-step transient: never read after an operation that can invalidate
// indices (swap-remove, reallocation).
type Grid struct {
	cellSize      float64
	worldW, worldH float64

	cells map[cellKey][]int32

	// scratch buffer reused across neighbor queries to avoid per-call allocation.
	scratch []int32
}

// NewGrid constructs an empty spatial index. cellSize is the edge length of
// one hash cell in world units; a value near the typical sensor range
// minimizes work. worldW/worldH describe the toroidal world the grid wraps
// coordinates against.
func NewGrid(cellSize, worldW, worldH float64) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{
		cellSize: cellSize,
		worldW:   worldW,
		worldH:   worldH,
		cells:    make(map[cellKey][]int32),
		scratch:  make([]int32, 0, 256),
	}
}

// Clear empties every cell bucket without discarding the backing slices, so
// the next Rebuild can reuse their capacity.
func (g *Grid) Clear() {
	for k, bucket := range g.cells {
		g.cells[k] = bucket[:0]
	}
}

func (g *Grid) cellOf(x, y float64) (int32, int32) {
	cx := int32(math.Floor(x / g.cellSize))
	cy := int32(math.Floor(y / g.cellSize))
	return cx, cy
}

// Insert places agentIndex into the bucket for world position (x, y).
func (g *Grid) Insert(agentIndex int, x, y float64) {
	cx, cy := g.cellOf(x, y)
	k := key(cx, cy)
	g.cells[k] = append(g.cells[k], int32(agentIndex))
}

// Rebuild clears the grid then re-inserts every (index, x, y) triple
// produced by the iterator function for i in [0, n).
func (g *Grid) Rebuild(n int, positionOf func(i int) (x, y float64)) {
	g.Clear()
	for i := 0; i < n; i++ {
		x, y := positionOf(i)
		g.Insert(i, x, y)
	}
}

// ToroidalDelta returns the shortest signed displacement from a to b along
// one axis of length size, accounting for wrap-around.
func ToroidalDelta(a, b, size float64) float64 {
	d := b - a
	half := size / 2
	if d > half {
		d -= size
	} else if d < -half {
		d += size
	}
	return d
}

// Neighbors returns every agent index whose cell overlaps the bounding box of
// radius around (x, y) — a superset of those truly within radius; the
// caller performs precise distance tests. The returned slice is reused
// across calls and must not be retained past the next neighbor query,
// Insert or Clear.
func (g *Grid) Neighbors(x, y, radius float64) []int32 {
	g.scratch = g.scratch[:0]

	cellRadius := int32(math.Ceil(radius/g.cellSize)) + 1
	cx, cy := g.cellOf(x, y)

	for dy := -cellRadius; dy <= cellRadius; dy++ {
		for dx := -cellRadius; dx <= cellRadius; dx++ {
			bucket, ok := g.cells[key(cx+dx, cy+dy)]
			if !ok {
				continue
			}
			for _, idx := range bucket {
				if len(g.scratch) >= MaxQueryResults {
					return g.scratch
				}
				g.scratch = append(g.scratch, idx)
			}
		}
	}
	return g.scratch
}

// NeighborsToroidal behaves like Neighbors but also wraps the query around
// the grid's world bounds, matching the agents' own wrap-around motion. It
// walks the same cell box around the wrapped position, wrapping each cell
// coordinate modulo the world's cell count so cells across an edge are read.
func (g *Grid) NeighborsToroidal(x, y, radius float64) []int32 {
	g.scratch = g.scratch[:0]
	g.appendToroidal(x, y, radius)
	return g.scratch
}

func (g *Grid) appendToroidal(x, y, radius float64) {
	cellRadius := int32(math.Ceil(radius/g.cellSize)) + 1
	cx, cy := g.cellOf(wrapCoord(x, g.worldW), wrapCoord(y, g.worldH))

	cellsW := int32(math.Ceil(g.worldW / g.cellSize))
	cellsH := int32(math.Ceil(g.worldH / g.cellSize))

	for dy := -cellRadius; dy <= cellRadius; dy++ {
		for dx := -cellRadius; dx <= cellRadius; dx++ {
			wx := wrapCell(cx+dx, cellsW)
			wy := wrapCell(cy+dy, cellsH)
			bucket, ok := g.cells[key(wx, wy)]
			if !ok {
				continue
			}
			for _, idx := range bucket {
				if len(g.scratch) >= MaxQueryResults {
					return
				}
				g.scratch = append(g.scratch, idx)
			}
		}
	}
}

func wrapCoord(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

func wrapCell(c, count int32) int32 {
	if count <= 0 {
		return c
	}
	c %= count
	if c < 0 {
		c += count
	}
	return c
}
