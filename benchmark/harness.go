package benchmark

import (
	"math/rand"
	"strings"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/pathfind"
	"github.com/pthm-cable/physarum/trail"
)

const slimeLaneName = "slime"

// Arrival records one agent reaching the goal, in the order harness.Step
// observed it — the thing the race actually measures.
type Arrival struct {
	AgentIndex int
	LaneIndex  int
	Algorithm  string
	Step       int
}

type pathKey struct {
	algo  pathfind.Algorithm
	spawn pathfind.Cell
}

// Harness runs the maze race: it owns the maze grid, the two-channel trail
// field (slime trail + hidden goal scent), the per-algorithm lanes, and the
// agent pool racing across them.
type Harness struct {
	Maze   *Maze
	Field  *trail.Field
	Lanes  []Lane
	Pool   *agent.Pool
	cfg    config.BenchmarkConfig
	worldW float64
	worldH float64

	pathCache map[pathKey]pathfind.Result
	Arrivals  []Arrival
	stepCount int
	paused    bool
}

// NewHarness builds a fresh benchmark race from cfg, seeded deterministically
// by seed — the same seed reproduces the same maze, lane order, and spawn
// cells (spec's benchmark-race-determinism scenario).
func NewHarness(cfg config.BenchmarkConfig, seed int64) *Harness {
	maze := Generate(cfg, seed)
	cols, rows := cfg.MazeCols, cfg.MazeRows
	field := trail.NewField(cols, rows, 1)

	rng := rand.New(rand.NewSource(seed))
	laneNames := append(append([]string{}, cfg.EnabledAlgorithms...), slimeLaneName)
	lanes := AssignLanes(maze.Grid, cols, rows, laneNames, rng)

	h := &Harness{
		Maze:      maze,
		Field:     field,
		Lanes:     lanes,
		Pool:      agent.NewPool(cfg.AgentsPerAlgorithm * len(lanes)),
		cfg:       cfg,
		worldW:    float64(cols) * cfg.CellSizeWorldUnits,
		worldH:    float64(rows) * cfg.CellSizeWorldUnits,
		pathCache: make(map[pathKey]pathfind.Result),
	}
	h.spawnAgents(rng)
	return h
}

func (h *Harness) isBlindLane(name string) (string, bool) {
	base := strings.TrimSuffix(name, "_blind")
	return base, base != name
}

func (h *Harness) spawnAgents(rng *rand.Rand) {
	for li := range h.Lanes {
		lane := &h.Lanes[li]
		spawnX, spawnY := h.Maze.Grid.GridToWorld(lane.SpawnCell)
		isSlime := lane.AlgorithmRaw == slimeLaneName

		for j := 0; j < h.cfg.AgentsPerAlgorithm; j++ {
			a := agent.Agent{
				X: spawnX, Y: spawnY,
				Heading:            rng.Float64() * 2 * 3.141592653589793,
				BenchmarkAlive:     true,
				BenchmarkSpawnX:    spawnX,
				BenchmarkSpawnY:    spawnY,
				BenchmarkLaneIndex: li,
				BenchmarkWallSlideSign: 1,
				BenchmarkPrevGoalDistance: -1,
			}
			if isSlime {
				a.BenchmarkEnergy = h.cfg.SlimeEnergy.MaxEnergy
			} else {
				a.AssignedAlgorithm = int(lane.Algorithm)
			}
			idx := h.Pool.Add(a)
			lane.AgentIndices = append(lane.AgentIndices, idx)
		}
	}
}

// Step advances every lane's agents by one tick: path-followers move one
// node along their (cached) precomputed path, exploration agents pop one
// frontier cell, and slime agents run the full stigmergic step. It also
// refreshes the hidden goal-scent channel so chemotaxis has something to
// climb.
func (h *Harness) Step(rng *rand.Rand) {
	if h.paused {
		return
	}
	h.stepCount++
	h.refreshGoalScent()

	for li := range h.Lanes {
		lane := &h.Lanes[li]
		_, blind := h.isBlindLane(lane.AlgorithmRaw)
		switch {
		case lane.AlgorithmRaw == slimeLaneName:
			h.stepSlimeLane(lane, rng)
		case blind:
			h.stepExplorationLane(lane)
		default:
			h.stepPathFollowerLane(lane)
		}
	}

	h.Field.Diffuse(0.15)
	h.Field.Decay(0.01)
}

func (h *Harness) refreshGoalScent() {
	h.Field.Deposit(h.Maze.Goal.X, h.Maze.Goal.Y, 50, h.Field.GoalChannel())
}

func (h *Harness) stepSlimeLane(lane *Lane, rng *rand.Rand) {
	for _, idx := range lane.AgentIndices {
		a := h.Pool.At(idx)
		if a.ReachedGoal {
			continue
		}
		if SlimeStep(a, h.Field, h.Maze.Grid, h.cfg, h.Maze.Goal, h.worldW, h.worldH, rng) {
			h.recordArrival(idx, lane)
		}
	}
}

func (h *Harness) stepExplorationLane(lane *Lane) {
	for _, idx := range lane.AgentIndices {
		a := h.Pool.At(idx)
		if a.ReachedGoal {
			continue
		}
		if len(a.ExplorationFrontier) == 0 && a.ExplorationVisited == nil {
			pathfind.StartExploration(a, toGridCell(lane.SpawnCell))
		}
		if len(a.ExplorationFrontier) == 0 {
			continue // wait in place, frontier exhausted without finding the goal
		}
		popped, reached := pathfind.StepExploration(a, h.Maze.Grid, toGridCell(h.Maze.Goal))
		a.X, a.Y = h.Maze.Grid.GridToWorld(pathfind.Cell{X: popped.X, Y: popped.Y})
		if reached {
			a.ReachedGoal = true
			h.recordArrival(idx, lane)
		}
	}
}

func (h *Harness) stepPathFollowerLane(lane *Lane) {
	key := pathKey{algo: lane.Algorithm, spawn: lane.SpawnCell}
	result, ok := h.pathCache[key]
	if !ok {
		result = pathfind.Find(h.Maze.Grid, lane.Algorithm, lane.SpawnCell, h.Maze.Goal, rand.New(rand.NewSource(int64(lane.Algorithm)+1)))
		h.pathCache[key] = result
	}

	for _, idx := range lane.AgentIndices {
		a := h.Pool.At(idx)
		if a.ReachedGoal {
			continue
		}
		if !a.HasPath {
			a.Path = make([]agent.GridCell, len(result.Path))
			for i, c := range result.Path {
				a.Path[i] = agent.GridCell{X: c.X, Y: c.Y}
			}
			a.HasPath = true
			a.PathIndex = 0
		}
		if !result.Found || len(a.Path) == 0 {
			continue
		}
		if a.PathIndex < len(a.Path)-1 {
			a.PathIndex++
		}
		wx, wy := h.Maze.Grid.GridToWorld(pathfind.Cell{X: a.Path[a.PathIndex].X, Y: a.Path[a.PathIndex].Y})
		a.X, a.Y = wx, wy
		if a.PathIndex == len(a.Path)-1 {
			a.ReachedGoal = true
			h.recordArrival(idx, lane)
		}
	}
}

func (h *Harness) recordArrival(agentIdx int, lane *Lane) {
	h.Arrivals = append(h.Arrivals, Arrival{
		AgentIndex: agentIdx,
		LaneIndex:  h.Pool.At(agentIdx).BenchmarkLaneIndex,
		Algorithm:  lane.AlgorithmRaw,
		Step:       h.stepCount,
	})
}

func toGridCell(c pathfind.Cell) agent.GridCell { return agent.GridCell{X: c.X, Y: c.Y} }

// Pause stops Step from advancing agents until Resume is called.
func (h *Harness) Pause() { h.paused = true }

// Resume un-pauses the race.
func (h *Harness) Resume() { h.paused = false }

// Reset regenerates the maze and respawns every lane from scratch with a new
// seed, clearing all arrival history.
func (h *Harness) Reset(seed int64) *Harness {
	return NewHarness(h.cfg, seed)
}

// ToggleAlgorithm returns enabled without entry i, disabling that lane for
// subsequent resets; i is an index into the original EnabledAlgorithms list,
// not the shuffled Lanes slice. It only removes: an algorithm dropped earlier
// is not added back, and an out-of-range i returns enabled unchanged.
func ToggleAlgorithm(enabled []string, i int) []string {
	if i < 0 || i >= len(enabled) {
		return enabled
	}
	out := make([]string, 0, len(enabled))
	for j, name := range enabled {
		if j == i {
			continue
		}
		out = append(out, name)
	}
	return out
}
