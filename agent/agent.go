// Package agent defines the Agent record and the caller-owned pool that
// exclusively holds every agent in the simulation.
package agent

import "github.com/pthm-cable/physarum/genome"

// LifeEvent tags the outcome of an agent's age/energy update for one step.
type LifeEvent int

const (
	LifeEventNone LifeEvent = iota
	LifeEventRebirth
	LifeEventDied
)

// pathMemorySize is the length of the ring buffer of recently visited grid
// cells kept for post-success trail reinforcement in benchmark mode.
const pathMemorySize = 64

// Agent is a single slime-mold particle. Agents never hold cross-agent
// pointers or references; identity is purely the agent's logical ID (set at
// creation and carried across pool compaction), never its pool index.
//
// Fields are grouped hot-to-cold the way the source material splits its
// struct across cache lines: kinematics and the fields the per-agent sweep
// touches every step come first, population-dynamics/genome bookkeeping
// next, and benchmark-only pathfollower state last. Go gives no alignment
// attribute equivalent to the original's cache-line split, so the grouping
// here is convention, not an enforced layout.
type Agent struct {
	// --- hot: touched every step ---
	X, Y           float64
	Heading        float64
	PreviousHeading float64
	AngularVelocity float64
	SpeciesIndex   int
	Energy         float64 // in [0, 1]
	StateTimer     float64
	BehaviorMode   int // species-specific mode index (e.g. quantum's 7 modes)

	// cached per-species constants, scaled by genome at spawn time
	MoveSpeed      float64
	TurnSpeed      float64 // radians/sec
	SensorRange    float64
	SensorAngle    float64 // radians
	MaxTurnPerStep float64 // radians, precomputed cap

	// --- warm: population dynamics / identity ---
	ID               int64 // logical identity, stable across pool compaction
	OriginalSpecies  int   // species at spawn time, for color bookkeeping after rerolls
	AgeSeconds       float64
	LifespanSeconds  float64
	MateCooldown     float64
	SplitCooldown    float64
	HasGenome        bool
	Genome           genome.Genome

	// --- cold: benchmark pathfollower state ---
	AssignedAlgorithm int
	Path              []GridCell
	PathIndex         int
	HasPath           bool
	ReachedGoal       bool
	FoundGoalFirst    bool

	ExplorationFrontier []GridCell
	ExplorationVisited  map[GridCell]bool
	ExplorationParents  map[GridCell]GridCell
	ExplorationCost     map[GridCell]float64

	recentPositions [pathMemorySize]GridCell
	pathMemoryIndex int
	pathMemoryCount int

	BenchmarkEnergy          float64
	BenchmarkRespawnFrames   int
	BenchmarkLowSignalFrames int
	BenchmarkAlive           bool
	BenchmarkSpawnX          float64
	BenchmarkSpawnY          float64
	BenchmarkLaneIndex       int
	BenchmarkWallSlideSign   int
	BenchmarkWallFollowFrames int
	BenchmarkWallSlideHeading float64
	BenchmarkPrevGoalDistance float64
}

// GridCell is a plain integer grid coordinate, used as a map key by
// pathfinder parent maps and exploration state — a value type, never a
// node pointer.
type GridCell struct {
	X, Y int
}

// PushPathMemory records a visited grid cell into the ring buffer used for
// post-success trail reinforcement.
func (a *Agent) PushPathMemory(c GridCell) {
	a.recentPositions[a.pathMemoryIndex] = c
	a.pathMemoryIndex = (a.pathMemoryIndex + 1) % pathMemorySize
	if a.pathMemoryCount < pathMemorySize {
		a.pathMemoryCount++
	}
}

// ClearPathMemory empties the ring buffer after reinforcement has run.
func (a *Agent) ClearPathMemory() {
	a.pathMemoryIndex = 0
	a.pathMemoryCount = 0
}

// PathMemory returns the recorded cells oldest-first. The slice is newly
// allocated and safe for the caller to keep.
func (a *Agent) PathMemory() []GridCell {
	out := make([]GridCell, a.pathMemoryCount)
	if a.pathMemoryCount == 0 {
		return out
	}
	start := a.pathMemoryIndex - a.pathMemoryCount
	for i := 0; i < a.pathMemoryCount; i++ {
		idx := (start + i) % pathMemorySize
		if idx < 0 {
			idx += pathMemorySize
		}
		out[i] = a.recentPositions[idx]
	}
	return out
}

// NormalizeHeading wraps h into (-pi, pi].
func NormalizeHeading(h float64) float64 {
	const twoPi = 2 * 3.141592653589793
	for h > 3.141592653589793 {
		h -= twoPi
	}
	for h <= -3.141592653589793 {
		h += twoPi
	}
	return h
}
