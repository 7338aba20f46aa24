// Package sim wires the trail field, spatial index, agent pool, species
// catalog, parallel scheduler, population dynamics, and benchmark harness
// into the single orchestrator the hosting application drives (spec's
// External Interfaces).
package sim

import (
	"context"
	"math"
	"math/rand"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/benchmark"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/internal/simlog"
	"github.com/pthm-cable/physarum/population"
	"github.com/pthm-cable/physarum/scheduler"
	"github.com/pthm-cable/physarum/spatial"
	"github.com/pthm-cable/physarum/species"
	"github.com/pthm-cable/physarum/step"
	"github.com/pthm-cable/physarum/telemetry"
	"github.com/pthm-cable/physarum/trail"
)

// mazeDifficultyPresets is the fixed rotation cycle_maze_type steps
// through; the harness only exposes one generation algorithm
// (rooms+corridors noise thresholding), so "maze type" here means a
// distinct difficulty preset rather than a different carving algorithm.
var mazeDifficultyPresets = []float64{0.2, 0.4, 0.6, 0.8}

// Simulation is the top-level core: it owns every buffer the per-step
// pipeline touches and exposes the operations spec section 6 names.
type Simulation struct {
	cfg       *config.Config
	spawnMode SpawnMode
	worldW    float64
	worldH    float64

	Pool      *agent.Pool
	Field     *trail.Field
	Grid      *spatial.Grid
	Policies  []species.Policy
	Scheduler *scheduler.Scheduler

	rng    *rand.Rand
	nextID int64
	tick   int64
	seed   int64

	benchmarkMode   bool
	benchmarkSeed   int64
	packPositions   bool
	mazePresetIndex int
	Benchmark       *benchmark.Harness

	foodPellets []step.FoodPellet

	perf  *telemetry.PerfCollector
	telem *telemetry.Collector
}

// EnablePerf turns on tick/phase timing, kept over a rolling window of
// windowSize ticks. Pass 0 to use the collector's own default window.
func (s *Simulation) EnablePerf(windowSize int) {
	s.perf = telemetry.NewPerfCollector(windowSize)
}

// EnableTelemetry turns on windowed population telemetry: each Step's
// population.Stats are folded into the window until ShouldFlushTelemetry
// reports the window is due, at which point FlushTelemetry produces the
// window's rows and starts the next window.
func (s *Simulation) EnableTelemetry(speciesNames []string, windowDurationSec, dt float64) {
	s.telem = telemetry.NewCollector(speciesNames, windowDurationSec, dt)
}

// ShouldFlushTelemetry reports whether the current telemetry window is due
// to be flushed. Always false if EnableTelemetry was never called.
func (s *Simulation) ShouldFlushTelemetry() bool {
	return s.telem != nil && s.telem.ShouldFlush(s.tick)
}

// FlushTelemetry produces the current telemetry window's rows and resets
// the window counters. Call only when EnableTelemetry was called first.
func (s *Simulation) FlushTelemetry() (telemetry.WindowStats, []telemetry.SpeciesStats) {
	return s.telem.Flush(s.tick, s.Pool, s.worldW, s.worldH)
}

// PerfStats returns the current rolling-window performance stats. Zero
// value if EnablePerf was never called.
func (s *Simulation) PerfStats() telemetry.PerfStats {
	if s.perf == nil {
		return telemetry.PerfStats{}
	}
	return s.perf.Stats()
}

// WorldDimensions returns the current world width and height in units.
func (s *Simulation) WorldDimensions() (float64, float64) {
	return s.worldW, s.worldH
}

// Tick returns the number of ticks advanced so far.
func (s *Simulation) Tick() int64 {
	return s.tick
}

// New allocates a fresh core from cfg, seeded deterministically, and runs
// the agent factory once per spec's new(settings) operation. Allocation
// failure (non-positive world dimensions) is fatal — see trail.NewField.
func New(cfg *config.Config, seed int64) *Simulation {
	s := &Simulation{seed: seed}
	s.applySettings(cfg, true)
	return s
}

// applySettings (re)allocates the field/grid/scheduler/policies from cfg.
// When forceRespawn is true, or the world dimensions/species count changed from
// the previous settings, it also rebuilds the agent pool from scratch.
func (s *Simulation) applySettings(cfg *config.Config, forceRespawn bool) {
	reallocate := forceRespawn || s.cfg == nil ||
		s.cfg.World.WidthUnits != cfg.World.WidthUnits ||
		s.cfg.World.HeightUnits != cfg.World.HeightUnits ||
		len(s.cfg.Species) != len(cfg.Species)

	s.cfg = cfg
	s.worldW = cfg.World.WidthUnits
	s.worldH = cfg.World.HeightUnits
	s.Policies = species.Catalog(cfg)

	s.rng = rand.New(rand.NewSource(s.seed))
	s.Scheduler = scheduler.New(cfg.Scheduler, s.rng)

	if reallocate {
		s.Field = trail.NewField(int(s.worldW), int(s.worldH), len(cfg.Species))
		s.Grid = spatial.NewGrid(cfg.World.SpatialCellSize, s.worldW, s.worldH)
		s.nextID = 0
		s.Pool = agent.NewPool(cfg.World.InitialAgentsPerSpecies * len(cfg.Species))
		spawnPopulation(s.Pool, cfg, s.Policies, s.spawnMode, s.worldW, s.worldH, s.rng, &s.nextID)
		s.tick = 0
	}
}

// Step advances the simulation by one tick. In benchmark mode this steps
// the race harness instead of the main pipeline.
func (s *Simulation) Step(dt float64) error {
	if s.benchmarkMode {
		if s.Benchmark != nil {
			s.Benchmark.Step(s.rng)
		}
		return nil
	}

	if s.perf != nil {
		s.perf.StartTick()
		s.perf.StartPhase(telemetry.PhaseSpatialGrid)
	}
	s.Grid.Rebuild(s.Pool.Len(), func(i int) (float64, float64) {
		a := s.Pool.At(i)
		return a.X, a.Y
	})

	if s.perf != nil {
		s.perf.StartPhase(telemetry.PhaseScheduler)
	}
	w := step.World{Width: s.worldW, Height: s.worldH, BenchmarkMode: false, FoodPellets: s.foodPellets}
	if err := s.Scheduler.Run(context.Background(), s.Pool, s.Policies, s.Field, s.Grid, w, dt); err != nil {
		return err
	}

	if s.perf != nil {
		s.perf.StartPhase(telemetry.PhasePopulation)
	}
	stats := population.Sweep(s.Pool, s.Policies, s.Grid, s.cfg, s.worldW, s.worldH, dt, s.rng)
	simlog.Detailf("tick %d: pop=%d births=%d", s.tick, s.Pool.Len(), stats.Births)
	if s.telem != nil {
		s.telem.Record(stats)
	}

	if s.perf != nil {
		s.perf.StartPhase(telemetry.PhaseTrailField)
	}
	s.Field.Diffuse(float32(s.cfg.World.TrailDiffuseRate))
	s.Field.Decay(float32(s.cfg.World.TrailDecayRate))
	s.tick++
	if s.perf != nil {
		s.perf.EndTick()
	}
	return nil
}

// Reset clears the trail field and respawns agents per the current
// settings, per spec's reset() operation.
func (s *Simulation) Reset() {
	s.ClearFoodPellets()
	s.applySettings(s.cfg, true)
}

// UpdateSettings replaces the active configuration for subsequent steps.
// If world dimensions or species count changed, the field and agent pool
// are reallocated and repopulated; otherwise the running population and
// trail state carry over under the new policies.
func (s *Simulation) UpdateSettings(cfg *config.Config) {
	s.applySettings(cfg, false)
}

// AdjustAgentCount adds delta agents (cloning random existing agents with a
// small positional jitter) or removes |delta| from the tail, never
// dropping the pool below the configured floor (spec's EmptyPool
// semantics: a no-op, logged, when there's nothing to clone from).
func (s *Simulation) AdjustAgentCount(delta int) {
	if delta == 0 {
		return
	}
	floor := s.cfg.World.MinAgentFloor
	if delta > 0 {
		if s.Pool.Len() == 0 {
			simlog.Logf("sim: adjust_agent_count(+%d) requested with an empty pool, nothing to clone", delta)
			return
		}
		for i := 0; i < delta; i++ {
			src := *s.Pool.At(s.rng.Intn(s.Pool.Len()))
			src.ID = s.nextID
			s.nextID++
			src.X += (s.rng.Float64()*2 - 1) * 5
			src.Y += (s.rng.Float64()*2 - 1) * 5
			src.AgeSeconds = 0
			s.Pool.Add(src)
		}
		return
	}

	remove := -delta
	if s.Pool.Len()-remove < floor {
		remove = s.Pool.Len() - floor
	}
	if remove <= 0 {
		return
	}
	indices := make([]int, remove)
	for i := range indices {
		indices[i] = s.Pool.Len() - 1 - i
	}
	s.Pool.RemoveIndices(indices)
}

// ViewKind selects what Snapshot populates.
type ViewKind int

const (
	ViewFull ViewKind = iota
	ViewTrailOnly
	ViewAgentsOnly
)

// AgentView is one agent's renderer-facing state.
type AgentView struct {
	X, Y, Heading float64
	SpeciesIndex  int
}

// Snapshot is a read-only copy of simulation state for a renderer; it never
// aliases live buffers, so the caller may hold it across future Step calls.
type Snapshot struct {
	Tick          int64
	WorldW        float64
	WorldH        float64
	TrailChannels [][]float32 // one entry per species channel plus the goal channel last
	Agents        []AgentView
}

// Snapshot produces a read-only view for the renderer per spec's
// snapshot(view_kind) operation.
func (s *Simulation) Snapshot(kind ViewKind) Snapshot {
	field, worldW, worldH := s.activeField()
	snap := Snapshot{Tick: s.tick, WorldW: worldW, WorldH: worldH}

	if kind != ViewAgentsOnly {
		count := field.NumSpecies() + 1
		snap.TrailChannels = make([][]float32, count)
		for c := 0; c < count; c++ {
			snap.TrailChannels[c] = field.ChannelSnapshot(c)
		}
	}

	if kind != ViewTrailOnly {
		pool := s.activePool()
		snap.Agents = make([]AgentView, pool.Len())
		for i := range snap.Agents {
			a := pool.At(i)
			snap.Agents[i] = AgentView{X: a.X, Y: a.Y, Heading: a.Heading, SpeciesIndex: a.SpeciesIndex}
		}
	}
	return snap
}

func (s *Simulation) activeField() (*trail.Field, float64, float64) {
	if s.benchmarkMode && s.Benchmark != nil {
		return s.Benchmark.Field, s.Benchmark.Maze.Grid.CellSize() * float64(s.cfg.Benchmark.MazeCols), s.Benchmark.Maze.Grid.CellSize() * float64(s.cfg.Benchmark.MazeRows)
	}
	return s.Field, s.worldW, s.worldH
}

func (s *Simulation) activePool() *agent.Pool {
	if s.benchmarkMode && s.Benchmark != nil {
		return s.Benchmark.Pool
	}
	return s.Pool
}

// DepositFood adds a user-driven deposit of amount, falling off
// quadratically to zero at radius, into every trail channel at (x, y).
func (s *Simulation) DepositFood(x, y, amount, radius float64) {
	field, _, _ := s.activeField()
	depositRadial(field, x, y, amount, radius, field.NumSpecies())
}

// DepositRepellent is the subtractive counterpart of DepositFood: it always
// removes intensity regardless of the sign of amount.
func (s *Simulation) DepositRepellent(x, y, amount, radius float64) {
	field, _, _ := s.activeField()
	depositRadial(field, x, y, -math.Abs(amount), radius, field.NumSpecies())
}

// AddFoodPellet places a user-driven attraction point that food-economy
// species steer toward independent of the trail field (spec 12's
// goal-seeking supplement). Strength must be positive to have any effect.
func (s *Simulation) AddFoodPellet(x, y, strength float64) {
	if strength <= 0 {
		return
	}
	s.foodPellets = append(s.foodPellets, step.FoodPellet{X: x, Y: y, Strength: strength})
}

// ClearFoodPellets removes every placed food pellet.
func (s *Simulation) ClearFoodPellets() {
	s.foodPellets = s.foodPellets[:0]
}

// depositRadial walks the bounding box of radius around (x, y) and applies
// a quadratic falloff deposit (amount > 0) or eat (amount < 0) to every
// channel in [0, numChannels).
func depositRadial(field *trail.Field, x, y, amount, radius float64, numChannels int) {
	if radius <= 0 || amount == 0 {
		return
	}
	cx, cy := int(math.Round(x)), int(math.Round(y))
	r := int(math.Ceil(radius))
	r2 := radius * radius

	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := float64(dx*dx + dy*dy)
			if d2 > r2 {
				continue
			}
			falloff := 1 - d2/r2
			for c := 0; c < numChannels; c++ {
				if amount > 0 {
					field.Deposit(cx+dx, cy+dy, float32(amount*falloff), c)
				} else {
					field.Eat(cx+dx, cy+dy, c, float32(-amount*falloff))
				}
			}
		}
	}
}

// EnterBenchmarkMode switches Step to drive the race harness instead of the
// main pipeline, constructing it fresh if this is the first entry.
func (s *Simulation) EnterBenchmarkMode() {
	s.benchmarkMode = true
	if s.Benchmark == nil {
		s.benchmarkSeed = s.seed
		s.Benchmark = benchmark.NewHarness(s.cfg.Benchmark, s.benchmarkSeed)
	}
}

// ExitBenchmarkMode returns Step to driving the main pipeline; the harness
// state is retained so re-entering resumes the same race.
func (s *Simulation) ExitBenchmarkMode() {
	s.benchmarkMode = false
}

// StartBenchmark (re)builds the harness from scratch and resumes it.
func (s *Simulation) StartBenchmark() {
	s.Benchmark = benchmark.NewHarness(s.cfg.Benchmark, s.benchmarkSeed)
	s.Benchmark.Resume()
}

// PauseBenchmark freezes the race in place.
func (s *Simulation) PauseBenchmark() {
	if s.Benchmark != nil {
		s.Benchmark.Pause()
	}
}

// ResetBenchmark regenerates the maze and respawns every lane with a fresh
// seed derived from the previous one.
func (s *Simulation) ResetBenchmark() {
	s.benchmarkSeed++
	s.Benchmark = benchmark.NewHarness(s.cfg.Benchmark, s.benchmarkSeed)
	if s.packPositions {
		s.applyPackPositions()
	}
}

// ToggleBenchmarkAlgorithm removes the i-th configured algorithm from the
// enabled set (by index into the original EnabledAlgorithms list) and
// rebuilds the harness.
func (s *Simulation) ToggleBenchmarkAlgorithm(i int) {
	s.cfg.Benchmark.EnabledAlgorithms = benchmark.ToggleAlgorithm(s.cfg.Benchmark.EnabledAlgorithms, i)
	s.ResetBenchmark()
}

// TogglePackPositions stacks every lane's agents onto the first lane's
// spawn cell (or, toggled off, restores each agent to its own lane's spawn
// cell) for an at-a-glance side-by-side comparison.
func (s *Simulation) TogglePackPositions() {
	s.packPositions = !s.packPositions
	s.applyPackPositions()
}

func (s *Simulation) applyPackPositions() {
	if s.Benchmark == nil || len(s.Benchmark.Lanes) == 0 {
		return
	}
	targetCell := s.Benchmark.Lanes[0].SpawnCell
	tx, ty := s.Benchmark.Maze.Grid.GridToWorld(targetCell)

	for _, lane := range s.Benchmark.Lanes {
		for _, idx := range lane.AgentIndices {
			a := s.Benchmark.Pool.At(idx)
			if s.packPositions {
				a.X, a.Y = tx, ty
			} else {
				a.X, a.Y = a.BenchmarkSpawnX, a.BenchmarkSpawnY
			}
		}
	}
}

// CycleMazeType steps to the next fixed difficulty preset and regenerates.
func (s *Simulation) CycleMazeType() {
	s.mazePresetIndex = (s.mazePresetIndex + 1) % len(mazeDifficultyPresets)
	s.cfg.Benchmark.Difficulty = mazeDifficultyPresets[s.mazePresetIndex]
	s.ResetBenchmark()
}

// SetDifficulty sets the maze carving difficulty directly and regenerates.
func (s *Simulation) SetDifficulty(f float64) {
	s.cfg.Benchmark.Difficulty = f
	s.ResetBenchmark()
}

// RegenerateMaze rebuilds the maze and lanes under the current difficulty.
func (s *Simulation) RegenerateMaze() {
	s.ResetBenchmark()
}
