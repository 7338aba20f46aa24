package sim

import (
	"testing"

	"github.com/pthm-cable/physarum/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load(\"\") failed: %v", err)
	}
	cfg.World.WidthUnits = 200
	cfg.World.HeightUnits = 150
	cfg.World.InitialAgentsPerSpecies = 4
	cfg.World.MinAgentFloor = 2
	cfg.Scheduler.WorkerCount = 2
	cfg.Benchmark.AgentsPerAlgorithm = 2
	cfg.Benchmark.MazeCols = 16
	cfg.Benchmark.MazeRows = 12
	return cfg
}

func TestNewSpawnsConfiguredPopulation(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 1)
	want := cfg.World.InitialAgentsPerSpecies * len(cfg.Species)
	if s.Pool.Len() != want {
		t.Fatalf("pool size = %d, want %d", s.Pool.Len(), want)
	}
}

func TestStepAdvancesTickAndKeepsEnergyInBounds(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 2)

	for i := 0; i < 20; i++ {
		if err := s.Step(1.0 / 30); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}

	for i := 0; i < s.Pool.Len(); i++ {
		a := s.Pool.At(i)
		if a.Energy < 0 || a.Energy > 1 {
			t.Fatalf("agent %d energy out of bounds: %v", i, a.Energy)
		}
		if a.X < 0 || a.X >= s.worldW || a.Y < 0 || a.Y >= s.worldH {
			t.Fatalf("agent %d escaped toroidal bounds: (%v, %v)", i, a.X, a.Y)
		}
	}
}

func TestResetRespawnsFromScratch(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 3)
	s.Field.Deposit(5, 5, 50, 0)

	s.Reset()

	if s.Field.Sample(5, 5, 0) != 0 {
		t.Fatalf("expected trail field cleared on reset")
	}
	want := cfg.World.InitialAgentsPerSpecies * len(cfg.Species)
	if s.Pool.Len() != want {
		t.Fatalf("pool size after reset = %d, want %d", s.Pool.Len(), want)
	}
}

func TestAddFoodPelletIsClearedByReset(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 9)

	s.AddFoodPellet(10, 10, 5)
	if len(s.foodPellets) != 1 {
		t.Fatalf("foodPellets length = %d, want 1 after AddFoodPellet", len(s.foodPellets))
	}

	s.ClearFoodPellets()
	if len(s.foodPellets) != 0 {
		t.Fatalf("foodPellets length = %d, want 0 after ClearFoodPellets", len(s.foodPellets))
	}

	s.AddFoodPellet(10, 10, 5)
	s.Reset()
	if len(s.foodPellets) != 0 {
		t.Fatalf("foodPellets length = %d, want 0 after Reset", len(s.foodPellets))
	}
}

func TestAddFoodPelletIgnoresNonPositiveStrength(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 9)

	s.AddFoodPellet(10, 10, 0)
	s.AddFoodPellet(10, 10, -5)
	if len(s.foodPellets) != 0 {
		t.Fatalf("foodPellets length = %d, want 0 for non-positive strengths", len(s.foodPellets))
	}
}

func TestUpdateSettingsReallocatesOnDimensionChange(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 4)

	resized := *cfg
	resized.World.WidthUnits = 400
	resized.World.HeightUnits = 300
	s.UpdateSettings(&resized)

	if s.Field.Width() != 400 || s.Field.Height() != 300 {
		t.Fatalf("field not reallocated to new dimensions: got %dx%d", s.Field.Width(), s.Field.Height())
	}
}

func TestUpdateSettingsPreservesPopulationWhenDimensionsUnchanged(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 5)
	s.Pool.At(0).Energy = 0.42

	same := *cfg
	same.Scheduler.WorkerCount = 1 // unrelated change, should not trigger a respawn
	s.UpdateSettings(&same)

	if s.Pool.At(0).Energy != 0.42 {
		t.Fatalf("expected population preserved across a settings update with unchanged geometry")
	}
}

func TestAdjustAgentCountAddsAndRemoves(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 6)
	before := s.Pool.Len()

	s.AdjustAgentCount(5)
	if s.Pool.Len() != before+5 {
		t.Fatalf("pool size after +5 = %d, want %d", s.Pool.Len(), before+5)
	}

	s.AdjustAgentCount(-3)
	if s.Pool.Len() != before+2 {
		t.Fatalf("pool size after -3 = %d, want %d", s.Pool.Len(), before+2)
	}
}

func TestAdjustAgentCountNeverDropsBelowFloor(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 7)

	s.AdjustAgentCount(-100000)
	if s.Pool.Len() != cfg.World.MinAgentFloor {
		t.Fatalf("pool size = %d, want floor %d", s.Pool.Len(), cfg.World.MinAgentFloor)
	}
}

func TestSnapshotTrailOnlyOmitsAgents(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 8)

	snap := s.Snapshot(ViewTrailOnly)
	if snap.Agents != nil {
		t.Fatalf("expected no agents in a trail-only snapshot")
	}
	if len(snap.TrailChannels) != s.Field.NumSpecies()+1 {
		t.Fatalf("expected %d trail channels, got %d", s.Field.NumSpecies()+1, len(snap.TrailChannels))
	}
}

func TestSnapshotAgentsOnlyOmitsTrail(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 9)

	snap := s.Snapshot(ViewAgentsOnly)
	if snap.TrailChannels != nil {
		t.Fatalf("expected no trail channels in an agents-only snapshot")
	}
	if len(snap.Agents) != s.Pool.Len() {
		t.Fatalf("snapshot agent count = %d, want %d", len(snap.Agents), s.Pool.Len())
	}
}

func TestDepositFoodAddsWithQuadraticFalloff(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 10)

	s.DepositFood(20, 20, 10, 3)

	center := s.Field.Sample(20, 20, 0)
	edge := s.Field.Sample(23, 20, 0)
	if center <= 0 {
		t.Fatalf("expected positive deposit at center, got %v", center)
	}
	if edge >= center {
		t.Fatalf("expected falloff: edge (%v) should be weaker than center (%v)", edge, center)
	}
}

func TestDepositRepellentAlwaysSubtracts(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 11)
	s.Field.Deposit(20, 20, 50, 0)

	before := s.Field.Sample(20, 20, 0)
	s.DepositRepellent(20, 20, -25, 3) // sign of the input amount must not matter
	after := s.Field.Sample(20, 20, 0)

	if after >= before {
		t.Fatalf("expected repellent to reduce intensity: before=%v after=%v", before, after)
	}
}

func TestEnterAndExitBenchmarkModeSwitchesStepTarget(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 12)

	s.EnterBenchmarkMode()
	if s.Benchmark == nil {
		t.Fatalf("expected EnterBenchmarkMode to construct a harness")
	}
	wantLanes := len(cfg.Benchmark.EnabledAlgorithms) + 1
	if len(s.Benchmark.Lanes) != wantLanes {
		t.Fatalf("benchmark lane count = %d, want %d", len(s.Benchmark.Lanes), wantLanes)
	}

	mainPopBefore := s.Pool.Len()
	if err := s.Step(1.0 / 30); err != nil {
		t.Fatalf("Step in benchmark mode returned error: %v", err)
	}
	if s.Pool.Len() != mainPopBefore {
		t.Fatalf("expected main pool untouched while in benchmark mode")
	}

	s.ExitBenchmarkMode()
	if err := s.Step(1.0 / 30); err != nil {
		t.Fatalf("Step after exiting benchmark mode returned error: %v", err)
	}
}

func TestToggleBenchmarkAlgorithmShrinksLaneCount(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 13)
	s.EnterBenchmarkMode()

	before := len(s.Benchmark.Lanes)
	s.ToggleBenchmarkAlgorithm(0)
	after := len(s.Benchmark.Lanes)

	if after != before-1 {
		t.Fatalf("lane count after toggling off one algorithm = %d, want %d", after, before-1)
	}
}

func TestTogglePackPositionsMovesAgentsToSharedCell(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 14)
	s.EnterBenchmarkMode()

	s.TogglePackPositions()

	targetCell := s.Benchmark.Lanes[0].SpawnCell
	tx, ty := s.Benchmark.Maze.Grid.GridToWorld(targetCell)
	for _, lane := range s.Benchmark.Lanes {
		for _, idx := range lane.AgentIndices {
			a := s.Benchmark.Pool.At(idx)
			if a.X != tx || a.Y != ty {
				t.Fatalf("agent %d not packed to shared cell: (%v, %v) want (%v, %v)", idx, a.X, a.Y, tx, ty)
			}
		}
	}

	s.TogglePackPositions()
	for _, lane := range s.Benchmark.Lanes {
		for _, idx := range lane.AgentIndices {
			a := s.Benchmark.Pool.At(idx)
			if a.X != a.BenchmarkSpawnX || a.Y != a.BenchmarkSpawnY {
				t.Fatalf("agent %d not restored to its own spawn cell after untoggling", idx)
			}
		}
	}
}

func TestSetDifficultyRegeneratesMaze(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 15)
	s.EnterBenchmarkMode()

	s.SetDifficulty(0.7)
	if s.cfg.Benchmark.Difficulty != 0.7 {
		t.Fatalf("SetDifficulty did not update cfg.Benchmark.Difficulty")
	}
	if s.Benchmark == nil {
		t.Fatalf("expected a regenerated harness after SetDifficulty")
	}
}

func TestEnableTelemetryFlushesAfterWindowElapses(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 16)

	speciesNames := make([]string, len(cfg.Species))
	for i, sp := range cfg.Species {
		speciesNames[i] = sp.Name
	}
	dt := 1.0 / 10.0
	s.EnableTelemetry(speciesNames, 1.0, dt) // 10 ticks per window

	for i := 0; i < 9; i++ {
		if err := s.Step(dt); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
		if s.ShouldFlushTelemetry() {
			t.Fatalf("telemetry window flushed early at tick %d", i+1)
		}
	}

	if err := s.Step(dt); err != nil {
		t.Fatalf("Step returned error: %v", err)
	}
	if !s.ShouldFlushTelemetry() {
		t.Fatalf("expected telemetry window to be due after 10 ticks")
	}

	win, species := s.FlushTelemetry()
	if win.WindowEndTick != 10 {
		t.Fatalf("window end tick = %d, want 10", win.WindowEndTick)
	}
	if len(species) != len(cfg.Species) {
		t.Fatalf("species rows = %d, want %d", len(species), len(cfg.Species))
	}
	if s.ShouldFlushTelemetry() {
		t.Fatalf("telemetry window should not be immediately due again after a flush")
	}
}

func TestEnablePerfRecordsTickTiming(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 17)
	s.EnablePerf(30)

	for i := 0; i < 5; i++ {
		if err := s.Step(1.0 / 30); err != nil {
			t.Fatalf("Step returned error: %v", err)
		}
	}

	stats := s.PerfStats()
	if stats.AvgTickDuration <= 0 {
		t.Fatalf("expected positive average tick duration once perf is enabled")
	}
	if _, ok := stats.PhaseAvg["scheduler"]; !ok {
		t.Fatalf("expected scheduler phase to be tracked")
	}
}

func TestPerfStatsZeroValueWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg, 18)

	if stats := s.PerfStats(); stats.AvgTickDuration != 0 {
		t.Fatalf("expected zero perf stats when EnablePerf was never called")
	}
}
