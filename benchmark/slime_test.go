package benchmark

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/pathfind"
	"github.com/pthm-cable/physarum/trail"
)

func newTestField(cfg config.BenchmarkConfig) *trail.Field {
	return trail.NewField(cfg.MazeCols, cfg.MazeRows, 1)
}

func newTestAgent() *agent.Agent {
	return &agent.Agent{BenchmarkAlive: true, BenchmarkEnergy: 1, BenchmarkPrevGoalDistance: -1, BenchmarkWallSlideSign: 1}
}

func TestSlimeEnergyStaysWithinBounds(t *testing.T) {
	cfg := testBenchmarkConfig()
	maze := Generate(cfg, 3)
	field := newTestField(cfg)
	rng := rand.New(rand.NewSource(5))

	spawnX, spawnY := maze.Grid.GridToWorld(firstOpenCell(maze.Grid, cfg.MazeCols, cfg.MazeRows))
	a := newTestAgent()
	a.X, a.Y = spawnX, spawnY
	a.BenchmarkSpawnX, a.BenchmarkSpawnY = spawnX, spawnY

	worldW := float64(cfg.MazeCols) * cfg.CellSizeWorldUnits
	worldH := float64(cfg.MazeRows) * cfg.CellSizeWorldUnits

	for i := 0; i < 500; i++ {
		SlimeStep(a, field, maze.Grid, cfg, maze.Goal, worldW, worldH, rng)
		if a.BenchmarkEnergy < 0 || a.BenchmarkEnergy > cfg.SlimeEnergy.MaxEnergy {
			t.Fatalf("step %d: energy %v out of bounds [0, %v]", i, a.BenchmarkEnergy, cfg.SlimeEnergy.MaxEnergy)
		}
	}
}

func TestSlimeRespawnsAfterEnergyExhaustion(t *testing.T) {
	cfg := testBenchmarkConfig()
	cfg.SlimeEnergy.BaseDrain = 100 // force exhaustion on the very first step
	cfg.RespawnCooldownSecs = 2
	cfg.RespawnPartialEnergy = 0.4

	maze := Generate(cfg, 3)
	field := newTestField(cfg)
	rng := rand.New(rand.NewSource(5))
	worldW := float64(cfg.MazeCols) * cfg.CellSizeWorldUnits
	worldH := float64(cfg.MazeRows) * cfg.CellSizeWorldUnits

	a := newTestAgent()
	a.BenchmarkSpawnX, a.BenchmarkSpawnY = 16, 16
	a.X, a.Y = 16, 16

	SlimeStep(a, field, maze.Grid, cfg, maze.Goal, worldW, worldH, rng)
	if a.BenchmarkAlive {
		t.Fatalf("expected agent to enter respawn cooldown after exhausting energy")
	}

	for i := 0; i < 2; i++ {
		SlimeStep(a, field, maze.Grid, cfg, maze.Goal, worldW, worldH, rng)
	}
	if !a.BenchmarkAlive {
		t.Fatalf("expected agent to respawn after cooldown expired")
	}
	if a.BenchmarkEnergy != cfg.RespawnPartialEnergy {
		t.Fatalf("respawn energy = %v, want %v", a.BenchmarkEnergy, cfg.RespawnPartialEnergy)
	}
	if a.X != 16 || a.Y != 16 {
		t.Fatalf("expected agent to respawn at its spawn point, got (%v,%v)", a.X, a.Y)
	}
}

func TestReinforceRecentPathRampsOldestToNewest(t *testing.T) {
	cfg := testBenchmarkConfig()
	maze := Generate(cfg, 1)
	field := newTestField(cfg)
	a := newTestAgent()

	open := firstOpenCell(maze.Grid, cfg.MazeCols, cfg.MazeRows)
	a.PushPathMemory(agent.GridCell{X: open.X, Y: open.Y})
	a.PushPathMemory(agent.GridCell{X: open.X + 1, Y: open.Y})

	ReinforceRecentPath(a, field, maze.Grid, 1.0)

	oldest := field.Sample(open.X, open.Y, 0)
	newest := field.Sample(open.X+1, open.Y, 0)
	if newest <= oldest {
		t.Fatalf("expected newest cell (%v) to be reinforced more strongly than oldest (%v)", newest, oldest)
	}
}

func firstOpenCell(g *pathfind.Grid, cols, rows int) pathfind.Cell {
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if !g.IsBlocked(x, y) {
				return pathfind.Cell{X: x, Y: y}
			}
		}
	}
	return pathfind.Cell{}
}
