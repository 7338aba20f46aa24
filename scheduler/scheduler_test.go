package scheduler

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/spatial"
	"github.com/pthm-cable/physarum/species"
	"github.com/pthm-cable/physarum/step"
	"github.com/pthm-cable/physarum/trail"
)

func flatPolicy() species.Policy {
	return species.Policy{Archetype: species.Bully, MoveSpeed: 1, TurnSpeed: 0}
}

func newPopulatedPool(n int) *agent.Pool {
	pool := agent.NewPool(n)
	for i := 0; i < n; i++ {
		pool.Add(agent.Agent{X: float64(i % 50), Y: float64(i / 50), Energy: 1, LifespanSeconds: 1e9})
	}
	return pool
}

func TestEqualChunksCoverEveryIndexExactlyOnce(t *testing.T) {
	chunks := equalChunks(97, 4)
	seen := make([]bool, 97)
	for _, c := range chunks {
		for i := c.start; i < c.end; i++ {
			if seen[i] {
				t.Fatalf("index %d covered twice", i)
			}
			seen[i] = true
		}
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("index %d never covered", i)
		}
	}
}

func TestFixedSizeChunksCoverEveryIndexExactlyOnce(t *testing.T) {
	chunks := fixedSizeChunks(103, 10)
	seen := make([]bool, 103)
	for _, c := range chunks {
		for i := c.start; i < c.end; i++ {
			seen[i] = true
		}
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("index %d never covered", i)
		}
	}
}

func TestGuidedChunksCoverEveryIndexExactlyOnceAndShrink(t *testing.T) {
	chunks := guidedChunks(200, 4, 4)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple guided chunks, got %d", len(chunks))
	}
	seen := make([]bool, 200)
	prevSize := chunks[0].end - chunks[0].start
	for _, c := range chunks {
		for i := c.start; i < c.end; i++ {
			seen[i] = true
		}
		size := c.end - c.start
		if size > prevSize+1 {
			t.Fatalf("guided chunk size grew: prev=%d got=%d", prevSize, size)
		}
		prevSize = size
	}
	for i, s := range seen {
		if !s {
			t.Fatalf("index %d never covered", i)
		}
	}
}

func TestRunAdvancesEveryAgentExactlyOnce(t *testing.T) {
	pool := newPopulatedPool(500)
	policies := []species.Policy{flatPolicy()}
	field := trail.NewField(64, 64, 1)
	grid := spatial.NewGrid(8, 64, 64)
	grid.Rebuild(pool.Len(), func(i int) (float64, float64) { return pool.At(i).X, pool.At(i).Y })
	w := step.World{Width: 64, Height: 64}

	for _, policyName := range []string{"static", "dynamic", "guided"} {
		cfg := config.SchedulerConfig{ChunkPolicy: policyName, WorkerCount: 3, DynamicChunkSize: 17, GuidedChunkDivisor: 3}
		sched := New(cfg, rand.New(rand.NewSource(42)))

		beforeStateTimer := make([]float64, pool.Len())
		for i := 0; i < pool.Len(); i++ {
			beforeStateTimer[i] = pool.At(i).StateTimer
		}

		if err := sched.Run(context.Background(), pool, policies, field, grid, w, 1.0); err != nil {
			t.Fatalf("policy %s: Run returned error: %v", policyName, err)
		}

		for i := 0; i < pool.Len(); i++ {
			got := pool.At(i).StateTimer
			if math.Abs(got-(beforeStateTimer[i]+1.0)) > 1e-9 {
				t.Fatalf("policy %s: agent %d StateTimer = %v, want advanced by exactly 1.0 step", policyName, i, got)
			}
		}

		m := sched.Metrics()
		if m.RunCount != 1 || m.OpCount != int64(pool.Len()) {
			t.Fatalf("policy %s: metrics = %+v, want RunCount=1 OpCount=%d", policyName, m, pool.Len())
		}
	}
}

func TestMetricsAccumulateAcrossRuns(t *testing.T) {
	pool := newPopulatedPool(50)
	policies := []species.Policy{flatPolicy()}
	field := trail.NewField(32, 32, 1)
	grid := spatial.NewGrid(8, 32, 32)
	w := step.World{Width: 32, Height: 32}
	cfg := config.SchedulerConfig{ChunkPolicy: "static", WorkerCount: 2}
	sched := New(cfg, rand.New(rand.NewSource(7)))

	for i := 0; i < 5; i++ {
		grid.Rebuild(pool.Len(), func(i int) (float64, float64) { return pool.At(i).X, pool.At(i).Y })
		if err := sched.Run(context.Background(), pool, policies, field, grid, w, 1.0); err != nil {
			t.Fatalf("Run %d returned error: %v", i, err)
		}
	}

	m := sched.Metrics()
	if m.RunCount != 5 {
		t.Fatalf("RunCount = %d, want 5", m.RunCount)
	}
	if m.OpCount != 250 {
		t.Fatalf("OpCount = %d, want 250", m.OpCount)
	}
	if m.MinNs > m.MaxNs {
		t.Fatalf("MinNs %d > MaxNs %d", m.MinNs, m.MaxNs)
	}
	if m.Average() <= 0 {
		t.Fatalf("Average() = %v, want > 0", m.Average())
	}
}

func TestWorkerCountZeroResolvesToAtLeastOne(t *testing.T) {
	sched := New(config.SchedulerConfig{WorkerCount: 0}, rand.New(rand.NewSource(1)))
	if sched.numWorkers < 1 {
		t.Fatalf("numWorkers = %d, want >= 1", sched.numWorkers)
	}
}

func TestParseChunkPolicyFallsBackToStatic(t *testing.T) {
	if ParseChunkPolicy("not-a-policy") != Static {
		t.Fatalf("unknown chunk policy name should fall back to Static")
	}
}
