// Package scheduler implements the Parallel Scheduler (spec 4.6): a
// worker pool that fans the per-agent step pipeline out across the agent
// pool, partitioned by one of three chunk policies, rejoining only at the
// end of a step.
package scheduler

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/spatial"
	"github.com/pthm-cable/physarum/species"
	"github.com/pthm-cable/physarum/step"
	"github.com/pthm-cable/physarum/trail"
)

// ChunkPolicy selects how the agent pool is partitioned across workers.
type ChunkPolicy int

const (
	Static  ChunkPolicy = iota // one equal-sized chunk per worker
	Dynamic                    // many small fixed-size chunks, consumed work-stealing style
	Guided                     // chunks shrink geometrically from large to small
)

// ParseChunkPolicy maps a config chunk-policy name to its constant; unknown
// names fall back to Static.
func ParseChunkPolicy(s string) ChunkPolicy {
	switch s {
	case "dynamic":
		return Dynamic
	case "guided":
		return Guided
	default:
		return Static
	}
}

// Metrics tracks the scheduler's running execution-time statistics and
// operation count (spec 4.6).
type Metrics struct {
	RunCount int64
	TotalNs  int64
	MinNs    int64
	MaxNs    int64
	OpCount  int64
}

func (m *Metrics) observe(d time.Duration, ops int) {
	ns := d.Nanoseconds()
	m.RunCount++
	m.TotalNs += ns
	if m.MinNs == 0 || ns < m.MinNs {
		m.MinNs = ns
	}
	if ns > m.MaxNs {
		m.MaxNs = ns
	}
	m.OpCount += int64(ops)
}

// Average returns the mean execution time per Run call observed so far.
func (m Metrics) Average() time.Duration {
	if m.RunCount == 0 {
		return 0
	}
	return time.Duration(m.TotalNs / m.RunCount)
}

// Scheduler owns the worker pool and one thread-local RNG per worker, never
// a shared global generator, so Advance calls across workers never race on
// RNG state.
type Scheduler struct {
	policy        ChunkPolicy
	numWorkers    int
	dynamicChunk  int
	guidedDivisor int
	workerRNG     []*rand.Rand
	metrics       Metrics
}

// New builds a scheduler from SchedulerConfig. parentRNG seeds one
// independent generator per worker deterministically, so re-running with
// the same parent seed reproduces the same per-worker streams. A
// WorkerCount of 0 resolves to max(1, GOMAXPROCS-1) per spec 4.6.
func New(cfg config.SchedulerConfig, parentRNG *rand.Rand) *Scheduler {
	workers := cfg.WorkerCount
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0) - 1
	}
	if workers < 1 {
		workers = 1
	}

	rngs := make([]*rand.Rand, workers)
	for i := range rngs {
		rngs[i] = rand.New(rand.NewSource(parentRNG.Int63()))
	}

	dynamicChunk := cfg.DynamicChunkSize
	if dynamicChunk <= 0 {
		dynamicChunk = 32
	}
	guidedDivisor := cfg.GuidedChunkDivisor
	if guidedDivisor <= 0 {
		guidedDivisor = 4
	}

	return &Scheduler{
		policy:        ParseChunkPolicy(cfg.ChunkPolicy),
		numWorkers:    workers,
		dynamicChunk:  dynamicChunk,
		guidedDivisor: guidedDivisor,
		workerRNG:     rngs,
	}
}

// Metrics returns a snapshot of the running execution-time statistics.
func (s *Scheduler) Metrics() Metrics { return s.metrics }

// chunkRange is a half-open [start, end) slice of pool indices.
type chunkRange struct{ start, end int }

func (s *Scheduler) chunks(n int) []chunkRange {
	switch s.policy {
	case Dynamic:
		return fixedSizeChunks(n, s.dynamicChunk)
	case Guided:
		return guidedChunks(n, s.numWorkers, s.guidedDivisor)
	default:
		return equalChunks(n, s.numWorkers)
	}
}

func equalChunks(n, workers int) []chunkRange {
	if workers < 1 {
		workers = 1
	}
	size := (n + workers - 1) / workers
	return fixedSizeChunks(n, size)
}

func fixedSizeChunks(n, size int) []chunkRange {
	if size < 1 {
		size = 1
	}
	out := make([]chunkRange, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, chunkRange{start, end})
	}
	return out
}

// guidedChunks mimics OpenMP's guided schedule: each chunk is a fraction of
// the remaining work, so chunk size shrinks geometrically from large (good
// cache locality early) to small (fine load balance near the end).
func guidedChunks(n, workers, divisor int) []chunkRange {
	if workers < 1 {
		workers = 1
	}
	if divisor < 1 {
		divisor = 1
	}
	var out []chunkRange
	start := 0
	for start < n {
		remaining := n - start
		size := remaining / (workers * divisor)
		if size < 1 {
			size = 1
		}
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, chunkRange{start, end})
		start = end
	}
	return out
}

// Run advances every agent in pool through the step pipeline, partitioned
// across the worker pool per the configured chunk policy, then records one
// execution-time observation for the whole parallel phase. Under Static,
// worker k runs equal chunk k; the other policies hand chunks out through a
// shared work channel, which is the only suspension point. Workers rejoin
// when Run returns, and the caller runs population dynamics serially
// afterward.
func (s *Scheduler) Run(ctx context.Context, pool *agent.Pool, policies []species.Policy, field *trail.Field, grid *spatial.Grid, w step.World, dt float64) error {
	start := time.Now()
	n := pool.Len()
	defer func() { s.metrics.observe(time.Since(start), n) }()

	if n == 0 {
		return nil
	}

	chunks := s.chunks(n)
	work := make(chan chunkRange, len(chunks))
	for _, c := range chunks {
		work <- c
	}
	close(work)

	g, _ := errgroup.WithContext(ctx)
	for wi := 0; wi < s.numWorkers; wi++ {
		workerID := wi
		g.Go(func() error {
			rng := s.workerRNG[workerID]
			if s.policy == Static {
				if workerID < len(chunks) {
					c := chunks[workerID]
					for i := c.start; i < c.end; i++ {
						step.Advance(pool, i, policies, field, grid, w, dt, rng)
					}
				}
				return nil
			}
			for c := range work {
				for i := c.start; i < c.end; i++ {
					step.Advance(pool, i, policies, field, grid, w, dt, rng)
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			return nil
		})
	}
	return g.Wait()
}
