package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/spatial"
)

// WindowStats holds world-level aggregated statistics for one telemetry
// window: the population/species counters a CSV reader wants one row per
// window for, independent of per-species breakdown (see SpeciesStats for
// that).
type WindowStats struct {
	WindowEndTick int64   `csv:"window_end_tick"`
	SimTimeSec    float64 `csv:"sim_time_sec"`

	TotalPopulation int `csv:"total_population"`

	Births        int `csv:"births"`
	Deaths        int `csv:"deaths"`
	Rebirths      int `csv:"rebirths"`
	SporeBursts   int `csv:"spore_bursts"`
	AsexualSplits int `csv:"asexual_splits"`
	SexualMatings int `csv:"sexual_matings"`

	CumulativeDeaths        int `csv:"cumulative_deaths"`
	CumulativeRebirths      int `csv:"cumulative_rebirths"`
	CumulativeSporeBursts   int `csv:"cumulative_spore_bursts"`
	CumulativeAsexualSplits int `csv:"cumulative_asexual_splits"`
	CumulativeSexualMatings int `csv:"cumulative_sexual_matings"`

	GenomeTraitMean     float64 `csv:"genome_trait_mean"`
	GenomeTraitVariance float64 `csv:"genome_trait_variance"`
	MeanPairwiseDist    float64 `csv:"mean_pairwise_distance"`
}

// SpeciesStats is one species' row within a telemetry window.
type SpeciesStats struct {
	WindowEndTick int64  `csv:"window_end_tick"`
	SpeciesIndex  int    `csv:"species_index"`
	SpeciesName   string `csv:"species_name"`

	Population int `csv:"population"`

	Deaths        int `csv:"deaths"`
	Rebirths      int `csv:"rebirths"`
	SporeBursts   int `csv:"spore_bursts"`
	AsexualSplits int `csv:"asexual_splits"`
	SexualMatings int `csv:"sexual_matings"`
}

// Percentile computes the p-th percentile (p in [0, 1]) of a sorted slice
// via linear interpolation between the two bracketing ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistributionStats returns the mean and the 10th/50th/90th
// percentiles of values, used for any per-window value the caller wants a
// spread summary of (energy, age, and so on).
func ComputeDistributionStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(values, nil)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	return mean, Percentile(sorted, 0.10), Percentile(sorted, 0.50), Percentile(sorted, 0.90)
}

// GenomeTraitStats flattens every live agent's nine genome trait multipliers
// into a single sample and returns its mean and variance, used to watch
// genetic drift over a run without tracking each trait separately.
func GenomeTraitStats(pool *agent.Pool) (mean, variance float64) {
	n := pool.Len()
	if n == 0 {
		return 0, 0
	}
	traits := make([]float64, 0, n*9)
	for i := 0; i < n; i++ {
		a := pool.At(i)
		if !a.HasGenome {
			continue
		}
		g := a.Genome
		traits = append(traits,
			g.MoveSpeedScale, g.TurnSpeedScale, g.SensorAngleScale, g.SensorDistScale,
			g.AlignWeightScale, g.CohesionWeightScale, g.SeparationWeightScale,
			g.OscStrengthScale, g.OscFreqScale,
		)
	}
	if len(traits) == 0 {
		return 0, 0
	}
	mean = stat.Mean(traits, nil)
	if len(traits) < 2 {
		return mean, 0
	}
	variance = stat.Variance(traits, nil)
	return mean, variance
}

// MeanPairwiseDistance returns the mean toroidal distance between every
// live agent pair, the metric the two-agent attract-pair scenario watches
// to confirm species with strong self-attraction actually converge.
func MeanPairwiseDistance(pool *agent.Pool, worldW, worldH float64) float64 {
	n := pool.Len()
	if n < 2 {
		return 0
	}

	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		a := pool.At(i)
		for j := i + 1; j < n; j++ {
			b := pool.At(j)
			dx := spatial.ToroidalDelta(a.X, b.X, worldW)
			dy := spatial.ToroidalDelta(a.Y, b.Y, worldH)
			sum += math.Hypot(dx, dy)
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}
