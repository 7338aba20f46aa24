package telemetry

import (
	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/population"
)

// Collector accumulates per-step population-dynamics audit counters within a
// time window and produces a WindowStats plus one SpeciesStats row per
// species when flushed.
type Collector struct {
	windowDurationTicks int64
	windowStartTick     int64
	dt                  float64

	speciesNames []string

	windowDeaths        []int
	windowRebirths      []int
	windowSporeBursts   []int
	windowAsexualSplits []int
	windowSexualMatings []int
	windowBirths        int

	cumulativeDeaths        []int
	cumulativeRebirths      []int
	cumulativeSporeBursts   []int
	cumulativeAsexualSplits []int
	cumulativeSexualMatings []int
}

// NewCollector creates a collector for numSpecies species. windowDurationSec
// is how long each window lasts in simulation seconds; dt is seconds per
// tick.
func NewCollector(speciesNames []string, windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int64(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	n := len(speciesNames)
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		speciesNames:        speciesNames,
		windowDeaths:        make([]int, n),
		windowRebirths:      make([]int, n),
		windowSporeBursts:   make([]int, n),
		windowAsexualSplits: make([]int, n),
		windowSexualMatings: make([]int, n),
		cumulativeDeaths:    make([]int, n),
		cumulativeRebirths:  make([]int, n),
		cumulativeSporeBursts:   make([]int, n),
		cumulativeAsexualSplits: make([]int, n),
		cumulativeSexualMatings: make([]int, n),
	}
}

// Record folds one step's population.Stats into the current window and the
// running cumulative totals (spec 12's audit counters).
func (c *Collector) Record(stats population.Stats) {
	c.windowBirths += stats.Births
	for i := range c.speciesNames {
		c.windowDeaths[i] += stats.Deaths[i]
		c.windowRebirths[i] += stats.Rebirths[i]
		c.windowSporeBursts[i] += stats.SporeBursts[i]
		c.windowAsexualSplits[i] += stats.AsexualSplits[i]
		c.windowSexualMatings[i] += stats.SexualMatings[i]

		c.cumulativeDeaths[i] += stats.Deaths[i]
		c.cumulativeRebirths[i] += stats.Rebirths[i]
		c.cumulativeSporeBursts[i] += stats.SporeBursts[i]
		c.cumulativeAsexualSplits[i] += stats.AsexualSplits[i]
		c.cumulativeSexualMatings[i] += stats.SexualMatings[i]
	}
}

// ShouldFlush reports whether enough ticks have passed since the window
// started to flush it.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces the window's WindowStats and per-species SpeciesStats rows,
// then resets the window counters (cumulative totals carry forward).
func (c *Collector) Flush(currentTick int64, pool *agent.Pool, worldW, worldH float64) (WindowStats, []SpeciesStats) {
	traitMean, traitVar := GenomeTraitStats(pool)

	var totalDeaths, totalRebirths, totalSpores, totalSplits, totalMatings int
	var cumDeaths, cumRebirths, cumSpores, cumSplits, cumMatings int
	species := make([]SpeciesStats, len(c.speciesNames))
	liveBySpecies := make([]int, len(c.speciesNames))
	pool.CountBySpecies(liveBySpecies)

	for i, name := range c.speciesNames {
		totalDeaths += c.windowDeaths[i]
		totalRebirths += c.windowRebirths[i]
		totalSpores += c.windowSporeBursts[i]
		totalSplits += c.windowAsexualSplits[i]
		totalMatings += c.windowSexualMatings[i]

		cumDeaths += c.cumulativeDeaths[i]
		cumRebirths += c.cumulativeRebirths[i]
		cumSpores += c.cumulativeSporeBursts[i]
		cumSplits += c.cumulativeAsexualSplits[i]
		cumMatings += c.cumulativeSexualMatings[i]

		species[i] = SpeciesStats{
			WindowEndTick: currentTick,
			SpeciesIndex:  i,
			SpeciesName:   name,
			Population:    liveBySpecies[i],
			Deaths:        c.windowDeaths[i],
			Rebirths:      c.windowRebirths[i],
			SporeBursts:   c.windowSporeBursts[i],
			AsexualSplits: c.windowAsexualSplits[i],
			SexualMatings: c.windowSexualMatings[i],
		}
	}

	win := WindowStats{
		WindowEndTick:           currentTick,
		SimTimeSec:              float64(currentTick) * c.dt,
		TotalPopulation:         pool.Len(),
		Births:                  c.windowBirths,
		Deaths:                  totalDeaths,
		Rebirths:                totalRebirths,
		SporeBursts:             totalSpores,
		AsexualSplits:           totalSplits,
		SexualMatings:           totalMatings,
		CumulativeDeaths:        cumDeaths,
		CumulativeRebirths:      cumRebirths,
		CumulativeSporeBursts:   cumSpores,
		CumulativeAsexualSplits: cumSplits,
		CumulativeSexualMatings: cumMatings,
		GenomeTraitMean:         traitMean,
		GenomeTraitVariance:     traitVar,
		MeanPairwiseDist:        MeanPairwiseDistance(pool, worldW, worldH),
	}

	c.windowStartTick = currentTick
	c.windowBirths = 0
	for i := range c.speciesNames {
		c.windowDeaths[i] = 0
		c.windowRebirths[i] = 0
		c.windowSporeBursts[i] = 0
		c.windowAsexualSplits[i] = 0
		c.windowSexualMatings[i] = 0
	}

	return win, species
}
