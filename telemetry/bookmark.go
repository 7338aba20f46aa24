package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the kind of milestone detected in a run.
type BookmarkType string

const (
	BookmarkSpeciesExtinction BookmarkType = "species_extinction"
	BookmarkPopulationCrash   BookmarkType = "population_crash"
	BookmarkRescueWave        BookmarkType = "rescue_wave"
	BookmarkStableCoexistence BookmarkType = "stable_coexistence"
)

// Bookmark is one automatically-detected milestone.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	WindowEndTick int64      `csv:"window_end_tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"window_end_tick", b.WindowEndTick,
		"description", b.Description,
	)
}

// BookmarkDetector watches a rolling history of per-species population
// windows for notable population-dynamics events: a species dying out, a
// sudden total-population crash, a rescue wave of rebirths pulling a species
// back from its floor, or several species coexisting with low variance for
// a run.
type BookmarkDetector struct {
	historySize int
	history     []WindowStats
	historyIdx  int
	historyFull bool

	recentPeak        int
	extinct           []bool
	stableWindowCount int

	stableWindows     int
	stableCVThreshold float64
}

// NewBookmarkDetector creates a detector over numSpecies species with the
// given rolling-history size (minimum 5, needed for stable-coexistence
// detection) and a stable-coexistence window count / coefficient-of-
// variation threshold.
func NewBookmarkDetector(historySize, numSpecies, stableWindows int, stableCVThreshold float64) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5
	}
	return &BookmarkDetector{
		historySize:       historySize,
		history:           make([]WindowStats, historySize),
		extinct:           make([]bool, numSpecies),
		stableWindows:     stableWindows,
		stableCVThreshold: stableCVThreshold,
	}
}

// Check analyzes one window's world stats plus its per-species breakdown and
// returns every milestone that triggered.
func (bd *BookmarkDetector) Check(win WindowStats, species []SpeciesStats) []Bookmark {
	var out []Bookmark

	for i, s := range species {
		if s.Population == 0 && !bd.extinct[i] {
			bd.extinct[i] = true
			out = append(out, Bookmark{
				Type:          BookmarkSpeciesExtinction,
				WindowEndTick: win.WindowEndTick,
				Description:   fmt.Sprintf("species %q (index %d) went extinct", s.SpeciesName, i),
			})
		}
		if s.Population > 0 && s.Rebirths >= 3 {
			out = append(out, Bookmark{
				Type:          BookmarkRescueWave,
				WindowEndTick: win.WindowEndTick,
				Description:   fmt.Sprintf("species %q rebirthed %d agents this window, near its population floor", s.SpeciesName, s.Rebirths),
			})
		}
	}

	if win.TotalPopulation > bd.recentPeak {
		bd.recentPeak = win.TotalPopulation
	} else if bd.recentPeak > 0 {
		drop := 1 - float64(win.TotalPopulation)/float64(bd.recentPeak)
		if drop > 0.4 {
			out = append(out, Bookmark{
				Type:          BookmarkPopulationCrash,
				WindowEndTick: win.WindowEndTick,
				Description:   fmt.Sprintf("total population dropped %.0f%% from peak %d to %d", drop*100, bd.recentPeak, win.TotalPopulation),
			})
			bd.recentPeak = win.TotalPopulation
		}
	}

	if b := bd.checkStableCoexistence(win, species); b != nil {
		out = append(out, *b)
	}

	bd.addToHistory(win)
	return out
}

func (bd *BookmarkDetector) checkStableCoexistence(win WindowStats, species []SpeciesStats) *Bookmark {
	allAlive := true
	for _, s := range species {
		if s.Population == 0 {
			allAlive = false
			break
		}
	}
	if !allAlive {
		bd.stableWindowCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history
	if len(recent) > 4 {
		recent = recent[len(recent)-4:]
	}
	var sum float64
	for _, h := range recent {
		sum += float64(h.TotalPopulation)
	}
	mean := sum / float64(len(recent))

	var variance float64
	for _, h := range recent {
		d := float64(h.TotalPopulation) - mean
		variance += d * d
	}
	variance /= float64(len(recent))

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}

	if cv < bd.stableCVThreshold {
		bd.stableWindowCount++
	} else {
		bd.stableWindowCount = 0
	}

	if bd.stableWindowCount == bd.stableWindows {
		return &Bookmark{
			Type:          BookmarkStableCoexistence,
			WindowEndTick: win.WindowEndTick,
			Description:   fmt.Sprintf("all %d species coexisting with low population variance over %d+ windows", len(species), bd.stableWindows),
		}
	}
	return nil
}

func (bd *BookmarkDetector) addToHistory(win WindowStats) {
	bd.history[bd.historyIdx] = win
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}
