// Command physarumsim is a headless runner: it loads a configuration,
// builds a Simulation, steps it a fixed number of ticks (or forever), and
// appends CSV telemetry rows to the -output directory at each telemetry
// flush (nothing is written when -output is empty). There is no renderer in this repo;
// a GUI front end is a separate, out-of-scope collaborator per spec.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/internal/simlog"
	"github.com/pthm-cable/physarum/sim"
	"github.com/pthm-cable/physarum/telemetry"
)

// tickDt is the fixed simulation timestep; nothing in config exposes a
// variable frame rate, so the CLI's -speed flag scales how many of these
// fixed-size ticks run per reporting interval rather than the tick size
// itself.
const tickDt = 1.0 / 60.0

var (
	configPath  = flag.String("config", "", "path to a YAML config overriding the embedded defaults")
	ticks       = flag.Int("ticks", 0, "stop after N ticks (0 = run forever)")
	speed       = flag.Int("speed", 1, "ticks to run per reporting interval")
	logInterval = flag.Int("log", 0, "log basic progress every N ticks (0 = disabled)")
	logDetail   = flag.Bool("log-detail", false, "enable per-tick detail logging")
	logFile     = flag.String("logfile", "", "write logs to this file instead of stdout")
	perfEnabled = flag.Bool("perf", false, "enable performance timing and perf.csv output")
	benchmarkFl = flag.Bool("benchmark", false, "run the pathfinder benchmark harness instead of the main pipeline")
	seed        = flag.Int64("seed", 1, "deterministic RNG seed")
	speciesCap  = flag.Int("species", 0, "limit the catalog to the first N species (0 = all configured species)")
	agents      = flag.Int("agents", 0, "override initial_agents_per_species (0 = use config value)")
	outputDir   = flag.String("output", "", "directory to write telemetry/species/perf/bookmark CSVs and config.yaml (empty = disabled)")
)

func main() {
	flag.Parse()

	if *logFile != "" {
		f, err := os.Create(*logFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "creating log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		simlog.SetWriter(f)
	}
	switch {
	case *logDetail:
		simlog.SetLevel(simlog.Detail)
	case *logInterval > 0:
		simlog.SetLevel(simlog.Basic)
	default:
		simlog.SetLevel(simlog.Off)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}
	if *speciesCap > 0 && *speciesCap < len(cfg.Species) {
		cfg.Species = cfg.Species[:*speciesCap]
	}
	if *agents > 0 {
		cfg.World.InitialAgentsPerSpecies = *agents
	}

	s := sim.New(cfg, *seed)
	if *benchmarkFl {
		s.EnterBenchmarkMode()
		s.StartBenchmark()
	}
	if *perfEnabled {
		s.EnablePerf(120)
	}

	speciesNames := make([]string, len(cfg.Species))
	for i, sp := range cfg.Species {
		speciesNames[i] = sp.Name
	}
	s.EnableTelemetry(speciesNames, 1.0, tickDt)
	detector := telemetry.NewBookmarkDetector(20, len(cfg.Species), 5, 0.02)

	out, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up output directory: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "writing config.yaml: %v\n", err)
	}

	simlog.Logf("starting physarumsim: ticks=%d species=%d agents/species=%d benchmark=%v",
		*ticks, len(cfg.Species), cfg.World.InitialAgentsPerSpecies, *benchmarkFl)

	startTime := time.Now()
	var ran int64
	for *ticks <= 0 || ran < int64(*ticks) {
		for i := 0; i < *speed && (*ticks <= 0 || ran < int64(*ticks)); i++ {
			if err := s.Step(tickDt); err != nil {
				fmt.Fprintf(os.Stderr, "step %d: %v\n", ran, err)
				os.Exit(1)
			}
			ran++

			if s.ShouldFlushTelemetry() {
				win, species := s.FlushTelemetry()
				out.WriteTelemetry(win)
				out.WriteSpecies(species)
				for _, b := range detector.Check(win, species) {
					b.LogBookmark()
					out.WriteBookmark(b)
				}
			}
			if *perfEnabled {
				out.WritePerf(s.PerfStats(), ran)
			}
			if *logInterval > 0 && ran%int64(*logInterval) == 0 {
				simlog.Logf("tick %d: pop=%d", ran, s.Pool.Len())
			}
		}
	}

	elapsed := time.Since(startTime)
	simlog.Logf("completed %d ticks in %s (%.0f ticks/sec)", ran, elapsed.Round(time.Millisecond), float64(ran)/elapsed.Seconds())
}
