package sim

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/genome"
	"github.com/pthm-cable/physarum/species"
)

// SpawnMode selects how the agent factory lays out a fresh population.
type SpawnMode int

const (
	SpawnPoint SpawnMode = iota
	SpawnRandom
	SpawnInwardCircle
	SpawnRandomCircle
	SpawnClusters
)

var spawnModeNames = map[string]SpawnMode{
	"point":         SpawnPoint,
	"random":        SpawnRandom,
	"inward_circle": SpawnInwardCircle,
	"random_circle": SpawnRandomCircle,
	"clusters":      SpawnClusters,
}

// ParseSpawnMode maps a config spawn-mode name to its constant; unknown
// names fall back to Random.
func ParseSpawnMode(name string) SpawnMode {
	if m, ok := spawnModeNames[name]; ok {
		return m
	}
	return SpawnRandom
}

const clusterColonyCentralFraction = 0.8 // colonies seed within the central 80% of the world
const clusterJitter = 30.0               // world units
const clusterMinColonies = 1
const clusterMaxColonies = 3

// spawnPopulation fills pool with initialAgentsPerSpecies agents per species,
// laid out per mode. nextID advances once per agent created; the stored
// logical ID is the one pool.Add assigns.
func spawnPopulation(pool *agent.Pool, cfg *config.Config, policies []species.Policy, mode SpawnMode, worldW, worldH float64, rng *rand.Rand, nextID *int64) {
	n := cfg.World.InitialAgentsPerSpecies
	for speciesIdx, p := range policies {
		switch mode {
		case SpawnClusters:
			spawnClusterColonies(pool, speciesIdx, p, n, worldW, worldH, rng, nextID)
		default:
			for i := 0; i < n; i++ {
				x, y := spawnPoint(mode, worldW, worldH, rng)
				pool.Add(newAgent(speciesIdx, p, x, y, rng, nextID))
			}
		}
	}
}

// spawnPoint resolves a single (x, y) for the non-cluster spawn modes.
func spawnPoint(mode SpawnMode, worldW, worldH float64, rng *rand.Rand) (float64, float64) {
	cx, cy := worldW/2, worldH/2
	switch mode {
	case SpawnPoint:
		return cx, cy
	case SpawnInwardCircle:
		radius := math.Min(worldW, worldH) * 0.45
		angle := rng.Float64() * 2 * math.Pi
		return cx + math.Cos(angle)*radius, cy + math.Sin(angle)*radius
	case SpawnRandomCircle:
		radius := rng.Float64() * math.Min(worldW, worldH) * 0.45
		angle := rng.Float64() * 2 * math.Pi
		return cx + math.Cos(angle)*radius, cy + math.Sin(angle)*radius
	default: // SpawnRandom
		return rng.Float64() * worldW, rng.Float64() * worldH
	}
}

// spawnClusterColonies seeds 1-3 colonies for one species in the central 80%
// of the world and distributes n agents evenly among them with +-30 unit
// jitter, staggering each agent's age into [0, 90% of lifespan].
func spawnClusterColonies(pool *agent.Pool, speciesIdx int, p species.Policy, n int, worldW, worldH float64, rng *rand.Rand, nextID *int64) {
	numColonies := clusterMinColonies + rng.Intn(clusterMaxColonies-clusterMinColonies+1)
	marginW := worldW * (1 - clusterColonyCentralFraction) / 2
	marginH := worldH * (1 - clusterColonyCentralFraction) / 2
	innerW := worldW * clusterColonyCentralFraction
	innerH := worldH * clusterColonyCentralFraction

	colonies := make([][2]float64, numColonies)
	for i := range colonies {
		colonies[i] = [2]float64{
			marginW + rng.Float64()*innerW,
			marginH + rng.Float64()*innerH,
		}
	}

	for i := 0; i < n; i++ {
		colony := colonies[i%numColonies]
		x := colony[0] + (rng.Float64()*2-1)*clusterJitter
		y := colony[1] + (rng.Float64()*2-1)*clusterJitter
		a := newAgent(speciesIdx, p, x, y, rng, nextID)
		a.AgeSeconds = rng.Float64() * 0.9 * p.Dynamics.LifespanSeconds
		pool.Add(a)
	}
}

// newAgent builds one freshly-spawned agent for species p at (x, y), with a
// random heading, a random genome, and per-species kinematics cached from
// the policy at spawn time so the per-step pipeline never re-reads policy
// fields it doesn't need to.
func newAgent(speciesIdx int, p species.Policy, x, y float64, rng *rand.Rand, nextID *int64) agent.Agent {
	id := *nextID
	*nextID++

	g := genome.Random(rng)
	return agent.Agent{
		X: x, Y: y,
		Heading:         rng.Float64() * 2 * math.Pi,
		SpeciesIndex:    speciesIdx,
		OriginalSpecies: speciesIdx,
		Energy:          0.8,
		ID:              id,
		LifespanSeconds: p.Dynamics.LifespanSeconds,
		HasGenome:       true,
		Genome:          g,
		MoveSpeed:       p.MoveSpeed * g.MoveSpeedScale,
		TurnSpeed:       p.TurnSpeed * g.TurnSpeedScale,
		SensorRange:     p.SensorOffset * g.SensorDistScale,
		SensorAngle:     p.SensorAngle * g.SensorAngleScale,
		MaxTurnPerStep:  p.MaxTurnPerStep,
	}
}
