// Package species implements the Species Policy record and the
// eight-archetype sensing/turning/deposit catalog (spec 4.4): deterministic,
// per-species rules for how an agent weighs trail channels and converts
// three sensor samples into a turn.
package species

import "github.com/pthm-cable/physarum/config"

// Archetype keys the sensing/turning/deposit catalog.
type Archetype int

const (
	Bully Archetype = iota
	Altruistic
	Nomad
	Alien
	OrderEnforcer
	Parasitic
	Destroyer
	Devourer
)

var archetypeNames = map[string]Archetype{
	"bully":          Bully,
	"altruistic":     Altruistic,
	"nomad":          Nomad,
	"alien":          Alien,
	"order_enforcer": OrderEnforcer,
	"parasitic":      Parasitic,
	"destroyer":      Destroyer,
	"devourer":       Devourer,
}

// ParseArchetype maps a config archetype name to its catalog entry. Unknown
// names silently fall back to the Default/Bully behavior rather than
// failing the load (spec 4.3: malformed species indices fall back, not
// abort).
func ParseArchetype(name string) Archetype {
	if a, ok := archetypeNames[name]; ok {
		return a
	}
	return Bully
}

// DeathBehavior enumerates the Population Dynamics death taxonomy (spec 4.5).
type DeathBehavior int

const (
	HardDeath DeathBehavior = iota
	Rebirth
	SporeBurst
)

func parseDeathBehavior(s string) DeathBehavior {
	switch s {
	case "rebirth":
		return Rebirth
	case "spore_burst":
		return SporeBurst
	default:
		return HardDeath
	}
}

// Dynamics mirrors config.PopulationDynamicsConfig with string enums
// resolved to typed constants, so the population package never re-parses
// strings on the hot path.
type Dynamics struct {
	DeathBehavior                  DeathBehavior
	LifespanSeconds                float64
	RebirthEnabled                 bool
	RebirthEnergy                  float64
	ConditionalRebirthEnabled      bool
	RebirthPopulationThreshold     float64
	SplitEnabled                   bool
	SplitEnergyThreshold           float64
	SplitCooldownSeconds           float64
	PreDeathBuddingEnabled         bool
	PreDeathBuddingEnergyThreshold float64
	MatingEnabled                  bool
	MatingRadius                   float64
	MatingEnergyCost               float64
	OffspringEnergy                float64
	MatingEnergyBonus              float64
	MatingCooldownSeconds          float64
	CrossSpeciesMatingAllowed      bool
	OnlyMateOtherSpecies           bool
	HybridMutationRate             float64
	SporeCount                     int
	SporeRadius                    float64
	SporeMutationRate              float64
	SporeEnergy                    float64
	FoodEconomy                    config.FoodEconomyConfig
	LegacyEnergyDecayPerSecond     float64
	LegacyNeighborGainPerNeighbor  float64
}

// Policy is the fully-resolved, immutable-for-the-step Species Policy record.
type Policy struct {
	Name      string
	Archetype Archetype
	ColorRGB  [3]uint8

	MoveSpeed       float64
	TurnSpeed       float64 // radians/sec
	SensorAngle     float64 // radians
	SensorOffset    float64
	MaxTurnPerStep  float64 // radians, precomputed from turn speed
	InertiaStiffness float64
	InertiaDamping   float64
	InertiaBlend     float64

	SelfWeight  float64
	OtherWeight float64

	Alignment        float64
	Cohesion         float64
	Separation       float64
	SeparationRadius float64
	QuorumThreshold  float64
	SameSpeciesBoost float64

	OscStrength  float64
	OscFrequency float64

	Dynamics Dynamics
}

// FromConfig resolves one config.SpeciesConfig entry (plus its precomputed
// derived values) into a Policy.
func FromConfig(c config.SpeciesConfig, sensorAngleRadians, maxTurnPerStep float64) Policy {
	pd := c.Population
	return Policy{
		Name:             c.Name,
		Archetype:        ParseArchetype(c.Archetype),
		ColorRGB:         c.ColorRGB,
		MoveSpeed:        c.Motion.MoveSpeed,
		TurnSpeed:        c.Motion.TurnSpeedDegrees * 3.141592653589793 / 180,
		SensorAngle:      sensorAngleRadians,
		SensorOffset:     c.Motion.SensorOffsetDist,
		MaxTurnPerStep:   maxTurnPerStep,
		InertiaStiffness: c.Motion.InertiaStiffness,
		InertiaDamping:   c.Motion.InertiaDamping,
		InertiaBlend:     c.Motion.InertiaBlend,
		SelfWeight:       c.TrailWeights.Self,
		OtherWeight:      c.TrailWeights.Other,
		Alignment:        c.Flocking.Alignment,
		Cohesion:         c.Flocking.Cohesion,
		Separation:       c.Flocking.Separation,
		SeparationRadius: c.Flocking.SeparationRadius,
		QuorumThreshold:  c.Flocking.QuorumThreshold,
		SameSpeciesBoost: c.Flocking.SameSpeciesBoost,
		OscStrength:      c.Oscillator.Strength,
		OscFrequency:     c.Oscillator.Frequency,
		Dynamics: Dynamics{
			DeathBehavior:                  parseDeathBehavior(pd.DeathBehavior),
			LifespanSeconds:                pd.LifespanSeconds,
			RebirthEnabled:                 pd.RebirthEnabled,
			RebirthEnergy:                  pd.RebirthEnergy,
			ConditionalRebirthEnabled:      pd.ConditionalRebirthEnabled,
			RebirthPopulationThreshold:     pd.RebirthPopulationThreshold,
			SplitEnabled:                   pd.SplitEnabled,
			SplitEnergyThreshold:           pd.SplitEnergyThreshold,
			SplitCooldownSeconds:           pd.SplitCooldownSeconds,
			PreDeathBuddingEnabled:         pd.PreDeathBuddingEnabled,
			PreDeathBuddingEnergyThreshold: pd.PreDeathBuddingEnergyThreshold,
			MatingEnabled:                  pd.MatingEnabled,
			MatingRadius:                   pd.MatingRadius,
			MatingEnergyCost:               pd.MatingEnergyCost,
			OffspringEnergy:                pd.OffspringEnergy,
			MatingEnergyBonus:              pd.MatingEnergyBonus,
			MatingCooldownSeconds:          pd.MatingCooldownSeconds,
			CrossSpeciesMatingAllowed:      pd.CrossSpeciesMatingAllowed,
			OnlyMateOtherSpecies:           pd.OnlyMateOtherSpecies,
			HybridMutationRate:             pd.HybridMutationRate,
			SporeCount:                     pd.SporeCount,
			SporeRadius:                    pd.SporeRadius,
			SporeMutationRate:              pd.SporeMutationRate,
			SporeEnergy:                    pd.SporeEnergy,
			FoodEconomy:                    pd.FoodEconomy,
			LegacyEnergyDecayPerSecond:     pd.LegacyEnergyDecayPerSecond,
			LegacyNeighborGainPerNeighbor:  pd.LegacyNeighborGainPerNeighbor,
		},
	}
}

// Catalog resolves every configured species into a Policy slice, index
// aligned with config.Config.Species.
func Catalog(cfg *config.Config) []Policy {
	out := make([]Policy, len(cfg.Species))
	for i, sc := range cfg.Species {
		out[i] = FromConfig(sc, cfg.Derived.SensorAngleRadians[i], cfg.Derived.MaxTurnPerStep[i])
	}
	return out
}
