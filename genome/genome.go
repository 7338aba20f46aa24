// Package genome defines the per-agent heritable trait record: nine scalar
// multipliers that scale motion, sensing, flocking, and oscillator
// parameters for an individual agent.
package genome

import "math/rand"

// MinTrait and MaxTrait bound every trait multiplier.
const (
	MinTrait = 0.5
	MaxTrait = 1.5
)

// Genome holds the nine scalar trait multipliers a species policy is scaled
// by for one agent.
type Genome struct {
	MoveSpeedScale    float64
	TurnSpeedScale    float64
	SensorAngleScale  float64
	SensorDistScale   float64
	AlignWeightScale  float64
	CohesionWeightScale float64
	SeparationWeightScale float64
	OscStrengthScale  float64
	OscFreqScale      float64
}

// Neutral returns a genome whose every trait multiplies by 1.0.
func Neutral() Genome {
	return Genome{
		MoveSpeedScale:        1,
		TurnSpeedScale:        1,
		SensorAngleScale:      1,
		SensorDistScale:       1,
		AlignWeightScale:      1,
		CohesionWeightScale:   1,
		SeparationWeightScale: 1,
		OscStrengthScale:      1,
		OscFreqScale:          1,
	}
}

func clamp(v float64) float64 {
	if v < MinTrait {
		return MinTrait
	}
	if v > MaxTrait {
		return MaxTrait
	}
	return v
}

// Mutate returns a copy of g with every trait perturbed by at most
// +/-fraction (multiplicative), clamped to [MinTrait, MaxTrait].
func (g Genome) Mutate(rng *rand.Rand, fraction float64) Genome {
	jitter := func(v float64) float64 {
		delta := (rng.Float64()*2 - 1) * fraction
		return clamp(v * (1 + delta))
	}
	return Genome{
		MoveSpeedScale:        jitter(g.MoveSpeedScale),
		TurnSpeedScale:        jitter(g.TurnSpeedScale),
		SensorAngleScale:      jitter(g.SensorAngleScale),
		SensorDistScale:       jitter(g.SensorDistScale),
		AlignWeightScale:      jitter(g.AlignWeightScale),
		CohesionWeightScale:   jitter(g.CohesionWeightScale),
		SeparationWeightScale: jitter(g.SeparationWeightScale),
		OscStrengthScale:      jitter(g.OscStrengthScale),
		OscFreqScale:          jitter(g.OscFreqScale),
	}
}

// Blend returns the trait-by-trait arithmetic mean of a and b, then mutates
// each trait by +/-hybridMutationRate, clamped to [MinTrait, MaxTrait]. Used
// by sexual mating (spec 4.5) to derive an offspring genome.
func Blend(rng *rand.Rand, a, b Genome, hybridMutationRate float64) Genome {
	mean := Genome{
		MoveSpeedScale:        (a.MoveSpeedScale + b.MoveSpeedScale) / 2,
		TurnSpeedScale:        (a.TurnSpeedScale + b.TurnSpeedScale) / 2,
		SensorAngleScale:      (a.SensorAngleScale + b.SensorAngleScale) / 2,
		SensorDistScale:       (a.SensorDistScale + b.SensorDistScale) / 2,
		AlignWeightScale:      (a.AlignWeightScale + b.AlignWeightScale) / 2,
		CohesionWeightScale:   (a.CohesionWeightScale + b.CohesionWeightScale) / 2,
		SeparationWeightScale: (a.SeparationWeightScale + b.SeparationWeightScale) / 2,
		OscStrengthScale:      (a.OscStrengthScale + b.OscStrengthScale) / 2,
		OscFreqScale:          (a.OscFreqScale + b.OscFreqScale) / 2,
	}
	return mean.Mutate(rng, hybridMutationRate)
}

// Random draws a genome with every trait uniform in [MinTrait, MaxTrait].
func Random(rng *rand.Rand) Genome {
	draw := func() float64 { return MinTrait + rng.Float64()*(MaxTrait-MinTrait) }
	return Genome{
		MoveSpeedScale:        draw(),
		TurnSpeedScale:        draw(),
		SensorAngleScale:      draw(),
		SensorDistScale:       draw(),
		AlignWeightScale:      draw(),
		CohesionWeightScale:   draw(),
		SeparationWeightScale: draw(),
		OscStrengthScale:      draw(),
		OscFreqScale:          draw(),
	}
}
