package genome

import (
	"math/rand"
	"testing"
)

func allTraits(g Genome) []float64 {
	return []float64{
		g.MoveSpeedScale, g.TurnSpeedScale, g.SensorAngleScale, g.SensorDistScale,
		g.AlignWeightScale, g.CohesionWeightScale, g.SeparationWeightScale,
		g.OscStrengthScale, g.OscFreqScale,
	}
}

func TestMutateStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g := Neutral()
	for i := 0; i < 1000; i++ {
		g = g.Mutate(rng, 0.5)
		for _, v := range allTraits(g) {
			if v < MinTrait || v > MaxTrait {
				t.Fatalf("trait out of bounds after mutate: %v", v)
			}
		}
	}
}

func TestBlendAveragesAndMutates(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := Neutral()
	b := Genome{
		MoveSpeedScale: 1.5, TurnSpeedScale: 1.5, SensorAngleScale: 1.5, SensorDistScale: 1.5,
		AlignWeightScale: 1.5, CohesionWeightScale: 1.5, SeparationWeightScale: 1.5,
		OscStrengthScale: 1.5, OscFreqScale: 1.5,
	}
	child := Blend(rng, a, b, 0)
	if child.MoveSpeedScale != 1.25 {
		t.Fatalf("Blend with zero mutation rate = %v, want 1.25", child.MoveSpeedScale)
	}
}

func TestRandomStaysInBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		g := Random(rng)
		for _, v := range allTraits(g) {
			if v < MinTrait || v > MaxTrait {
				t.Fatalf("random trait out of bounds: %v", v)
			}
		}
	}
}
