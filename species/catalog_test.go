package species

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/physarum/trail"
)

func allArchetypes() []Archetype {
	return []Archetype{Bully, Altruistic, Nomad, Alien, OrderEnforcer, Parasitic, Destroyer, Devourer}
}

func testPolicy(a Archetype) Policy {
	return Policy{
		Archetype:        a,
		MoveSpeed:        2,
		TurnSpeed:        3,
		SensorAngle:      0.6,
		SensorOffset:     10,
		MaxTurnPerStep:   0.3,
		SelfWeight:       1,
		OtherWeight:      0.5,
		QuorumThreshold:  8,
		OscStrength:      0.1,
		OscFrequency:     1.2,
	}
}

func TestSenseNeverProducesNaNOrInf(t *testing.T) {
	f := trail.NewField(50, 50, 3)
	f.Deposit(25, 25, 50, 0)
	f.Deposit(26, 24, 30, 1)

	for _, a := range allArchetypes() {
		p := testPolicy(a)
		s := Sense(p, f, 0, 25, 25, 0.7, p.SensorAngle, p.SensorOffset)
		s = ApplyOscillator(p, s, 3.3)
		for _, v := range []float64{s.Front, s.Left, s.Right} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("archetype %v produced non-finite sensor value: %v", a, v)
			}
		}
	}
}

func TestTurnStaysBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	s := SensorSample{Front: 1, Left: 5, Right: 2}
	for _, a := range allArchetypes() {
		p := testPolicy(a)
		for i := 0; i < 200; i++ {
			turn := Turn(p, rng, s, float64(i))
			if math.IsNaN(turn) || turn < -1.0001 || turn > 1.0001 {
				t.Fatalf("archetype %v: Turn() out of bounds: %v", a, turn)
			}
		}
	}
}

func TestProjectFlockingNoNeighborsIsIdentity(t *testing.T) {
	p := testPolicy(Bully)
	s := SensorSample{Front: 1, Left: 2, Right: 3}
	got := ProjectFlocking(p, s, 0, FlockTerms{})
	if got != s {
		t.Fatalf("ProjectFlocking with zero-magnitude desired direction changed sample: %+v", got)
	}
}

func TestDepositNeverPanicsAndStaysNonNegative(t *testing.T) {
	f := trail.NewField(20, 20, 3)
	for _, a := range allArchetypes() {
		p := testPolicy(a)
		for step := 0; step < 5; step++ {
			Deposit(p, f, 0, 10, 10, 0, float64(step)*0.3, step%7)
		}
	}
	for y := 0; y < f.Height(); y++ {
		for x := 0; x < f.Width(); x++ {
			for c := 0; c < f.NumSpecies()+1; c++ {
				if f.Sample(x, y, c) < 0 {
					t.Fatalf("negative cell after archetype deposits at (%d,%d,%d)", x, y, c)
				}
			}
		}
	}
}

func TestParseArchetypeFallsBackToBully(t *testing.T) {
	if ParseArchetype("not-a-real-archetype") != Bully {
		t.Fatalf("unknown archetype name should fall back to Bully")
	}
}
