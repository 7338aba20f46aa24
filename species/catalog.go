package species

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/physarum/trail"
)

// SensorSample holds the three angular samples a sensing pass produces.
type SensorSample struct {
	Front, Left, Right float64
}

// sensorOffset returns the world-space point a sensor at angle (heading+delta)
// lands on, at the given distance.
func sensorOffset(x, y, heading, delta, distance float64) (float64, float64) {
	a := heading + delta
	return x + distance*math.Cos(a), y + distance*math.Sin(a)
}

// Sense samples the trail field at the three angular sensor points and
// combines own/other channel intensity per the policy's archetype. genome
// scale factors (sensor angle/distance) have already been folded into
// sensorAngle/sensorDistance by the caller.
func Sense(p Policy, field *trail.Field, speciesIndex int, x, y, heading, sensorAngle, sensorDistance float64) SensorSample {
	selfW, otherW := p.SelfWeight, p.OtherWeight

	sample := func(wx, wy float64) float64 {
		cellX, cellY := int(math.Round(wx)), int(math.Round(wy))
		if p.Archetype == Alien {
			return sampleAlien(field, speciesIndex, cellX, cellY, selfW, otherW)
		}
		return float64(field.SampleSpeciesInteraction(cellX, cellY, speciesIndex, float32(selfW), float32(otherW)))
	}

	fx, fy := sensorOffset(x, y, heading, 0, sensorDistance)
	lx, ly := sensorOffset(x, y, heading, -sensorAngle, sensorDistance)
	rx, ry := sensorOffset(x, y, heading, sensorAngle, sensorDistance)

	return SensorSample{
		Front: sample(fx, fy),
		Left:  sample(lx, ly),
		Right: sample(rx, ry),
	}
}

// sampleAlien applies the alien archetype's nonlinear (sin/cos/pow) mix of
// own and other channel intensity instead of a plain weighted sum.
func sampleAlien(field *trail.Field, speciesIndex, x, y int, selfW, otherW float64) float64 {
	own := float64(field.Sample(x, y, speciesIndex))
	var otherSum float64
	for c := 0; c < field.NumSpecies()+1; c++ {
		if c == speciesIndex {
			continue
		}
		otherSum += float64(field.Sample(x, y, c))
	}
	nonlinearOwn := math.Copysign(math.Pow(math.Abs(own), 0.8), own) * selfW
	nonlinearOther := math.Sin(otherSum) * otherSum * otherW
	return nonlinearOwn + nonlinearOther
}

// ApplyOscillator adds the species' internal sinusoidal bias to the left vs.
// right sensor asymmetry.
func ApplyOscillator(p Policy, s SensorSample, stateTimer float64) SensorSample {
	osc := p.OscStrength * math.Sin(stateTimer*p.OscFrequency)
	s.Left -= osc
	s.Right += osc
	return s
}

// FlockTerms is the boids contribution computed by the caller from a
// spatial-index neighbor query (alignment/cohesion/separation, spec 4.3).
type FlockTerms struct {
	DesiredDX, DesiredDY float64 // combined desired direction, not normalized
	NeighborCount        int
}

// ProjectFlocking projects the desired flocking direction onto the three
// sensors: front gets max(0, cos(theta)), the matching side gets
// |sin(theta)|, scaled by a quorum factor that saturates at the species'
// quorum threshold.
func ProjectFlocking(p Policy, s SensorSample, heading float64, f FlockTerms) SensorSample {
	mag := math.Hypot(f.DesiredDX, f.DesiredDY)
	if mag < 1e-9 {
		return s
	}
	desiredAngle := math.Atan2(f.DesiredDY, f.DesiredDX)
	theta := desiredAngle - heading

	quorum := smoothSaturate(float32(float64(f.NeighborCount) / math.Max(p.QuorumThreshold, 1)))

	frontGain := math.Max(0, math.Cos(theta)) * float64(quorum)
	sideGain := math.Abs(math.Sin(theta)) * float64(quorum)

	s.Front += frontGain * mag
	if math.Sin(theta) >= 0 {
		s.Right += sideGain * mag
	} else {
		s.Left += sideGain * mag
	}
	return s
}

// ProjectPellet projects an attraction direction toward a food pellet onto
// the three sensors, the same front/side split ProjectFlocking uses but
// without a quorum gate — a single pellet's pull never saturates.
func ProjectPellet(s SensorSample, heading, dx, dy, strength float64) SensorSample {
	mag := math.Hypot(dx, dy)
	if mag < 1e-9 || strength <= 0 {
		return s
	}
	theta := math.Atan2(dy, dx) - heading

	frontGain := math.Max(0, math.Cos(theta)) * strength
	sideGain := math.Abs(math.Sin(theta)) * strength

	s.Front += frontGain
	if math.Sin(theta) >= 0 {
		s.Right += sideGain
	} else {
		s.Left += sideGain
	}
	return s
}

// Turn converts the three sensor samples into a desired turn direction in
// [-1, 1] (negative = left, positive = right, 0 = straight), per the
// species' turning flavor. rng is the calling worker's thread-local
// generator — never a shared global one.
func Turn(p Policy, rng *rand.Rand, s SensorSample, stateTimer float64) float64 {
	switch p.Archetype {
	case Bully, Destroyer:
		return amplify(decideDefault(rng, s, 0.3), 1.6)
	case Altruistic:
		return decideDefault(rng, s, 0.05)
	case Nomad:
		// Turn toward the largest sensor (the emptiest direction for this
		// archetype's negative weights), with high exploration noise.
		return decideDefault(rng, s, 0.5)
	case Alien:
		return decideAlien(rng, s, stateTimer)
	case OrderEnforcer:
		return decideOrderEnforcer(s)
	case Parasitic:
		return amplify(decideDefault(rng, s, 0.2), 1.3)
	case Devourer:
		return decideDefault(rng, s, 0.35)
	default:
		return decideDefault(rng, s, 0.1)
	}
}

func amplify(turn, factor float64) float64 {
	return clampF(turn*factor, -1, 1)
}

// decideDefault is the baseline decision tree (spec 4.3): forward wins means
// no turn, both sides beating forward means a random +/-1 kick, otherwise
// turn toward the larger side. randomKickChance scales how often the
// tie-break path fires for archetypes that explore more aggressively.
func decideDefault(rng *rand.Rand, s SensorSample, randomKickChance float64) float64 {
	if s.Front >= s.Left && s.Front >= s.Right {
		return 0
	}
	if s.Left > s.Front && s.Right > s.Front {
		if rng.Float64() < randomKickChance {
			if rng.Intn(2) == 0 {
				return -1
			}
			return 1
		}
	}
	if s.Left > s.Right {
		return -1
	}
	if s.Right > s.Left {
		return 1
	}
	return 0
}

// alienNoise textures the alien archetype's mode-keyed turning with smooth
// drift instead of relying on per-step randomness alone, the same
// opensimplex source the benchmark maze generator reaches for.
var alienNoise = opensimplex.New(1)

// decideAlien selects one of several mode-keyed tie-breakers, including
// inverted responses and phase-variance, matching the "quantum" archetype's
// mode-driven turning. phase (the agent's state timer) drives a slow
// opensimplex drift layered on top of the chosen mode's turn, so consecutive
// steps in the same mode don't produce identical output.
func decideAlien(rng *rand.Rand, s SensorSample, phase float64) float64 {
	mode := rng.Intn(7)
	var turn float64
	switch mode {
	case 0:
		turn = decideDefault(rng, s, 0.6)
	case 1:
		// inverted: turn away from the stronger side
		if s.Left > s.Right {
			turn = 1
		} else {
			turn = -1
		}
	case 2:
		turn = clampF((s.Left-s.Right)/math.Max(1e-6, s.Front+s.Left+s.Right), -1, 1)
	case 3:
		turn = 0
	case 4:
		if rng.Intn(2) == 0 {
			turn = -1
		} else {
			turn = 1
		}
	case 5:
		turn = clampF((s.Right-s.Left)*2, -1, 1)
	default:
		turn = decideDefault(rng, s, 0.2)
	}
	jitter := alienNoise.Eval2(phase*0.05, float64(mode)) * 0.15
	return clampF(turn+jitter, -1, 1)
}

// decideOrderEnforcer makes tight, precise, low-amplitude turns rather than
// committing fully to a side: a quarter of the right-minus-left difference,
// capped at ±0.3. It has no time-based or periodic correction term.
func decideOrderEnforcer(s SensorSample) float64 {
	diff := s.Right - s.Left
	return clampF(diff*0.25, -0.3, 0.3)
}
