// Package step implements the per-agent sense->turn->move->deposit->age
// pipeline (spec 4.3). A single call advances one agent; the scheduler
// package is responsible for fanning this out across a worker pool.
package step

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/spatial"
	"github.com/pthm-cable/physarum/species"
	"github.com/pthm-cable/physarum/trail"
)

// World carries the geometry and mode the step pipeline needs but that
// doesn't belong to any single agent.
type World struct {
	Width, Height float64
	BenchmarkMode bool // benchmark mode clamps to bounds instead of wrapping
	FoodPellets   []FoodPellet
}

// FoodPellet is a user-placed, independent-of-the-trail-field attraction
// point that food-economy species steer toward (spec 12's supplemented
// goal-seeking behavior).
type FoodPellet struct {
	X, Y     float64
	Strength float64
}

// pelletAttractionRadius bounds how far a pellet's pull reaches; beyond it
// an agent senses nothing of the pellet.
const pelletAttractionRadius = 120.0

// pelletForce sums every in-range pellet's pull into one desired direction,
// each falling off quadratically with distance, only for species that run
// the food economy (legacy-energy species have no reason to chase pellets).
func pelletForce(a *agent.Agent, p species.Policy, w World) (dx, dy, strength float64) {
	if !p.Dynamics.FoodEconomy.Enabled || len(w.FoodPellets) == 0 {
		return 0, 0, 0
	}
	for _, pellet := range w.FoodPellets {
		ddx := spatial.ToroidalDelta(a.X, pellet.X, w.Width)
		ddy := spatial.ToroidalDelta(a.Y, pellet.Y, w.Height)
		dist := math.Hypot(ddx, ddy)
		if dist >= pelletAttractionRadius || dist < 1e-6 {
			continue
		}
		falloff := 1 - (dist*dist)/(pelletAttractionRadius*pelletAttractionRadius)
		pull := pellet.Strength * falloff
		dx += (ddx / dist) * pull
		dy += (ddy / dist) * pull
		strength += pull
	}
	return dx, dy, strength
}

// Advance runs the five phases for a single agent and returns the life
// event its age/energy update produced. pool and selfIndex let the flocking
// term scan neighbors without copying positions out; field and grid are
// read during sensing and written during deposit.
func Advance(pool *agent.Pool, selfIndex int, policies []species.Policy, field *trail.Field, grid *spatial.Grid, w World, dt float64, rng *rand.Rand) agent.LifeEvent {
	a := pool.At(selfIndex)
	if a.SpeciesIndex < 0 || a.SpeciesIndex >= len(policies) {
		a.SpeciesIndex = 0
	}
	p := policies[a.SpeciesIndex]

	sensorAngle := p.SensorAngle
	sensorDistance := p.SensorOffset
	if a.HasGenome {
		sensorAngle *= a.Genome.SensorAngleScale
		sensorDistance *= a.Genome.SensorDistScale
	}

	sense := species.Sense(p, field, a.SpeciesIndex, a.X, a.Y, a.Heading, sensorAngle, sensorDistance)
	sense = species.ApplyOscillator(p, sense, a.StateTimer)

	flock := gatherFlockTerms(pool, selfIndex, grid, p, w)
	sense = species.ProjectFlocking(p, sense, a.Heading, flock)

	if pdx, pdy, pstrength := pelletForce(a, p, w); pstrength > 0 {
		sense = species.ProjectPellet(sense, a.Heading, pdx, pdy, pstrength)
	}

	turnDir := species.Turn(p, rng, sense, a.StateTimer)
	applyTurn(a, p, turnDir, dt)

	updateBehaviorMode(a, p, field, rng)

	move(a, p, w, dt)

	species.Deposit(p, field, a.SpeciesIndex, a.X, a.Y, a.Heading, a.StateTimer, a.BehaviorMode)

	return ageAndEnergy(a, p, dt, field, flock.NeighborCount)
}

// gatherFlockTerms scans neighbors within 2x sensor range and accumulates
// alignment/cohesion/separation per spec 4.3.
func gatherFlockTerms(pool *agent.Pool, selfIndex int, grid *spatial.Grid, p species.Policy, w World) species.FlockTerms {
	self := pool.At(selfIndex)
	radius := 2 * p.SensorOffset
	if radius <= 0 {
		return species.FlockTerms{}
	}

	var neighbors []int32
	if w.BenchmarkMode {
		neighbors = grid.Neighbors(self.X, self.Y, radius)
	} else {
		neighbors = grid.NeighborsToroidal(self.X, self.Y, radius)
	}

	var alignX, alignY float64
	var cohX, cohY float64
	var sepX, sepY float64
	count := 0

	for _, idxRaw := range neighbors {
		idx := int(idxRaw)
		if idx == selfIndex {
			continue
		}
		other := pool.At(idx)
		sameSpecies := other.SpeciesIndex == self.SpeciesIndex

		dx := spatial.ToroidalDelta(self.X, other.X, w.Width)
		dy := spatial.ToroidalDelta(self.Y, other.Y, w.Height)
		dist := math.Hypot(dx, dy)
		if dist > radius {
			continue
		}
		count++

		alignWeight := 0.5
		if sameSpecies {
			alignWeight = 1.0
		}
		alignX += math.Cos(other.Heading) * alignWeight
		alignY += math.Sin(other.Heading) * alignWeight

		cohWeight := 1.0
		if sameSpecies {
			cohWeight *= p.SameSpeciesBoost
		}
		cohX += dx * cohWeight
		cohY += dy * cohWeight

		if dist < p.SeparationRadius && dist > 1e-6 {
			push := (p.SeparationRadius - dist) / p.SeparationRadius
			sepX -= (dx / dist) * push
			sepY -= (dy / dist) * push
		}
	}

	if count == 0 {
		return species.FlockTerms{}
	}

	desiredX := alignX*p.Alignment + cohX*p.Cohesion/float64(count) + sepX*p.Separation
	desiredY := alignY*p.Alignment + cohY*p.Cohesion/float64(count) + sepY*p.Separation

	return species.FlockTerms{DesiredDX: desiredX, DesiredDY: desiredY, NeighborCount: count}
}

// applyTurn implements the heading-inertia spring (spec 4.3): the desired
// heading change is turnDir scaled by the species turn speed; the actual
// applied delta is damped and clamped to maxTurnPerStep.
func applyTurn(a *agent.Agent, p species.Policy, turnDir float64, dt float64) {
	turnSpeed := p.TurnSpeed
	maxTurn := p.MaxTurnPerStep
	if a.HasGenome {
		turnSpeed *= a.Genome.TurnSpeedScale
	}

	desiredHeading := agent.NormalizeHeading(a.Heading + turnDir*turnSpeed*dt)
	errorTerm := agent.NormalizeHeading(desiredHeading - a.PreviousHeading)

	k := p.InertiaStiffness
	c := p.InertiaDamping
	inertia := p.InertiaBlend

	a.AngularVelocity += k * errorTerm * dt
	a.AngularVelocity *= 1 - c/2

	delta := errorTerm*(1-inertia) + a.AngularVelocity
	if maxTurn > 0 {
		delta = clamp(delta, -maxTurn, maxTurn)
	}

	a.PreviousHeading = a.Heading
	a.Heading = agent.NormalizeHeading(a.PreviousHeading + delta)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// move advances position by moveSpeed in the heading direction, modulated by
// species-specific envelopes (e.g. the alien archetype's bursty/jittery
// pace), then wraps (normal mode) or clamps (benchmark mode) to the world.
func move(a *agent.Agent, p species.Policy, w World, dt float64) {
	moveSpeed := p.MoveSpeed
	if a.HasGenome {
		moveSpeed *= a.Genome.MoveSpeedScale
	}
	moveSpeed = moveModulation(p, a, moveSpeed)

	a.X += moveSpeed * math.Cos(a.Heading) * dt
	a.Y += moveSpeed * math.Sin(a.Heading) * dt
	a.StateTimer += dt

	if w.BenchmarkMode {
		a.X = clamp(a.X, 0, w.Width)
		a.Y = clamp(a.Y, 0, w.Height)
		return
	}
	a.X = wrap(a.X, w.Width)
	a.Y = wrap(a.Y, w.Height)
}

func wrap(v, size float64) float64 {
	if size <= 0 {
		return v
	}
	v = math.Mod(v, size)
	if v < 0 {
		v += size
	}
	return v
}

// parasiticSaturationThreshold is the own-channel trail strength above which
// a parasitic agent is considered locally saturated and switches deposit
// patterns (spec 4.4's explode-outward trigger).
const parasiticSaturationThreshold = 40.0

// alienModeRotatePeriod is how long the alien archetype dwells on one
// deposit pattern before rotating to the next.
const alienModeRotatePeriod = 1.5

// updateBehaviorMode derives the per-step mode index species.Deposit and
// moveModulation read. Parasitic agents flip to the burst-disc mode once
// their own trail has pooled past the saturation threshold at their cell;
// alien agents rotate through their five patterns over time, with a random
// 0-or-1 offset on the pattern index so the rotation doesn't read as
// perfectly metronomic. Other
// archetypes never consult BehaviorMode, so it's left untouched for them.
func updateBehaviorMode(a *agent.Agent, p species.Policy, field *trail.Field, rng *rand.Rand) {
	switch p.Archetype {
	case species.Parasitic:
		cx, cy := int(math.Round(a.X)), int(math.Round(a.Y))
		if field.Sample(cx, cy, a.SpeciesIndex) > parasiticSaturationThreshold {
			a.BehaviorMode = 1
		} else {
			a.BehaviorMode = 0
		}
	case species.Alien:
		a.BehaviorMode = int(a.StateTimer/alienModeRotatePeriod) + rng.Intn(2)
	}
}

// moveModulation applies the alien archetype's burst/rhythmic/jittery pace
// within a bounded envelope (never negative, capped at 3x base speed).
func moveModulation(p species.Policy, a *agent.Agent, base float64) float64 {
	if p.Archetype != species.Alien {
		return base
	}
	factor := 1 + 0.6*math.Sin(a.StateTimer*3.0+float64(a.BehaviorMode))
	if factor < 0 {
		factor = 0
	}
	if factor > 3 {
		factor = 3
	}
	return base * factor
}

// ageAndEnergy advances age, decrements cooldowns, and applies the
// food-economy or legacy energy update rule, returning the resulting life
// event. Death/rebirth/spore-burst handling themselves happen later in the
// serial population-dynamics sweep; this phase only determines eligibility
// and returns LifeEventDied so that sweep knows to consider the agent.
func ageAndEnergy(a *agent.Agent, p species.Policy, dt float64, field *trail.Field, neighborCount int) agent.LifeEvent {
	a.AgeSeconds += dt
	if a.MateCooldown > 0 {
		a.MateCooldown -= dt
	}
	if a.SplitCooldown > 0 {
		a.SplitCooldown -= dt
	}

	fe := p.Dynamics.FoodEconomy
	if fe.Enabled {
		updateFoodEconomyEnergy(a, p, field)
	} else {
		updateLegacyEnergy(a, p, dt, neighborCount)
	}

	if a.Energy < 0 {
		a.Energy = 0
	}
	if a.Energy > 1 {
		a.Energy = 1
	}

	dead := false
	if fe.Enabled {
		dead = a.Energy <= 0
	} else {
		dead = a.AgeSeconds > p.Dynamics.LifespanSeconds || a.Energy <= 0.05
	}
	if dead {
		return agent.LifeEventDied
	}
	return agent.LifeEventNone
}

func updateFoodEconomyEnergy(a *agent.Agent, p species.Policy, field *trail.Field) {
	fe := p.Dynamics.FoodEconomy
	cx, cy := int(math.Round(a.X)), int(math.Round(a.Y))

	gained := float64(field.Eat(cx, cy, a.SpeciesIndex, float32(fe.EatRate))) * fe.TrailFoodValue
	if fe.CanEatOtherTrails {
		gained += float64(field.EatAnySpecies(cx, cy, a.SpeciesIndex, float32(fe.EatRate))) * fe.TrailFoodValue
	}

	a.Energy += gained
	a.Energy -= fe.MovementEnergyCost * p.MoveSpeed
}

func updateLegacyEnergy(a *agent.Agent, p species.Policy, dt float64, neighborCount int) {
	d := p.Dynamics
	a.Energy -= d.LegacyEnergyDecayPerSecond * dt
	a.Energy += d.LegacyNeighborGainPerNeighbor * float64(neighborCount)
}
