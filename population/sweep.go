// Package population implements the Population Dynamics sweep (spec 4.5):
// the serial tail that runs once per step after every agent has sensed,
// turned, moved, and deposited, so death/birth bookkeeping never races the
// per-agent pass.
package population

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/genome"
	"github.com/pthm-cable/physarum/spatial"
	"github.com/pthm-cable/physarum/species"
)

// Stats tallies what one sweep did, indexed by species.
type Stats struct {
	Deaths        []int
	Rebirths      []int
	SporeBursts   []int
	AsexualSplits []int
	SexualMatings []int
	Births        int
}

func newStats(numSpecies int) Stats {
	return Stats{
		Deaths:        make([]int, numSpecies),
		Rebirths:      make([]int, numSpecies),
		SporeBursts:   make([]int, numSpecies),
		AsexualSplits: make([]int, numSpecies),
		SexualMatings: make([]int, numSpecies),
	}
}

// Sweep runs one full population-dynamics pass: cross-agent food-economy
// stealing/giving, then per-agent death eligibility (with the conditional-
// rebirth floor ahead of the species' configured death behavior), asexual
// split/budding, and sexual mating, gated by the global population cap and
// a per-step offspring budget that tapers as the cap is approached.
//
// Deaths are collected into a list and only removed (swap-with-last,
// deduped, descending) after the whole pass, so no index used earlier in
// the same sweep is invalidated; births are appended afterward and are
// never themselves considered for death or reproduction this sweep.
func Sweep(pool *agent.Pool, policies []species.Policy, grid *spatial.Grid, cfg *config.Config, worldW, worldH, dt float64, rng *rand.Rand) Stats {
	stats := newStats(len(policies))
	n := pool.Len()

	applyStealAndGive(pool, policies, grid, worldW, worldH)

	liveBySpecies := make([]int, len(policies))
	pool.CountBySpecies(liveBySpecies)

	capAgents := cfg.Derived.GlobalPopulationCap
	budget := offspringBudget(cfg, n, capAgents)

	var removeIdx []int
	var newborns []agent.Agent
	mated := make(map[int]bool, n)

	for i := 0; i < n; i++ {
		a := pool.At(i)
		p := resolvePolicy(policies, a.SpeciesIndex)

		if isDeathEligible(a, p) {
			if handleDeath(a, p, i, liveBySpecies, cfg, rng, &stats, &removeIdx, &newborns) {
				continue
			}
		}

		if budget <= 0 {
			continue
		}
		if trySplit(a, p, rng, &newborns) {
			stats.AsexualSplits[a.SpeciesIndex]++
			budget--
			continue
		}

		if budget <= 0 || mated[i] {
			continue
		}
		if tryMate(pool, i, a, p, policies, grid, worldW, worldH, mated, rng, &newborns, &stats) {
			budget--
		}
	}

	pool.RemoveIndices(removeIdx)
	for _, child := range newborns {
		if capAgents > 0 && pool.Len() >= capAgents {
			break
		}
		pool.Add(child)
		stats.Births++
	}

	return stats
}

func resolvePolicy(policies []species.Policy, idx int) species.Policy {
	if idx < 0 || idx >= len(policies) {
		return policies[0]
	}
	return policies[idx]
}

func totalLive(liveBySpecies []int) int {
	t := 0
	for _, c := range liveBySpecies {
		t += c
	}
	return t
}

// offspringBudget tapers the per-step birth allowance linearly as the
// population approaches the global cap.
func offspringBudget(cfg *config.Config, currentLen, capAgents int) int {
	base := cfg.World.OffspringBudgetPerStep
	if capAgents <= 0 {
		return base
	}
	remaining := capAgents - currentLen
	if remaining <= 0 {
		return 0
	}
	occupancy := float64(currentLen) / float64(capAgents)
	scale := 1 - occupancy
	if scale < 0 {
		scale = 0
	}
	budget := int(math.Round(float64(base) * scale))
	if budget > remaining {
		budget = remaining
	}
	if budget < 0 {
		budget = 0
	}
	return budget
}

func isDeathEligible(a *agent.Agent, p species.Policy) bool {
	if p.Dynamics.FoodEconomy.Enabled {
		return a.Energy <= 0
	}
	return a.AgeSeconds > p.Dynamics.LifespanSeconds || a.Energy <= 0.05
}

// handleDeath resolves one death-eligible agent into rebirth (in place),
// spore-burst (children appended, parent removed), or hard death (parent
// removed), honoring the conditional-rebirth population floor ahead of the
// species' configured death behavior. Returns true once the agent has been
// fully handled, so the caller skips reproduction for it this step.
func handleDeath(a *agent.Agent, p species.Policy, idx int, liveBySpecies []int, cfg *config.Config, rng *rand.Rand, stats *Stats, removeIdx *[]int, newborns *[]agent.Agent) bool {
	d := p.Dynamics
	speciesIdx := a.SpeciesIndex

	startingPop := float64(cfg.World.InitialAgentsPerSpecies)
	belowSpeciesFloor := d.ConditionalRebirthEnabled && startingPop > 0 &&
		float64(liveBySpecies[speciesIdx]) < d.RebirthPopulationThreshold*startingPop
	belowGlobalFloor := cfg.World.MinAgentFloor > 0 && totalLive(liveBySpecies) <= cfg.World.MinAgentFloor

	if belowSpeciesFloor || belowGlobalFloor {
		rebirth(a, d, rng)
		stats.Rebirths[speciesIdx]++
		return true
	}

	switch d.DeathBehavior {
	case species.Rebirth:
		if d.RebirthEnabled {
			rebirth(a, d, rng)
			stats.Rebirths[speciesIdx]++
			return true
		}
	case species.SporeBurst:
		spawnSporeBurst(a, d, rng, newborns)
		*removeIdx = append(*removeIdx, idx)
		liveBySpecies[speciesIdx]--
		stats.SporeBursts[speciesIdx]++
		return true
	}

	*removeIdx = append(*removeIdx, idx)
	liveBySpecies[speciesIdx]--
	stats.Deaths[speciesIdx]++
	return true
}

func rebirth(a *agent.Agent, d species.Dynamics, rng *rand.Rand) {
	a.AgeSeconds = 0
	a.Energy = d.RebirthEnergy
	if a.Energy > 1 {
		a.Energy = 1
	}
	if !a.HasGenome {
		a.Genome = genome.Neutral()
		a.HasGenome = true
	}
	a.Genome = a.Genome.Mutate(rng, 0.02)
}

func spawnSporeBurst(a *agent.Agent, d species.Dynamics, rng *rand.Rand, newborns *[]agent.Agent) {
	parentGenome := a.Genome
	if !a.HasGenome {
		parentGenome = genome.Neutral()
	}
	for k := 0; k < d.SporeCount; k++ {
		angle := rng.Float64() * 2 * math.Pi
		radius := rng.Float64() * d.SporeRadius
		*newborns = append(*newborns, agent.Agent{
			X:            a.X + radius*math.Cos(angle),
			Y:            a.Y + radius*math.Sin(angle),
			Heading:      rng.Float64() * 2 * math.Pi,
			SpeciesIndex: a.SpeciesIndex,
			Energy:       d.SporeEnergy,
			HasGenome:    true,
			Genome:       parentGenome.Mutate(rng, d.SporeMutationRate),
		})
	}
}

// trySplit implements asexual reproduction: energy-triggered split (full
// offspring energy) or pre-death budding at >=60% lifespan with >=15%
// energy remaining (parent donates ~70% of its remainder).
func trySplit(a *agent.Agent, p species.Policy, rng *rand.Rand, newborns *[]agent.Agent) bool {
	d := p.Dynamics
	if !d.SplitEnabled || a.SplitCooldown > 0 {
		return false
	}

	energyTriggered := a.Energy > d.SplitEnergyThreshold
	buddingTriggered := d.PreDeathBuddingEnabled &&
		a.AgeSeconds > 0.6*d.LifespanSeconds &&
		a.Energy >= d.PreDeathBuddingEnergyThreshold

	if !energyTriggered && !buddingTriggered {
		return false
	}

	const splitOffset = 2.0
	angle := rng.Float64() * 2 * math.Pi

	child := *a
	child.X = a.X + splitOffset*math.Cos(angle)
	child.Y = a.Y + splitOffset*math.Sin(angle)
	child.AgeSeconds = 0
	child.StateTimer = 0
	child.MateCooldown = 0
	child.SplitCooldown = d.SplitCooldownSeconds
	child.Path = nil
	child.ExplorationFrontier = nil
	child.ExplorationVisited = nil
	child.ExplorationParents = nil
	child.ExplorationCost = nil

	if energyTriggered {
		child.Energy = d.OffspringEnergy
		a.Energy -= d.OffspringEnergy
	} else {
		donated := a.Energy * 0.7
		child.Energy = donated
		a.Energy -= donated
	}
	if child.Energy > 1 {
		child.Energy = 1
	}
	if a.Energy < 0 {
		a.Energy = 0
	}

	a.SplitCooldown = d.SplitCooldownSeconds
	*newborns = append(*newborns, child)
	return true
}

// tryMate searches the spatial index for a compatible partner within
// matingRadius, blends genomes for the offspring, and applies cost/bonus/
// cooldown to both parents. At most one mating per agent per step, enforced
// via the mated set the caller maintains across the whole sweep.
func tryMate(pool *agent.Pool, selfIdx int, a *agent.Agent, p species.Policy, policies []species.Policy, grid *spatial.Grid, worldW, worldH float64, mated map[int]bool, rng *rand.Rand, newborns *[]agent.Agent, stats *Stats) bool {
	d := p.Dynamics
	if !d.MatingEnabled || a.MateCooldown > 0 || a.Energy <= d.MatingEnergyCost {
		return false
	}

	candidates := grid.NeighborsToroidal(a.X, a.Y, d.MatingRadius)
	for _, raw := range candidates {
		j := int(raw)
		if j == selfIdx || mated[j] {
			continue
		}
		b := pool.At(j)
		if !matingCompatible(a, b, d) {
			continue
		}
		bp := resolvePolicy(policies, b.SpeciesIndex)
		if b.MateCooldown > 0 || b.Energy <= bp.Dynamics.MatingEnergyCost {
			continue
		}

		dx := spatial.ToroidalDelta(a.X, b.X, worldW)
		dy := spatial.ToroidalDelta(a.Y, b.Y, worldH)
		if math.Hypot(dx, dy) > d.MatingRadius {
			continue
		}

		child := breedSexual(a, b, d, rng)
		*newborns = append(*newborns, child)

		a.Energy -= d.MatingEnergyCost
		a.Energy += d.MatingEnergyBonus
		if a.Energy > 1 {
			a.Energy = 1
		}
		a.MateCooldown = d.MatingCooldownSeconds

		b.Energy -= bp.Dynamics.MatingEnergyCost
		b.Energy += bp.Dynamics.MatingEnergyBonus
		if b.Energy > 1 {
			b.Energy = 1
		}
		b.MateCooldown = bp.Dynamics.MatingCooldownSeconds

		mated[selfIdx] = true
		mated[j] = true
		stats.SexualMatings[a.SpeciesIndex]++
		return true
	}
	return false
}

func matingCompatible(a, b *agent.Agent, d species.Dynamics) bool {
	sameSpecies := a.SpeciesIndex == b.SpeciesIndex
	if d.OnlyMateOtherSpecies && sameSpecies {
		return false
	}
	if !sameSpecies && !d.CrossSpeciesMatingAllowed {
		return false
	}
	return true
}

func breedSexual(a, b *agent.Agent, d species.Dynamics, rng *rand.Rand) agent.Agent {
	ga := a.Genome
	if !a.HasGenome {
		ga = genome.Neutral()
	}
	gb := b.Genome
	if !b.HasGenome {
		gb = genome.Neutral()
	}
	blended := genome.Blend(rng, ga, gb, d.HybridMutationRate)

	return agent.Agent{
		X:            (a.X + b.X) / 2,
		Y:            (a.Y + b.Y) / 2,
		Heading:      rng.Float64() * 2 * math.Pi,
		SpeciesIndex: a.SpeciesIndex,
		Energy:       d.OffspringEnergy,
		HasGenome:    true,
		Genome:       blended,
	}
}

// applyStealAndGive runs the cross-agent half of the food-economy energy
// update (spec 4.5): species with CanSteal pull energy from different-
// species neighbors within StealRadius, capped per victim; species with
// CanGive above GiveThreshold push energy to different-species neighbors.
// This mutates two agents at once, so unlike the self-only eat/movement-
// cost half (applied per-agent during the parallel step), it runs here in
// the serial sweep.
func applyStealAndGive(pool *agent.Pool, policies []species.Policy, grid *spatial.Grid, worldW, worldH float64) {
	n := pool.Len()
	for i := 0; i < n; i++ {
		a := pool.At(i)
		p := resolvePolicy(policies, a.SpeciesIndex)
		fe := p.Dynamics.FoodEconomy
		if !fe.Enabled {
			continue
		}
		if fe.CanSteal {
			applySteal(pool, i, a, fe, grid, worldW, worldH)
		}
		if fe.CanGive && a.Energy > fe.GiveThreshold {
			applyGive(pool, i, a, fe, grid, worldW, worldH)
		}
	}
}

func applySteal(pool *agent.Pool, selfIdx int, a *agent.Agent, fe config.FoodEconomyConfig, grid *spatial.Grid, worldW, worldH float64) {
	for _, raw := range grid.NeighborsToroidal(a.X, a.Y, fe.StealRadius) {
		j := int(raw)
		if j == selfIdx {
			continue
		}
		victim := pool.At(j)
		if victim.SpeciesIndex == a.SpeciesIndex {
			continue
		}
		dx := spatial.ToroidalDelta(a.X, victim.X, worldW)
		dy := spatial.ToroidalDelta(a.Y, victim.Y, worldH)
		if math.Hypot(dx, dy) > fe.StealRadius {
			continue
		}
		steal := fe.StealRatePerVictim
		if steal > victim.Energy {
			steal = victim.Energy
		}
		victim.Energy -= steal
		a.Energy += steal
	}
	if a.Energy > 1 {
		a.Energy = 1
	}
}

func applyGive(pool *agent.Pool, selfIdx int, a *agent.Agent, fe config.FoodEconomyConfig, grid *spatial.Grid, worldW, worldH float64) {
	for _, raw := range grid.NeighborsToroidal(a.X, a.Y, fe.StealRadius) {
		j := int(raw)
		if j == selfIdx {
			continue
		}
		recipient := pool.At(j)
		if recipient.SpeciesIndex == a.SpeciesIndex {
			continue
		}
		dx := spatial.ToroidalDelta(a.X, recipient.X, worldW)
		dy := spatial.ToroidalDelta(a.Y, recipient.Y, worldH)
		if math.Hypot(dx, dy) > fe.StealRadius {
			continue
		}
		give := fe.GiveRate
		if give > a.Energy {
			give = a.Energy
		}
		a.Energy -= give
		recipient.Energy += give
		if recipient.Energy > 1 {
			recipient.Energy = 1
		}
	}
}
