package benchmark

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/physarum/agent"
	"github.com/pthm-cable/physarum/config"
	"github.com/pthm-cable/physarum/pathfind"
	"github.com/pthm-cable/physarum/trail"
)

const (
	slimeTrailChannel = 0
	sensorOffsetDist  = 1.5 // grid cells
	sensorAngle       = 0.6 // radians
)

// wallFollowOffsets is the preferred-side rotation table a slime tries, in
// order, when its tentative step lands in a blocked cell.
var wallFollowOffsets = []float64{0.4, -0.4, 0.9, -0.9, 1.4, -1.4, math.Pi}

// SlimeStep advances one stigmergic benchmark agent: 3-sensor chemotaxis on
// the blended food(goal-scent)/trail fields, energy bookkeeping, wall-follow
// collision recovery, and trail deposition on a successful move. It returns
// true the step the agent's tentative position lands on the goal cell.
func SlimeStep(a *agent.Agent, field *trail.Field, grid *pathfind.Grid, cfg config.BenchmarkConfig, goal pathfind.Cell, worldW, worldH float64, rng *rand.Rand) bool {
	if !a.BenchmarkAlive {
		return stepRespawnCooldown(a, cfg)
	}

	goalX, goalY := grid.GridToWorld(goal)
	distBefore := math.Hypot(goalX-a.X, goalY-a.Y)

	front := sampleBlended(field, grid, a.X, a.Y, a.Heading, 0, cfg)
	left := sampleBlended(field, grid, a.X, a.Y, a.Heading, -sensorAngle, cfg)
	right := sampleBlended(field, grid, a.X, a.Y, a.Heading, sensorAngle, cfg)

	turn := 0.0
	switch {
	case front >= left && front >= right:
		turn = 0
	case left > right:
		turn = -0.3
	default:
		turn = 0.3
	}
	a.Heading = agent.NormalizeHeading(a.Heading + turn)

	speed := cfg.CellSizeWorldUnits * 0.5
	if speed <= 0 {
		speed = 1
	}
	nx := a.X + math.Cos(a.Heading)*speed
	ny := a.Y + math.Sin(a.Heading)*speed

	moved := tryMove(a, grid, nx, ny, cfg, rng)
	if moved {
		depositSlimeTrail(field, grid, a.X, a.Y, a.BenchmarkEnergy)
		a.PushPathMemory(toGridCell(grid.WorldToGrid(a.X, a.Y)))
	}

	distAfter := math.Hypot(goalX-a.X, goalY-a.Y)
	updateSlimeEnergy(a, field, grid, cfg, front, distBefore, distAfter)

	if clampToBounds(a, worldW, worldH) {
		// Struck the outer boundary: treat like a blocked-cell bump for the
		// wall-follow state so the next step tries to slide, not repeat.
		a.BenchmarkWallFollowFrames = cfg.WallFollowFrames
	}

	if a.BenchmarkEnergy <= 0 {
		enterRespawnCooldown(a, cfg)
		return false
	}

	reached := grid.WorldToGrid(a.X, a.Y) == goal
	if reached {
		ReinforceRecentPath(a, field, grid, a.BenchmarkEnergy)
		a.ReachedGoal = true
		a.ClearPathMemory()
	}
	return reached
}

// sampleBlended reads the field at a sensor offset in both the hidden goal
// channel (food_channel in spec terms) and the slime's own trail channel,
// blended by the configured food/trail weights.
func sampleBlended(field *trail.Field, grid *pathfind.Grid, x, y, heading, angleOffset float64, cfg config.BenchmarkConfig) float64 {
	a := heading + angleOffset
	sx := x + math.Cos(a)*sensorOffsetDist*grid.CellSize()
	sy := y + math.Sin(a)*sensorOffsetDist*grid.CellSize()
	cell := grid.WorldToGrid(sx, sy)
	if grid.IsBlocked(cell.X, cell.Y) {
		return -1 // obstacles read as strongly repulsive
	}
	food := float64(field.Sample(cell.X, cell.Y, field.GoalChannel()))
	own := float64(field.Sample(cell.X, cell.Y, slimeTrailChannel))
	return food*cfg.FoodWeight + own*cfg.TrailWeight
}

// tryMove attempts the tentative step; on a blocked cell it rotates through
// wallFollowOffsets (biased by the current wall-slide sign) and, failing
// all of them, rotates in place.
func tryMove(a *agent.Agent, grid *pathfind.Grid, nx, ny float64, cfg config.BenchmarkConfig, rng *rand.Rand) bool {
	cell := grid.WorldToGrid(nx, ny)
	if !grid.IsBlocked(cell.X, cell.Y) {
		a.X, a.Y = nx, ny
		if a.BenchmarkWallFollowFrames > 0 {
			a.BenchmarkWallFollowFrames--
		}
		return true
	}

	if a.BenchmarkWallFollowFrames <= 0 {
		if rng.Intn(2) == 0 {
			a.BenchmarkWallSlideSign = 1
		} else {
			a.BenchmarkWallSlideSign = -1
		}
		a.BenchmarkWallFollowFrames = cfg.WallFollowFrames
		if a.BenchmarkWallFollowFrames <= 0 {
			a.BenchmarkWallFollowFrames = 18
		}
	}

	for _, offset := range wallFollowOffsets {
		trial := a.Heading + float64(a.BenchmarkWallSlideSign)*offset
		tx := a.X + math.Cos(trial)*grid.CellSize()*0.5
		ty := a.Y + math.Sin(trial)*grid.CellSize()*0.5
		tc := grid.WorldToGrid(tx, ty)
		if !grid.IsBlocked(tc.X, tc.Y) {
			a.Heading = agent.NormalizeHeading(trial)
			a.BenchmarkWallSlideHeading = a.Heading
			a.X, a.Y = tx, ty
			return true
		}
	}

	a.Heading = agent.NormalizeHeading(a.Heading + float64(a.BenchmarkWallSlideSign)*0.7)
	return false
}

func depositSlimeTrail(field *trail.Field, grid *pathfind.Grid, x, y, energy float64) {
	cell := grid.WorldToGrid(x, y)
	amplitude := float32(energy)
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			manhattan := abs(dx) + abs(dy)
			if manhattan > 2 {
				continue
			}
			falloff := 1.0 - float32(manhattan)*0.3
			field.Deposit(cell.X+dx, cell.Y+dy, amplitude*falloff, slimeTrailChannel)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// updateSlimeEnergy applies base drain, food/trail gain, low-signal penalty,
// goal-field bonus, stale/sticky-trail penalties, and goal-progress
// reward/penalty, clamped to [0, MaxEnergy] per spec 4.8. distBefore/
// distAfter are the agent's Euclidean distance to the goal before and after
// this step's move, used for the progress reward/penalty.
func updateSlimeEnergy(a *agent.Agent, field *trail.Field, grid *pathfind.Grid, cfg config.BenchmarkConfig, frontSignal, distBefore, distAfter float64) {
	e := cfg.SlimeEnergy
	energy := a.BenchmarkEnergy
	energy -= e.BaseDrain

	cell := grid.WorldToGrid(a.X, a.Y)
	food := float64(field.Sample(cell.X, cell.Y, field.GoalChannel()))
	own := float64(field.Sample(cell.X, cell.Y, slimeTrailChannel))
	energy += food * e.FoodGain
	energy += own * e.TrailGain

	if frontSignal < 1e-6 {
		a.BenchmarkLowSignalFrames++
		energy -= e.LowSignalPenalty
	} else {
		a.BenchmarkLowSignalFrames = 0
	}
	if food > 0 {
		energy += e.GoalFieldBonus
	}
	if own > 8 && food < 1e-6 {
		energy -= e.StickyTrailPenalty
	}
	if own < 1e-6 {
		energy -= e.StaleTrailPenalty
	}

	if distAfter < distBefore {
		energy += e.GoalProgressReward
	} else if distAfter > distBefore {
		energy -= e.GoalProgressPenalty
	}
	a.BenchmarkPrevGoalDistance = distAfter

	if energy > e.MaxEnergy {
		energy = e.MaxEnergy
	}
	if energy < 0 {
		energy = 0
	}
	a.BenchmarkEnergy = energy
}

func clampToBounds(a *agent.Agent, worldW, worldH float64) bool {
	hit := false
	if a.X < 0 {
		a.X = 0
		hit = true
	}
	if a.X > worldW {
		a.X = worldW
		hit = true
	}
	if a.Y < 0 {
		a.Y = 0
		hit = true
	}
	if a.Y > worldH {
		a.Y = worldH
		hit = true
	}
	return hit
}

func enterRespawnCooldown(a *agent.Agent, cfg config.BenchmarkConfig) {
	a.BenchmarkAlive = false
	a.BenchmarkRespawnFrames = int(cfg.RespawnCooldownSecs)
	if a.BenchmarkRespawnFrames <= 0 {
		a.BenchmarkRespawnFrames = 1
	}
}

func stepRespawnCooldown(a *agent.Agent, cfg config.BenchmarkConfig) bool {
	a.BenchmarkRespawnFrames--
	if a.BenchmarkRespawnFrames > 0 {
		return false
	}
	a.X, a.Y = a.BenchmarkSpawnX, a.BenchmarkSpawnY
	a.BenchmarkEnergy = cfg.RespawnPartialEnergy
	a.BenchmarkAlive = true
	a.BenchmarkWallFollowFrames = 0
	a.BenchmarkPrevGoalDistance = -1
	return false
}

// ReinforceRecentPath lays a ramped 5x5-halo trail along the last 64
// visited cells once a slime reaches the goal, strongest at the most recent
// cell (100% strength) and weakest at the oldest (20%). It leaves the ring
// buffer as it is; SlimeStep clears it right after calling this on arrival.
func ReinforceRecentPath(a *agent.Agent, field *trail.Field, grid *pathfind.Grid, baseStrength float64) {
	path := a.PathMemory()
	n := len(path)
	if n == 0 {
		return
	}
	for i, cell := range path {
		ramp := 0.2 + 0.8*float64(i)/float64(max1(n-1))
		amplitude := float32(baseStrength * ramp)
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				manhattan := abs(dx) + abs(dy)
				if manhattan > 2 {
					continue
				}
				falloff := 1.0 - float32(manhattan)*0.3
				field.Deposit(cell.X+dx, cell.Y+dy, amplitude*falloff, slimeTrailChannel)
			}
		}
	}
}
