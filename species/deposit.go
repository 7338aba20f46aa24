package species

import (
	"math"

	"github.com/pthm-cable/physarum/trail"
)

// baseDepositAmount is the per-step deposit amplitude before any
// archetype-specific pattern or genome scaling is applied.
const baseDepositAmount = 6.0

// Deposit emits the archetype's species-specific pattern into field at
// (x, y) for speciesIndex, driven by stateTimer for the time-varying
// patterns (segmented duty cycle, radial rings, periodic bursts).
func Deposit(p Policy, field *trail.Field, speciesIndex int, x, y float64, heading, stateTimer float64, mode int) {
	cx, cy := int(math.Round(x)), int(math.Round(y))

	switch p.Archetype {
	case Bully:
		depositThickArterial(field, speciesIndex, cx, cy)
	case Altruistic:
		depositNetwork(field, speciesIndex, cx, cy)
	case Nomad:
		depositSegmented(field, speciesIndex, cx, cy, stateTimer)
	case Alien:
		depositAlien(field, speciesIndex, cx, cy, stateTimer, mode)
	case OrderEnforcer:
		depositRadialRings(field, speciesIndex, cx, cy, stateTimer)
	case Parasitic:
		depositParasitic(field, speciesIndex, cx, cy, mode)
	case Destroyer:
		depositDestructive(field, speciesIndex, cx, cy)
	case Devourer:
		depositProtective(field, speciesIndex, cx, cy)
	default:
		field.Deposit(cx, cy, baseDepositAmount, speciesIndex)
	}
}

// depositThickArterial lays a small gaussian disc of radius ~1.
func depositThickArterial(field *trail.Field, species, cx, cy int) {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			dist2 := float64(dx*dx + dy*dy)
			amt := baseDepositAmount * math.Exp(-dist2/1.5)
			field.Deposit(cx+dx, cy+dy, float32(amt), species)
		}
	}
}

// depositNetwork lays a cross of 8 short rays.
func depositNetwork(field *trail.Field, species, cx, cy int) {
	field.Deposit(cx, cy, baseDepositAmount, species)
	dirs := [8][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	for _, d := range dirs {
		for r := 1; r <= 3; r++ {
			amt := baseDepositAmount * (1 - float64(r)/4)
			field.Deposit(cx+d[0]*r, cy+d[1]*r, float32(amt), species)
		}
	}
}

// depositSegmented runs an on/off duty cycle of roughly 75%.
func depositSegmented(field *trail.Field, species, cx, cy int, stateTimer float64) {
	const dutyCycle = 0.75
	phase := math.Mod(stateTimer, 1.0)
	if phase > dutyCycle {
		return
	}
	field.Deposit(cx, cy, baseDepositAmount, species)
}

// depositRadialRings emits concentric pulses whose phase advances with time.
func depositRadialRings(field *trail.Field, species, cx, cy int, stateTimer float64) {
	const maxRadius = 4
	phase := math.Mod(stateTimer*2, float64(maxRadius))
	ring := int(math.Round(phase))
	for dy := -maxRadius; dy <= maxRadius; dy++ {
		for dx := -maxRadius; dx <= maxRadius; dx++ {
			r := int(math.Round(math.Hypot(float64(dx), float64(dy))))
			if r != ring {
				continue
			}
			field.Deposit(cx+dx, cy+dy, baseDepositAmount*0.5, species)
		}
	}
}

// depositAlien picks one of several mode-keyed patterns: tunneled sparse
// point, jittered cluster, periodic burst, cross, or random.
func depositAlien(field *trail.Field, species, cx, cy int, stateTimer float64, mode int) {
	switch mode % 5 {
	case 0:
		field.Deposit(cx, cy, baseDepositAmount*0.4, species)
	case 1:
		jitterX := int(math.Round(math.Sin(stateTimer*7) * 2))
		jitterY := int(math.Round(math.Cos(stateTimer*5) * 2))
		field.Deposit(cx+jitterX, cy+jitterY, baseDepositAmount*0.8, species)
	case 2:
		if math.Mod(stateTimer, 2.0) < 0.2 {
			field.Deposit(cx, cy, baseDepositAmount*3, species)
		}
	case 3:
		depositNetwork(field, species, cx, cy)
	default:
		field.Deposit(cx, cy, baseDepositAmount, species)
	}
}

// depositParasitic lays a stealth outline with infiltration tendrils; mode 1
// switches to a burst disc when the parasite is locally saturated.
func depositParasitic(field *trail.Field, species, cx, cy int, mode int) {
	if mode == 1 {
		depositThickArterial(field, species, cx, cy)
		return
	}
	field.Deposit(cx, cy, baseDepositAmount*0.3, species)
	dirs := [4][2]int{{2, 0}, {-2, 0}, {0, 2}, {0, -2}}
	for _, d := range dirs {
		field.Deposit(cx+d[0], cy+d[1], baseDepositAmount*0.2, species)
	}
}

// depositDestructive deposits a strong center and erases neighboring
// other-channel cells.
func depositDestructive(field *trail.Field, species, cx, cy int) {
	field.Deposit(cx, cy, baseDepositAmount*2, species)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			field.EatAnySpecies(cx+dx, cy+dy, species, baseDepositAmount)
		}
	}
}

// depositProtective self-deposits, then additively enhances all nearby
// other-channel cells within a 5x5 area.
func depositProtective(field *trail.Field, species, cx, cy int) {
	field.Deposit(cx, cy, baseDepositAmount, species)
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			for c := 0; c < field.NumSpecies()+1; c++ {
				if c == species {
					continue
				}
				field.Deposit(cx+dx, cy+dy, 0.5, c)
			}
		}
	}
}
