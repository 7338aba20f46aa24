// Package trail implements the multi-channel scalar pheromone grid agents
// deposit to and sense from.
package trail

import (
	"math"
	"sync"
)

// Field is a width x height grid replicated once per channel (one channel
// per species, plus one reserved channel for the benchmark goal scent).
// Each channel owns two buffers to support ping-pong diffusion.
type Field struct {
	width, height int
	numChannels   int

	data     [][]float32 // data[channel][y*width+x]
	scratch  [][]float32 // ping-pong target for diffuse/blur

	ceiling float32
}

// GoalChannel is the reserved channel index carrying the benchmark goal scent.
// It is always the last channel.
func (f *Field) GoalChannel() int { return f.numChannels - 1 }

// NewField allocates a trail field with numSpecies ordinary channels plus one
// reserved goal-scent channel. Dimensions must be positive; this is the one
// place allocation failure is fatal (AllocationFailure), since a field with
// non-positive extents can never serve a simulation.
func NewField(width, height, numSpecies int) *Field {
	if width <= 0 || height <= 0 {
		panic("trail: width and height must be positive")
	}
	if numSpecies < 1 {
		numSpecies = 1
	}
	numChannels := numSpecies + 1
	size := width * height

	f := &Field{
		width:       width,
		height:      height,
		numChannels: numChannels,
		data:        make([][]float32, numChannels),
		scratch:     make([][]float32, numChannels),
		ceiling:     1000,
	}
	for c := 0; c < numChannels; c++ {
		f.data[c] = make([]float32, size)
		f.scratch[c] = make([]float32, size)
	}
	return f
}

func (f *Field) Width() int  { return f.width }
func (f *Field) Height() int { return f.height }

// NumSpecies is the number of ordinary (non-goal-scent) channels.
func (f *Field) NumSpecies() int { return f.numChannels - 1 }

func (f *Field) inBounds(x, y int) bool {
	return x >= 0 && x < f.width && y >= 0 && y < f.height
}

func (f *Field) index(x, y int) int { return y*f.width + x }

func (f *Field) validChannel(species int) bool {
	return species >= 0 && species < f.numChannels
}

// Deposit adds a non-negative amount to one cell. Out-of-range coordinates or
// channel indices are a silent no-op.
func (f *Field) Deposit(x, y int, amount float32, species int) {
	if amount <= 0 || !f.inBounds(x, y) || !f.validChannel(species) {
		return
	}
	idx := f.index(x, y)
	v := f.data[species][idx] + amount
	if v > f.ceiling {
		v = f.ceiling
	}
	f.data[species][idx] = v
}

// Sample returns a cell's intensity; out-of-range or invalid channel returns 0.
func (f *Field) Sample(x, y int, species int) float32 {
	if !f.inBounds(x, y) || !f.validChannel(species) {
		return 0
	}
	return f.data[species][f.index(x, y)]
}

// Eat subtracts up to maxBite from a cell, never below zero, returning the
// amount actually removed.
func (f *Field) Eat(x, y int, species int, maxBite float32) float32 {
	if maxBite <= 0 || !f.inBounds(x, y) || !f.validChannel(species) {
		return 0
	}
	idx := f.index(x, y)
	have := f.data[species][idx]
	consumed := maxBite
	if consumed > have {
		consumed = have
	}
	f.data[species][idx] = have - consumed
	return consumed
}

// EatAnySpecies loops every channel except the caller's species and consumes
// up to maxTotal across them, returning the total amount removed.
func (f *Field) EatAnySpecies(x, y int, species int, maxTotal float32) float32 {
	if maxTotal <= 0 || !f.inBounds(x, y) {
		return 0
	}
	idx := f.index(x, y)
	remaining := maxTotal
	var consumed float32
	for c := 0; c < f.numChannels && remaining > 0; c++ {
		if c == species {
			continue
		}
		have := f.data[c][idx]
		take := remaining
		if take > have {
			take = have
		}
		f.data[c][idx] = have - take
		consumed += take
		remaining -= take
	}
	return consumed
}

// interactionThreshold is the minimum own/other trail strength above which
// the synergy/competition multiplier kicks in (spec 4.1).
const interactionThreshold = 0.1

// SampleSpeciesInteraction returns the weighted sum of same-channel intensity
// times selfWeight plus the sum of other channels times otherWeight. When
// both own and other trails exceed interactionThreshold, a synergy
// (both weights positive: cooperative), competition (both negative:
// territorial), or avoidant (opposite signs) multiplier is applied.
func (f *Field) SampleSpeciesInteraction(x, y int, species int, selfWeight, otherWeight float32) float32 {
	if !f.inBounds(x, y) || !f.validChannel(species) {
		return 0
	}
	idx := f.index(x, y)
	own := f.data[species][idx]

	var otherSum float32
	for c := 0; c < f.numChannels; c++ {
		if c == species {
			continue
		}
		otherSum += f.data[c][idx]
	}

	total := own*selfWeight + otherSum*otherWeight
	if own > interactionThreshold && otherSum > interactionThreshold {
		total *= interactionMultiplier(selfWeight, otherWeight)
	}
	return total
}

// interactionMultiplier keys a gain on the signs of the two weights: mutual
// positive weights reinforce (cooperative colonies compound), mutual
// negative weights sharpen avoidance (territorial standoff), and mixed signs
// are left alone (one side attracts, the other repels; no extra bias).
func interactionMultiplier(selfWeight, otherWeight float32) float32 {
	switch {
	case selfWeight > 0 && otherWeight > 0:
		return 1.25
	case selfWeight < 0 && otherWeight < 0:
		return 1.15
	default:
		return 1.0
	}
}

// diffusionKernel is the separable 3x3 gaussian-like weight set {1,2,1}/4
// applied in both axes (spec 4.1).
var diffusionKernel = [3]float32{0.25, 0.5, 0.25}

// Diffuse applies the separable 3x3 kernel to interior cells of every
// channel, then blends the result with the source by rate (0 = no
// diffusion, 1 = full replace). Border cells copy through unchanged.
// Channels are independent, so they diffuse in parallel.
func (f *Field) Diffuse(rate float32) {
	if rate <= 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(f.numChannels)
	for c := 0; c < f.numChannels; c++ {
		go func(c int) {
			defer wg.Done()
			f.diffuseChannel(c, rate)
		}(c)
	}
	wg.Wait()
}

func (f *Field) diffuseChannel(c int, rate float32) {
	src := f.data[c]
	dst := f.scratch[c]
	w, h := f.width, f.height

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if x == 0 || x == w-1 || y == 0 || y == h-1 {
				dst[idx] = src[idx]
				continue
			}
			var blurred float32
			for dy := -1; dy <= 1; dy++ {
				rowWeight := diffusionKernel[dy+1]
				base := idx + dy*w
				for dx := -1; dx <= 1; dx++ {
					blurred += src[base+dx] * rowWeight * diffusionKernel[dx+1]
				}
			}
			dst[idx] = src[idx]*(1-rate) + blurred*rate
		}
	}
	copy(src, dst)
}

// Decay multiplies every cell in every channel by (1 - rate).
func (f *Field) Decay(rate float32) {
	if rate <= 0 {
		return
	}
	keep := 1 - rate
	if keep < 0 {
		keep = 0
	}
	var wg sync.WaitGroup
	wg.Add(f.numChannels)
	for c := 0; c < f.numChannels; c++ {
		go func(c int) {
			defer wg.Done()
			data := f.data[c]
			for i := range data {
				data[i] *= keep
			}
		}(c)
	}
	wg.Wait()
}

// blurKernel favors the center cell heavily (spec 4.1: center 4, neighbors 1).
var blurKernel = [9]float32{
	1, 1, 1,
	1, 4, 1,
	1, 1, 1,
}

const blurKernelSum = 12
const blurThreshold = 0.01
const blurStrength = 0.4

// ApplyBlur smooths cells exceeding blurThreshold with a center-weighted
// kernel blended at blurStrength. Intended to run every few steps, not
// every step.
func (f *Field) ApplyBlur() {
	var wg sync.WaitGroup
	wg.Add(f.numChannels)
	for c := 0; c < f.numChannels; c++ {
		go func(c int) {
			defer wg.Done()
			f.blurChannel(c)
		}(c)
	}
	wg.Wait()
}

func (f *Field) blurChannel(c int) {
	src := f.data[c]
	dst := f.scratch[c]
	w, h := f.width, f.height
	copy(dst, src)

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			idx := y*w + x
			if src[idx] <= blurThreshold {
				continue
			}
			var sum float32
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					sum += src[idx+dy*w+dx] * blurKernel[k]
					k++
				}
			}
			blurred := sum / blurKernelSum
			dst[idx] = src[idx]*(1-blurStrength) + blurred*blurStrength
		}
	}
	copy(src, dst)
}

// DepositAnisotropic rasterizes an oriented 2D gaussian into species over the
// bounding box where the exponent exceeds -10, amplitude scaled by amount.
func (f *Field) DepositAnisotropic(centerX, centerY int, heading float64, sigmaParallel, sigmaPerp, amount float32, species int) {
	if amount <= 0 || !f.validChannel(species) {
		return
	}
	if sigmaParallel < 0.1 {
		sigmaParallel = 0.1
	}
	if sigmaPerp < 0.1 {
		sigmaPerp = 0.1
	}

	ca := float32(math.Cos(heading))
	sa := float32(math.Sin(heading))

	radiusX := int(math.Ceil(3 * math.Max(float64(sigmaParallel*abs32(ca)), float64(sigmaPerp*abs32(sa)))))
	radiusY := int(math.Ceil(3 * math.Max(float64(sigmaParallel*abs32(sa)), float64(sigmaPerp*abs32(ca)))))

	minX, maxX := clampInt(centerX-radiusX, 0, f.width-1), clampInt(centerX+radiusX, 0, f.width-1)
	minY, maxY := clampInt(centerY-radiusY, 0, f.height-1), clampInt(centerY+radiusY, 0, f.height-1)

	norm := 1.0 / (2 * math.Pi * float64(sigmaParallel) * float64(sigmaPerp))
	data := f.data[species]

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float32(x - centerX)
			dy := float32(y - centerY)
			u := ca*dx + sa*dy
			v := -sa*dx + ca*dy

			exponent := -0.5 * (float64(u*u)/float64(sigmaParallel*sigmaParallel) + float64(v*v)/float64(sigmaPerp*sigmaPerp))
			if exponent < -10 {
				continue
			}
			value := float32(norm*math.Exp(exponent)) * amount
			idx := y*f.width + x
			v2 := data[idx] + value
			if v2 > f.ceiling {
				v2 = f.ceiling
			}
			data[idx] = v2
		}
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clear zeroes every channel, leaving dimensions intact.
func (f *Field) Clear() {
	for c := 0; c < f.numChannels; c++ {
		data := f.data[c]
		for i := range data {
			data[i] = 0
		}
	}
}

// ChannelSnapshot returns a copy of one channel's cell data, row-major, for
// read-only consumption by a renderer; the caller never observes a
// torn/partial write since it's a copy, not a view into the live buffer.
func (f *Field) ChannelSnapshot(species int) []float32 {
	if !f.validChannel(species) {
		return nil
	}
	out := make([]float32, len(f.data[species]))
	copy(out, f.data[species])
	return out
}

// SumInterior returns the sum of interior cells (excluding the border ring)
// of one channel; used by conservation tests.
func (f *Field) SumInterior(species int) float64 {
	if !f.validChannel(species) {
		return 0
	}
	data := f.data[species]
	var sum float64
	for y := 1; y < f.height-1; y++ {
		for x := 1; x < f.width-1; x++ {
			sum += float64(data[y*f.width+x])
		}
	}
	return sum
}
