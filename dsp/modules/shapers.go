package modules

import "math"

func hardClip(x, level float64) float64 {
	if x > level {
		return level
	}

	if x < -level {
		return -level
	}

	return x
}

// softClip is the cubic clipper normalised to unit output at |x| = 1.
func softClip(x float64) float64 {
	if math.Abs(x) < 1 {
		return 1.5 * (x - x*x*x/3)
	}

	return math.Copysign(1, x)
}

// wavefold reflects x back into [-1, 1] as often as needed.
func wavefold(x float64) float64 {
	if x >= -1 && x <= 1 {
		return x
	}

	// Triangle with period 4 through the origin.
	p := math.Mod(x+1, 4)
	if p < 0 {
		p += 4
	}

	if p > 2 {
		return 3 - p
	}

	return p - 1
}

// quantize rounds x to a grid of 2^bits steps per unit.
func quantize(x, bits float64) float64 {
	steps := math.Exp2(bits)

	return math.Round(x*steps) / steps
}

// sampleHold is a phase-accumulator sample-rate reducer.
type sampleHold struct {
	phase float64
	held  float64
}

// next returns the held value, capturing x whenever the accumulator wraps.
// A rate of 1 passes x through.
func (s *sampleHold) next(x, rate float64) float64 {
	if rate >= 1 {
		s.held = x
		return x
	}

	s.phase += rate
	if s.phase >= 1 {
		s.phase -= 1
		s.held = x
	}

	return s.held
}

func (s *sampleHold) reset() { *s = sampleHold{} }
