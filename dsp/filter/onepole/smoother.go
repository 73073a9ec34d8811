package onepole

import "math"

// settleRatio is how close to the target (relative) a smoother must get
// before it snaps and reports itself idle.
const settleRatio = 1e-4

// Smoother glides a parameter toward its target with a one-pole response
// that covers ~99% of a step within the configured time.
type Smoother struct {
	coeff   float64
	current float64
	target  float64
}

// NewSmoother returns a smoother with the given time constant, starting at
// initial.
func NewSmoother(seconds, sampleRate, initial float64) *Smoother {
	s := &Smoother{current: initial, target: initial}
	s.SetTime(seconds, sampleRate)

	return s
}

// SetTime updates the glide time. Zero or negative times jump immediately.
func (s *Smoother) SetTime(seconds, sampleRate float64) {
	if seconds <= 0 || sampleRate <= 0 {
		s.coeff = 1
		return
	}

	// ln(100) time constants reach 99% of the step.
	s.coeff = 1 - math.Exp(-math.Log(100)/(seconds*sampleRate))
}

// SetTarget sets the value to glide toward.
func (s *Smoother) SetTarget(v float64) { s.target = v }

// Target returns the current target.
func (s *Smoother) Target() float64 { return s.target }

// Snap jumps to v without gliding.
func (s *Smoother) Snap(v float64) {
	s.current = v
	s.target = v
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if s.current == s.target {
		return s.current
	}

	s.current += s.coeff * (s.target - s.current)
	if math.Abs(s.target-s.current) <= settleRatio*math.Max(1, math.Abs(s.target)) {
		s.current = s.target
	}

	return s.current
}

// Advance moves n samples forward and returns the value reached.
func (s *Smoother) Advance(n int) float64 {
	for range n {
		if s.current == s.target {
			break
		}

		s.Next()
	}

	return s.current
}

// Value returns the current smoothed value.
func (s *Smoother) Value() float64 { return s.current }

// IsSmoothing reports whether the value is still moving.
func (s *Smoother) IsSmoothing() bool { return s.current != s.target }
