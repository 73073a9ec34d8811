package onepole

import "math"

// Envelope is a peak follower with separate attack and release times.
type Envelope struct {
	attack  float64
	release float64
	level   float64
}

// NewEnvelope returns a follower with the given attack and release times.
func NewEnvelope(attackSeconds, releaseSeconds, sampleRate float64) *Envelope {
	e := &Envelope{}
	e.Configure(attackSeconds, releaseSeconds, sampleRate)

	return e
}

// Configure recomputes the attack and release coefficients.
func (e *Envelope) Configure(attackSeconds, releaseSeconds, sampleRate float64) {
	e.attack = timeCoeff(attackSeconds, sampleRate)
	e.release = timeCoeff(releaseSeconds, sampleRate)
}

// Process follows |x| and returns the envelope level.
func (e *Envelope) Process(x float64) float64 {
	in := math.Abs(x)
	if in > e.level {
		e.level = e.attack*e.level + (1-e.attack)*in
	} else {
		e.level = e.release*e.level + (1-e.release)*in
	}

	if e.level < 1e-30 {
		e.level = 0
	}

	return e.level
}

// Level returns the current envelope level.
func (e *Envelope) Level() float64 { return e.level }

// Reset clears the envelope.
func (e *Envelope) Reset() { e.level = 0 }

func timeCoeff(seconds, sampleRate float64) float64 {
	if seconds <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1 / (seconds * sampleRate))
}
