// Package svf implements a topology-preserving (trapezoidal) state-variable
// filter. It stays stable under per-sample cutoff modulation, which is why
// the modulated filters use it instead of a biquad.
package svf

import "math"

// Mode selects which response Process returns.
type Mode int

const (
	Lowpass Mode = iota
	Highpass
	Bandpass
	Notch
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case Lowpass:
		return "lowpass"
	case Highpass:
		return "highpass"
	case Bandpass:
		return "bandpass"
	case Notch:
		return "notch"
	default:
		return "unknown"
	}
}

// MinQ keeps k = 1/Q finite.
const MinQ = 1e-3

// Outputs holds every response of one SVF step.
type Outputs struct {
	Low, Band, High float64
}

// Notch returns the band-reject response low + high.
func (o Outputs) Notch() float64 { return o.Low + o.High }

// Pick returns the response for mode m.
func (o Outputs) Pick(m Mode) float64 {
	switch m {
	case Highpass:
		return o.High
	case Bandpass:
		return o.Band
	case Notch:
		return o.Notch()
	default:
		return o.Low
	}
}

// Filter is a single-channel TPT state-variable filter.
type Filter struct {
	k          float64
	a1, a2, a3 float64
	ic1, ic2   float64
}

// New returns a filter configured for cutoff and q at sampleRate.
func New(cutoff, q, sampleRate float64) *Filter {
	f := &Filter{}
	f.SetParams(cutoff, q, sampleRate)

	return f
}

// SetParams recomputes the coefficients. Cutoff is limited to just below
// Nyquist. State is kept so the call is safe at audio rate.
func (f *Filter) SetParams(cutoff, q, sampleRate float64) {
	if sampleRate <= 0 {
		sampleRate = 48000
	}

	ratio := cutoff / sampleRate
	if ratio < 0 || math.IsNaN(ratio) {
		ratio = 0
	}

	if ratio > 0.499 {
		ratio = 0.499
	}

	if q < MinQ || math.IsNaN(q) {
		q = MinQ
	}

	g := math.Tan(math.Pi * ratio)
	f.k = 1 / q
	f.a1 = 1 / (1 + g*(g+f.k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

// Step advances the filter by one sample and returns all responses.
func (f *Filter) Step(x float64) Outputs {
	v3 := x - f.ic2
	v1 := f.a1*f.ic1 + f.a2*v3
	v2 := f.ic2 + f.a2*f.ic1 + f.a3*v3

	f.ic1 = flush(2*v1 - f.ic1)
	f.ic2 = flush(2*v2 - f.ic2)

	return Outputs{Low: v2, Band: v1, High: x - f.k*v1 - v2}
}

// Process advances one sample and returns the response selected by m.
func (f *Filter) Process(x float64, m Mode) float64 {
	return f.Step(x).Pick(m)
}

// ProcessBlock filters buf in place with mode m.
func (f *Filter) ProcessBlock(buf []float64, m Mode) {
	for i, x := range buf {
		buf[i] = f.Step(x).Pick(m)
	}
}

// Reset clears the integrator state.
func (f *Filter) Reset() {
	f.ic1, f.ic2 = 0, 0
}

func flush(v float64) float64 {
	if v > -1e-30 && v < 1e-30 {
		return 0
	}

	return v
}
