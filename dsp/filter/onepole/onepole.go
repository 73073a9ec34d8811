// Package onepole provides first-order smoothing building blocks: low/high
// pass filters for damping paths, a parameter smoother, and a peak envelope
// follower.
package onepole

import "math"

// LowPass is a one-pole low-pass filter y += a·(x − y).
type LowPass struct {
	alpha float64
	state float64
}

// Configure sets the -3 dB cutoff. A non-positive cutoff disables the
// filter so that Process passes the input through.
func (f *LowPass) Configure(cutoffHz, sampleRate float64) {
	if cutoffHz <= 0 || sampleRate <= 0 {
		f.alpha = 1
		return
	}

	f.alpha = 1 - math.Exp(-2*math.Pi*cutoffHz/sampleRate)
}

// Process filters one sample.
func (f *LowPass) Process(x float64) float64 {
	f.state += f.alpha * (x - f.state)
	if f.state > -1e-30 && f.state < 1e-30 {
		f.state = 0
	}

	return f.state
}

// ProcessBlock filters buf in place.
func (f *LowPass) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = f.Process(x)
	}
}

// Value returns the last output.
func (f *LowPass) Value() float64 { return f.state }

// Reset clears the filter state.
func (f *LowPass) Reset() { f.state = 0 }

// HighPass is the complement x − LowPass(x).
type HighPass struct {
	lp LowPass
}

// Configure sets the cutoff.
func (f *HighPass) Configure(cutoffHz, sampleRate float64) {
	f.lp.Configure(cutoffHz, sampleRate)
}

// Process filters one sample.
func (f *HighPass) Process(x float64) float64 {
	return x - f.lp.Process(x)
}

// Reset clears the filter state.
func (f *HighPass) Reset() { f.lp.Reset() }
