package design

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/filter/biquad"
)

// DefaultQ is the Butterworth quality factor 1/sqrt(2).
const DefaultQ = 1 / math.Sqrt2

// rbj holds the intermediate cookbook terms shared by every designer.
type rbj struct {
	cos, sin, alpha float64
}

func newRBJ(freq, q, sampleRate float64) (rbj, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return rbj{}, false
	}

	if freq <= 0 || freq >= sampleRate/2 || math.IsNaN(freq) {
		return rbj{}, false
	}

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		q = DefaultQ
	}

	w0 := 2 * math.Pi * freq / sampleRate
	sw, cw := math.Sincos(w0)

	return rbj{cos: cw, sin: sw, alpha: sw / (2 * q)}, true
}

// Lowpass designs a second-order lowpass at freq with resonance q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b := (1 - r.cos) / 2

	return normalize(b, 2*b, b, 1+r.alpha, -2*r.cos, 1-r.alpha)
}

// Highpass designs a second-order highpass at freq with resonance q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b := (1 + r.cos) / 2

	return normalize(b, -2*b, b, 1+r.alpha, -2*r.cos, 1-r.alpha)
}

// Bandpass designs a constant 0 dB peak-gain bandpass.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalize(r.alpha, 0, -r.alpha, 1+r.alpha, -2*r.cos, 1-r.alpha)
}

// Notch designs a band-reject filter centred at freq.
func Notch(freq, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalize(1, -2*r.cos, 1, 1+r.alpha, -2*r.cos, 1-r.alpha)
}

// Allpass designs a second-order allpass centred at freq.
func Allpass(freq, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalize(1-r.alpha, -2*r.cos, 1+r.alpha, 1+r.alpha, -2*r.cos, 1-r.alpha)
}

// Peak designs a peaking EQ with gainDB boost or cut at freq.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)

	return normalize(1+r.alpha*a, -2*r.cos, 1-r.alpha*a, 1+r.alpha/a, -2*r.cos, 1-r.alpha/a)
}

// LowShelf designs a low shelf with gainDB below freq.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * r.alpha
	ap, am := a+1, a-1

	return normalize(
		a*(ap-am*r.cos+beta),
		2*a*(am-ap*r.cos),
		a*(ap-am*r.cos-beta),
		ap+am*r.cos+beta,
		-2*(am+ap*r.cos),
		ap+am*r.cos-beta,
	)
}

// HighShelf designs a high shelf with gainDB above freq.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	r, ok := newRBJ(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * r.alpha
	ap, am := a+1, a-1

	return normalize(
		a*(ap+am*r.cos+beta),
		-2*a*(am+ap*r.cos),
		a*(ap+am*r.cos-beta),
		ap-am*r.cos+beta,
		2*(am-ap*r.cos),
		ap-am*r.cos-beta,
	)
}

func normalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	inv := 1 / a0

	return biquad.Coefficients{B0: b0 * inv, B1: b1 * inv, B2: b2 * inv, A1: a1 * inv, A2: a2 * inv}
}
