// Package weighting builds IEC 61672 A and C weighting filters as biquad
// cascades normalized to 0 dB at 1 kHz.
//
// C weighting is nearly flat through the bass register, which makes the
// C minus A level difference a quick indicator of how much low-end energy a
// patch carries.
package weighting

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/cwbudde/bassforge/dsp/filter/biquad"
)

// Analog prototype pole frequencies in Hz.
const (
	poleLow   = 20.598997 // double, A and C
	poleMidA1 = 107.65265
	poleMidA2 = 737.86223
	poleHigh  = 12194.217 // double, A and C

	referenceHz = 1000.0
)

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("weighting: unknown type")

// Type selects a weighting curve.
type Type int

const (
	TypeZ Type = iota // flat
	TypeA
	TypeC
)

func (t Type) String() string {
	switch t {
	case TypeA:
		return "A"
	case TypeC:
		return "C"
	case TypeZ:
		return "Z"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType accepts "a", "c", "z" and "none" in any case.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a":
		return TypeA, nil
	case "c":
		return TypeC, nil
	case "z", "none", "":
		return TypeZ, nil
	}

	return 0, fmt.Errorf("%w %q", ErrUnknownType, s)
}

// New returns a filter for t at sampleRate. The high pole must lie below
// Nyquist, so A and C need a rate above roughly 24.4 kHz.
func New(t Type, sampleRate float64) (*biquad.Chain, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("weighting: invalid sample rate %g", sampleRate)
	}

	var coeffs []biquad.Coefficients

	switch t {
	case TypeZ:
		return biquad.NewChain([]biquad.Coefficients{biquad.Identity()}), nil
	case TypeA:
		coeffs = []biquad.Coefficients{
			doubleHighpass(poleLow, sampleRate),
			highpass(poleMidA1, sampleRate),
			highpass(poleMidA2, sampleRate),
			lowpass(poleHigh, sampleRate),
			lowpass(poleHigh, sampleRate),
		}
	case TypeC:
		coeffs = []biquad.Coefficients{
			doubleHighpass(poleLow, sampleRate),
			lowpass(poleHigh, sampleRate),
			lowpass(poleHigh, sampleRate),
		}
	default:
		return nil, fmt.Errorf("%w %v", ErrUnknownType, t)
	}

	if poleHigh >= sampleRate/2 {
		return nil, fmt.Errorf("weighting: %v needs a sample rate above %g Hz", t, 2*poleHigh)
	}

	return biquad.NewChain(coeffs, biquad.WithGain(unityAt(coeffs, referenceHz, sampleRate))), nil
}

// Bilinear transform with K = tan(pi*f/sr) for each prototype section.

func lowpass(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * f / sr)
	d := 1 + k

	return biquad.Coefficients{B0: k / d, B1: k / d, A1: (k - 1) / d}
}

func highpass(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * f / sr)
	d := 1 + k

	return biquad.Coefficients{B0: 1 / d, B1: -1 / d, A1: (k - 1) / d}
}

// doubleHighpass is s^2 / (s + w)^2.
func doubleHighpass(f, sr float64) biquad.Coefficients {
	k := math.Tan(math.Pi * f / sr)
	k2 := k * k
	d := 1 + 2*k + k2

	return biquad.Coefficients{
		B0: 1 / d,
		B1: -2 / d,
		B2: 1 / d,
		A1: 2 * (k2 - 1) / d,
		A2: (1 - 2*k + k2) / d,
	}
}

func unityAt(coeffs []biquad.Coefficients, hz, sr float64) float64 {
	h := complex(1, 0)
	for _, c := range coeffs {
		h *= c.Response(hz, sr)
	}

	return 1 / cmplx.Abs(h)
}
