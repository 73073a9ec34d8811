package design

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/filter/biquad"
)

// ButterworthLP returns the sections of an order-n Butterworth lowpass.
// Odd orders end with a first-order section (B2 = A2 = 0).
func ButterworthLP(freq float64, order int, sampleRate float64) []biquad.Coefficients {
	return AppendButterworthLP(nil, freq, order, sampleRate)
}

// AppendButterworthLP appends the lowpass sections to dst. It does not
// allocate when dst has room for (order+1)/2 sections.
func AppendButterworthLP(dst []biquad.Coefficients, freq float64, order int, sampleRate float64) []biquad.Coefficients {
	if order <= 0 {
		return dst
	}

	for k := range order / 2 {
		dst = append(dst, Lowpass(freq, butterworthQ(order, k), sampleRate))
	}

	if order%2 == 1 {
		dst = append(dst, firstOrderLP(freq, sampleRate))
	}

	return dst
}

// butterworthQ returns the Q of the k-th conjugate pole pair.
func butterworthQ(order, k int) float64 {
	theta := math.Pi * float64(2*k+1) / float64(2*order)
	return 1 / (2 * math.Sin(theta))
}

func firstOrderLP(freq, sampleRate float64) biquad.Coefficients {
	k, ok := tanHalf(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	n := 1 / (1 + k)

	return biquad.Coefficients{B0: k * n, B1: k * n, A1: (k - 1) * n}
}

func tanHalf(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || freq <= 0 || freq >= sampleRate/2 {
		return 0, false
	}

	return math.Tan(math.Pi * freq / sampleRate), true
}
