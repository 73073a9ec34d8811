package spectrum

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Scratch holds split real/imaginary buffers so magnitude extraction does
// not allocate on the audio path.
type Scratch struct {
	re, im []float64
}

// NewScratch allocates buffers for up to n bins.
func NewScratch(n int) *Scratch {
	return &Scratch{re: make([]float64, n), im: make([]float64, n)}
}

// Magnitudes writes |bins[k]| into dst and returns the count written, which
// is the smallest of the three capacities.
func (s *Scratch) Magnitudes(dst []float64, bins []complex128) int {
	n := min(len(dst), len(bins), len(s.re))
	if n == 0 {
		return 0
	}

	re, im := s.re[:n], s.im[:n]
	for i, c := range bins[:n] {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(dst[:n], re, im)

	return n
}

// Peak returns max |x|.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return vecmath.MaxAbs(x)
}

// RMS returns the root-mean-square level of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

// Energy returns the sum of squares of x.
func Energy(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return vecmath.DotProduct(x, x)
}
