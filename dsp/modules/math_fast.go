//go:build fastmath

package modules

import (
	"github.com/meko-christian/algo-approx"
)

// mathTanh evaluates tanh through the fast exponential. Arguments beyond
// ±20 saturate to avoid overflow in the approximation.
func mathTanh(x float64) float64 {
	if x > 20 {
		return 1
	}

	if x < -20 {
		return -1
	}

	e := approx.FastExp(2 * x)

	return (e - 1) / (e + 1)
}

func mathExp(x float64) float64 { return approx.FastExp(x) }

func mathSqrt(x float64) float64 { return approx.FastSqrt(x) }
