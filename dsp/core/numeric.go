package core

import "math"

const defaultEpsilon = 1e-12

// UnderflowThreshold is the magnitude below which recursive filter state is
// snapped to zero by FlushUnderflow.
const UnderflowThreshold = 1e-10

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// ClampInt limits value to the inclusive range [min, max].
func ClampInt(value, min, max int) int {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// NearlyEqual reports whether a and b are equal within eps.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals converts tiny denormal-like values to exact zero.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// FlushUnderflow zeroes x when |x| < UnderflowThreshold. Recursive state in
// one-pole cascades and feedback paths is passed through it once per block.
func FlushUnderflow(x float64) float64 {
	if x > -UnderflowThreshold && x < UnderflowThreshold {
		return 0
	}

	return x
}

// Lerp blends a toward b by t (t=0 gives a, t=1 gives b).
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// MapRange maps v from [0, 1] onto [lo, hi] without clamping.
func MapRange(v, lo, hi float64) float64 {
	return lo + (hi-lo)*v
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}
