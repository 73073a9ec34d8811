package interp

import "math"

// Linear interpolates between x0 and x1 at t in [0, 1].
func Linear(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + c0
}

// Table reads a periodic table at phase in cycles. The integer part of phase
// is discarded, so any real phase is valid. An empty table yields 0.
func Table(table []float64, phase float64) float64 {
	n := len(table)
	if n == 0 {
		return 0
	}

	phase -= math.Floor(phase)
	pos := phase * float64(n)

	i := int(pos)
	if i >= n {
		i = n - 1
	}

	next := i + 1
	if next == n {
		next = 0
	}

	return Linear(pos-float64(i), table[i], table[next])
}

// Clamped reads buf at a fractional position with linear interpolation,
// clamping to the first and last samples instead of wrapping.
func Clamped(buf []float64, pos float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0
	}

	if pos <= 0 {
		return buf[0]
	}

	last := float64(n - 1)
	if pos >= last {
		return buf[n-1]
	}

	i := int(pos)

	return Linear(pos-float64(i), buf[i], buf[i+1])
}
