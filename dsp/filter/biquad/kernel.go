package biquad

import (
	"sync"

	"github.com/cwbudde/algo-vecmath/cpu"
)

// kernelFn filters buf in place and returns the final delay state.
type kernelFn func(c Coefficients, d0, d1 float64, buf []float64) (float64, float64)

var (
	blockKernel kernelFn
	kernelOnce  sync.Once
)

func selectKernel() {
	blockKernel = kernelFor(cpu.DetectFeatures())
}

// kernelFor picks the unrolled kernel unless generic code paths are forced.
func kernelFor(f cpu.Features) kernelFn {
	if f.ForceGeneric {
		return processScalar
	}

	return processUnrolled2
}

func processScalar(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	for i, x := range buf {
		y := c.B0*x + d0
		d0 = c.B1*x - c.A1*y + d1
		d1 = c.B2*x - c.A2*y
		buf[i] = y
	}

	return d0, d1
}

// processUnrolled2 handles two samples per iteration to shorten the
// dependency chain between loop bookkeeping and the recursion.
func processUnrolled2(c Coefficients, d0, d1 float64, buf []float64) (float64, float64) {
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	n := len(buf)
	i := 0

	for ; i+1 < n; i += 2 {
		x0 := buf[i]
		y0 := b0*x0 + d0
		t0 := b1*x0 - a1*y0 + d1
		t1 := b2*x0 - a2*y0

		x1 := buf[i+1]
		y1 := b0*x1 + t0
		d0 = b1*x1 - a1*y1 + t1
		d1 = b2*x1 - a2*y1

		buf[i], buf[i+1] = y0, y1
	}

	if i < n {
		x := buf[i]
		y := b0*x + d0
		d0 = b1*x - a1*y + d1
		d1 = b2*x - a2*y
		buf[i] = y
	}

	return d0, d1
}
