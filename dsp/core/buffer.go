package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := len(dst)
	if len(src) < n {
		n = len(src)
	}
	copy(dst[:n], src[:n])
	return n
}

// Blend mixes processed samples in wet with the unprocessed dry signal:
// wet[i] = dry[i]*(1-mix) + wet[i]*mix. mix is clamped to [0, 1].
func Blend(wet, dry []float64, mix float64) {
	mix = Clamp(mix, 0, 1)
	if mix == 1 {
		return
	}

	n := min(len(wet), len(dry))
	dryGain := 1 - mix

	for i := range n {
		wet[i] = dry[i]*dryGain + wet[i]*mix
	}
}

// FlushUnderflowSlice applies FlushUnderflow to every element of buf.
func FlushUnderflowSlice(buf []float64) {
	for i, v := range buf {
		buf[i] = FlushUnderflow(v)
	}
}
