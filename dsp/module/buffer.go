package module

// Buffer is a planar multichannel block: Buffer[ch][i].
type Buffer [][]float64

// NewBuffer allocates a zeroed buffer.
func NewBuffer(channels, samples int) Buffer {
	b := make(Buffer, channels)
	for i := range b {
		b[i] = make([]float64, samples)
	}

	return b
}

// NumChannels returns the channel count.
func (b Buffer) NumChannels() int { return len(b) }

// NumSamples returns the length of the first channel.
func (b Buffer) NumSamples() int {
	if len(b) == 0 {
		return 0
	}

	return len(b[0])
}

// Channel returns channel i.
func (b Buffer) Channel(i int) []float64 { return b[i] }

// Slice returns a view of samples [0, n) of every channel, reusing dst's
// backing array when it has room.
func (b Buffer) Slice(dst Buffer, n int) Buffer {
	dst = dst[:0]
	for _, ch := range b {
		dst = append(dst, ch[:n])
	}

	return dst
}

// CopyFrom copies src into b channel by channel over the common extent.
func (b Buffer) CopyFrom(src Buffer) {
	for ch := range min(len(b), len(src)) {
		copy(b[ch], src[ch])
	}
}

// Clear zeroes every channel.
func (b Buffer) Clear() {
	for _, ch := range b {
		clear(ch)
	}
}
