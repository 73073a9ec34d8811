package dither

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Quantizer maps samples in [-1, 1] onto signed integers of a fixed bit
// depth. One Quantizer serves one channel; shaping state is per instance.
type Quantizer struct {
	bitDepth  int
	typ       Type
	amplitude float64
	shaper    *shelfShaper
	rng       *rand.Rand

	scale float64
	lo    int
	hi    int
	clips int
}

// NewQuantizer creates a Quantizer. Defaults: 16 bit, TPDF dither of
// 1 LSB, no noise shaping.
func NewQuantizer(sampleRate float64, opts ...Option) (*Quantizer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("dither: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.shelfFreq >= sampleRate/2 {
		return nil, fmt.Errorf("dither: shelf frequency %f above Nyquist", cfg.shelfFreq)
	}

	seed := cfg.seed
	if !cfg.seeded {
		seed = rand.Uint64()
	}

	q := &Quantizer{
		bitDepth:  cfg.bitDepth,
		typ:       cfg.typ,
		amplitude: cfg.amplitude,
		rng:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}

	if cfg.shelfFreq > 0 {
		q.shaper = newShelfShaper(cfg.shelfFreq, sampleRate)
	}

	full := math.Exp2(float64(q.bitDepth - 1))
	q.scale = full - 1
	q.lo = -int(full)
	q.hi = int(full) - 1

	return q, nil
}

// Quantize converts one sample.
func (q *Quantizer) Quantize(x float64) int {
	if math.IsNaN(x) {
		x = 0
	}

	scaled := x * q.scale
	if q.shaper != nil {
		scaled = q.shaper.shape(scaled)
	}

	v := math.Round(scaled + q.noise())

	out := int(max(float64(q.lo), min(float64(q.hi), v)))
	if float64(out) != v {
		q.clips++
	}

	if q.shaper != nil {
		q.shaper.record(float64(out) - scaled)
	}

	return out
}

// QuantizeBlock converts src into dst[:len(src)] and returns the count.
func (q *Quantizer) QuantizeBlock(dst []int, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = q.Quantize(src[i])
	}

	return n
}

func (q *Quantizer) noise() float64 {
	switch q.typ {
	case Rectangular:
		return q.amplitude * (q.rng.Float64() - 0.5)
	case Triangular:
		return q.amplitude * (q.rng.Float64() - q.rng.Float64())
	default:
		return 0
	}
}

// Reset clears the shaping history and the clip counter.
func (q *Quantizer) Reset() {
	if q.shaper != nil {
		q.shaper.reset()
	}

	q.clips = 0
}

// BitDepth returns the target bit depth.
func (q *Quantizer) BitDepth() int { return q.bitDepth }

// Type returns the dither type.
func (q *Quantizer) Type() Type { return q.typ }

// Clips returns how many samples were limited to the integer range.
func (q *Quantizer) Clips() int { return q.clips }

// Scale returns the integer value of a full-scale positive sample.
func (q *Quantizer) Scale() float64 { return q.scale }
