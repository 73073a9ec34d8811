package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	bankFreq = iota
	bankQ
	bankDepth
	bankRatio
	bankType
	bankMix
	bankKeyTrack
)

// bankTrackReference is the pitch at which the tracked base equals freq.
const bankTrackReference = 100.0

// FractalBank runs every fractal stage on the same input in parallel and
// sums the stage outputs with decaying levels.
type FractalBank struct {
	base

	stages  [][MaxFractalDepth]biquad.Section
	scratch []float64
	acc     []float64
	dry     module.Buffer
	centers [MaxFractalDepth]float64
	gain    [MaxFractalDepth]float64
	target  [MaxFractalDepth]float64
	tracked float64
	primed  bool
}

// NewFractalBank returns a parallel fractal filter bank.
func NewFractalBank() *FractalBank {
	return &FractalBank{base: newBase("fractal-bank", module.CategoryFilter, []module.ParamSpec{
		param("freq", 20, 20000, 100, "Hz"),
		param("q", 0.5, 20, 4, ""),
		{Name: "depth", Min: 2, Max: MaxFractalDepth, Default: 4, Discrete: true},
		param("ratio", 1, 3, core.GoldenRatio, ""),
		enum("type", stageBandpass, "lowpass", "highpass", "bandpass"),
		param("mix", 0, 1, 1, ""),
		param("keyTrack", 0, 1, 1, ""),
	})}
}

// Prepare implements module.Module.
func (b *FractalBank) Prepare(spec module.Spec) error {
	if err := b.begin(spec); err != nil {
		return err
	}

	b.stages = make([][MaxFractalDepth]biquad.Section, spec.Channels)
	b.scratch = make([]float64, spec.MaxBlockSize)
	b.acc = make([]float64, spec.MaxBlockSize)
	b.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	b.tracked = 0
	b.primed = false

	return nil
}

// Reset implements module.Module.
func (b *FractalBank) Reset() {
	for ch := range b.stages {
		for i := range b.stages[ch] {
			b.stages[ch][i].Reset()
		}
	}

	b.primed = false
	b.dirty = true
}

// Centers copies the active stage centre frequencies into dst.
func (b *FractalBank) Centers(dst []float64) int {
	n := min(len(dst), b.getInt(bankDepth))

	return copy(dst, b.centers[:n])
}

// baseFrequency applies key tracking relative to bankTrackReference.
func (b *FractalBank) baseFrequency(ctx module.Context) float64 {
	freq := b.get(bankFreq)
	if !ctx.HasTracker() {
		return freq
	}

	f := freq * trackRatio(ctx.Frequency()/bankTrackReference, b.get(bankKeyTrack))

	return core.Clamp(f, 50, b.sampleRate()/2-100)
}

func (b *FractalBank) update(base float64) {
	ratio := b.get(bankRatio)
	q := b.get(bankQ)
	kind := b.getInt(bankType)
	depth := b.getInt(bankDepth)

	freq := base
	sum := 0.0

	for i := range MaxFractalDepth {
		center := b.nyquistGuard(freq, fractalGuard)
		b.centers[i] = center
		c := stageCoefficients(kind, center, q/(1+0.2*float64(i)), b.sampleRate())

		for ch := range b.stages {
			b.stages[ch][i].Coefficients = c
		}

		b.target[i] = 0
		if i < depth {
			b.target[i] = 1 / (1 + 0.35*float64(i))
			sum += b.target[i]
		}

		freq *= ratio
	}

	for i := range depth {
		b.target[i] /= sum
	}

	if !b.primed {
		b.gain = b.target
		b.primed = true
	}

	b.tracked = base
	b.dirty = false
}

// Process implements module.Module.
func (b *FractalBank) Process(ctx module.Context, buf module.Buffer) {
	if !b.prepared {
		return
	}

	base := b.baseFrequency(ctx)
	if b.dirty || math.Abs(base-b.tracked) > 1 {
		b.update(base)
	}

	channels, n := b.extent(buf)
	if n == 0 {
		return
	}

	copyDry(b.dry, buf, channels, n)

	step := 1 / float64(n)
	for ch := range channels {
		acc := b.acc[:n]
		clear(acc)

		for i := range MaxFractalDepth {
			s := b.scratch[:n]
			copy(s, b.dry[ch][:n])
			b.stages[ch][i].ProcessBlock(s)

			g0, g1 := b.gain[i], b.target[i]
			if g0 == 0 && g1 == 0 {
				continue
			}

			// Level changes are ramped across the block.
			d := (g1 - g0) * step
			for j, v := range s {
				acc[j] += v * (g0 + d*float64(j+1))
			}
		}

		copy(buf[ch][:n], acc)
	}

	b.gain = b.target
	mixBlock(buf, b.dry, channels, n, b.get(bankMix))
}
