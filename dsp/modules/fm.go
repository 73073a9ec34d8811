package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	fmRatio = iota
	fmIndex
	fmMix
)

// FM phase-modulates a key-tracked sine carrier with the input signal:
// y = sin(phase + x·index).
type FM struct {
	base

	phases []float64
	dry    module.Buffer
}

// NewFM returns an FM distortion at unity ratio.
func NewFM() *FM {
	return &FM{base: newBase("fm", module.CategoryDistortion, []module.ParamSpec{
		param("ratio", 0, 4, 1, ""),
		param("index", 0, 10, 1, ""),
		param("mix", 0, 1, 1, ""),
	})}
}

// Prepare implements module.Module.
func (f *FM) Prepare(spec module.Spec) error {
	if err := f.begin(spec); err != nil {
		return err
	}

	f.phases = make([]float64, spec.Channels)
	f.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)

	return nil
}

// Reset implements module.Module.
func (f *FM) Reset() { clear(f.phases) }

// Process implements module.Module.
func (f *FM) Process(ctx module.Context, buf module.Buffer) {
	if !f.prepared {
		return
	}

	f.dirty = false
	carrier := core.Clamp(ctx.Frequency()*f.get(fmRatio), 20, 20000)
	delta := 2 * math.Pi * carrier / f.sampleRate()
	index := f.get(fmIndex)

	channels, n := f.extent(buf)
	copyDry(f.dry, buf, channels, n)

	for ch := range channels {
		phase := f.phases[ch]
		x := buf[ch][:n]

		for i, v := range x {
			x[i] = math.Sin(phase + v*index)

			phase += delta
			if phase >= 2*math.Pi {
				phase -= 2 * math.Pi
			}
		}

		f.phases[ch] = phase
	}

	mixBlock(buf, f.dry, channels, n, f.get(fmMix))
}
