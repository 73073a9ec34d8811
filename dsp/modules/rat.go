package modules

import (
	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	ratDrive = iota
	ratTone
	ratLevel
)

// Rat is a hard-clipping pedal: up to 40 dB of gain into a ±1 clipper,
// a sweepable low-pass tone control and an output level.
type Rat struct {
	base

	tone    []biquad.Section
	inGain  *onepole.Smoother
	outGain *onepole.Smoother
}

// NewRat returns a Rat distortion.
func NewRat() *Rat {
	return &Rat{base: newBase("rat", module.CategoryDistortion, []module.ParamSpec{
		param("drive", 0, 1, 0.5, ""),
		param("tone", 0, 1, 0.5, ""),
		param("level", 0, 1, 0.75, ""),
	})}
}

func (r *Rat) targets() (in, out float64) {
	return core.DBToLinear(r.get(ratDrive) * 40), core.DBToLinear(core.Lerp(-20, 0, r.get(ratLevel)))
}

// Prepare implements module.Module.
func (r *Rat) Prepare(spec module.Spec) error {
	if err := r.begin(spec); err != nil {
		return err
	}

	r.tone = make([]biquad.Section, spec.Channels)
	in, out := r.targets()
	r.inGain = onepole.NewSmoother(gainGlide, spec.SampleRate, in)
	r.outGain = onepole.NewSmoother(gainGlide, spec.SampleRate, out)

	return nil
}

// Reset implements module.Module.
func (r *Rat) Reset() {
	for ch := range r.tone {
		r.tone[ch].Reset()
	}

	if r.inGain != nil {
		in, out := r.targets()
		r.inGain.Snap(in)
		r.outGain.Snap(out)
	}

	r.dirty = true
}

// Process implements module.Module.
func (r *Rat) Process(_ module.Context, buf module.Buffer) {
	if !r.prepared {
		return
	}

	if r.dirty {
		cutoff := r.nyquistGuard(core.Lerp(20000, 500, r.get(ratTone)), r.sampleRate()*0.05)
		c := design.Lowpass(cutoff, design.DefaultQ, r.sampleRate())

		for ch := range r.tone {
			r.tone[ch].Coefficients = c
		}

		in, out := r.targets()
		r.inGain.SetTarget(in)
		r.outGain.SetTarget(out)
		r.dirty = false
	}

	channels, n := r.extent(buf)
	gin, gout := r.inGain.Value(), r.outGain.Value()
	inEnd, outEnd := r.inGain.Advance(n), r.outGain.Advance(n)
	step := 1 / float64(max(n, 1))

	for ch := range channels {
		x := buf[ch][:n]
		for i, v := range x {
			g := gin + (inEnd-gin)*step*float64(i+1)
			x[i] = hardClip(v*g, 1)
		}

		r.tone[ch].ProcessBlock(x)

		for i := range x {
			x[i] *= gout + (outEnd-gout)*step*float64(i+1)
		}
	}
}
