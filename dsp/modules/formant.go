package modules

import (
	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Formants holds the untracked vowel formant centres in Hz.
var Formants = [3]float64{350, 1200, 2400}

const formantGlide = 0.01

const (
	formantGain = iota
	formantQ
	formantKeyTrack
	formantBase
)

// Formant places three peaking filters on vowel formants and shifts them
// with the played pitch relative to baseFreq.
type Formant struct {
	base

	peaks   [][3]biquad.Section
	amount  *onepole.Smoother
	pitch   *onepole.Smoother
	centers [3]float64
}

// NewFormant returns a formant tracker with default parameters.
func NewFormant() *Formant {
	return &Formant{base: newBase("formant", module.CategoryFilter, []module.ParamSpec{
		param("gain", -20, 20, 8, "dB"),
		param("q", 0.1, 20, 8, ""),
		param("keyTrack", 0, 2, 1, ""),
		param("baseFreq", 20, 2000, 100, "Hz"),
	})}
}

// Prepare implements module.Module.
func (f *Formant) Prepare(spec module.Spec) error {
	if err := f.begin(spec); err != nil {
		return err
	}

	f.peaks = make([][3]biquad.Section, spec.Channels)
	f.amount = onepole.NewSmoother(formantGlide, spec.SampleRate, f.get(formantKeyTrack))
	f.pitch = onepole.NewSmoother(formantGlide, spec.SampleRate, f.get(formantBase))

	return nil
}

// Reset implements module.Module.
func (f *Formant) Reset() {
	for ch := range f.peaks {
		for i := range f.peaks[ch] {
			f.peaks[ch][i].Reset()
		}
	}

	if f.amount != nil {
		f.amount.Snap(f.get(formantKeyTrack))
		f.pitch.Snap(f.get(formantBase))
	}

	f.dirty = true
}

// Centers returns the current formant centres.
func (f *Formant) Centers() [3]float64 { return f.centers }

func (f *Formant) update() {
	kt := f.amount.Value()
	scale := kt*(f.pitch.Value()/f.get(formantBase)) + (1 - kt)
	sr := f.sampleRate()

	for i, base := range Formants {
		center := core.Clamp(base*scale, 50, 0.45*sr)
		f.centers[i] = center
		c := design.Peak(center, f.get(formantGain), f.get(formantQ), sr)

		for ch := range f.peaks {
			f.peaks[ch][i].Coefficients = c
		}
	}

	f.dirty = false
}

// Process implements module.Module.
func (f *Formant) Process(ctx module.Context, buf module.Buffer) {
	if !f.prepared {
		return
	}

	pitch := f.get(formantBase)
	if ctx.HasTracker() {
		pitch = core.Clamp(ctx.Frequency(), 20, 2000)
	}

	f.amount.SetTarget(f.get(formantKeyTrack))
	f.pitch.SetTarget(pitch)

	channels, n := f.extent(buf)
	if f.dirty || f.amount.IsSmoothing() || f.pitch.IsSmoothing() {
		f.amount.Advance(n)
		f.pitch.Advance(n)
		f.update()
	}

	for ch := range channels {
		for i := range f.peaks[ch] {
			f.peaks[ch][i].ProcessBlock(buf[ch][:n])
		}
	}
}
