package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Universal distortion models.
const (
	ModelDigital = iota
	ModelFM
	ModelRodent
	ModelScreamer
)

// UniversalDistortion switches between a digital folder/crusher, the FM
// distortion, a Rat-style clipper and a Tube Screamer-style overdrive.
type UniversalDistortion struct {
	switcher
}

// NewUniversalDistortion returns a universal distortion on the digital
// model.
func NewUniversalDistortion() *UniversalDistortion {
	return &UniversalDistortion{switcher: newSwitcher("universal-distortion", module.CategoryDistortion,
		[]string{"digital", "fm", "rodent", "screamer"},
		[]module.Module{newDigital(), NewFM(), NewRat(), newScreamer()},
	)}
}

const (
	digitalFold = iota
	digitalCrush
)

// digital folds the input through a sine and reduces its level
// resolution.
type digital struct {
	base
}

func newDigital() *digital {
	return &digital{base: newBase("digital", module.CategoryDistortion, []module.ParamSpec{
		param("wavefold", 0, 1, 0.5, ""),
		param("bitcrush", 0, 1, 0, ""),
	})}
}

func (d *digital) Prepare(spec module.Spec) error { return d.begin(spec) }

func (d *digital) Reset() {}

func (d *digital) Process(_ module.Context, buf module.Buffer) {
	if !d.prepared {
		return
	}

	d.dirty = false
	fold := d.get(digitalFold)
	crush := d.get(digitalCrush)
	levels := math.Exp2(core.Lerp(16, 2, crush))

	channels, n := d.extent(buf)
	for ch := range channels {
		x := buf[ch][:n]
		for i, v := range x {
			if fold > 0 {
				v = math.Sin(v * (1 + fold*5))
			}

			if crush > 0 {
				v = math.Round(v*levels) / levels
			}

			x[i] = v
		}
	}
}

const (
	screamerDrive = iota
	screamerTone
	screamerLevel
)

// screamerHPF is the pre-emphasis corner that thins the low end before
// the clipper.
const screamerHPF = 720.0

// screamer is a mid-focused tanh overdrive.
type screamer struct {
	base

	pre  []biquad.Section
	tone []biquad.Section
}

func newScreamer() *screamer {
	return &screamer{base: newBase("screamer", module.CategoryDistortion, []module.ParamSpec{
		param("drive", 0, 1, 0.5, ""),
		param("tone", 0, 1, 0.5, ""),
		param("level", 0, 1, 0.75, ""),
	})}
}

func (s *screamer) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	s.pre = make([]biquad.Section, spec.Channels)
	s.tone = make([]biquad.Section, spec.Channels)

	return nil
}

func (s *screamer) Reset() {
	for ch := range s.pre {
		s.pre[ch].Reset()
		s.tone[ch].Reset()
	}

	s.dirty = true
}

func (s *screamer) Process(_ module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	sr := s.sampleRate()
	if s.dirty {
		hp := design.Highpass(screamerHPF, design.DefaultQ, sr)
		lp := design.Lowpass(s.nyquistGuard(core.Lerp(15000, 400, s.get(screamerTone)), sr*0.05), design.DefaultQ, sr)

		for ch := range s.pre {
			s.pre[ch].Coefficients = hp
			s.tone[ch].Coefficients = lp
		}

		s.dirty = false
	}

	drive := core.DBToLinear(s.get(screamerDrive) * 30)
	level := core.DBToLinear(core.Lerp(-18, 0, s.get(screamerLevel)))

	channels, n := s.extent(buf)
	for ch := range channels {
		x := buf[ch][:n]
		s.pre[ch].ProcessBlock(x)

		for i, v := range x {
			x[i] = mathTanh(v * drive)
		}

		s.tone[ch].ProcessBlock(x)

		for i := range x {
			x[i] *= level
		}
	}
}
