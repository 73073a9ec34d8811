package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Sub-synth modes.
const (
	SubDistort = iota
	SubDivide
	SubInvert
	SubKeyOsc
)

const (
	subMode = iota
	subWet
	subDry
	subThreshold
	subTune
)

// subRelease sets the key-osc envelope decay.
const subRelease = 0.65

// SubSynth derives a sub-bass signal from the low-passed channel sum: a
// squared-up copy, an octave divider, an inverted copy, or a decaying sine
// keyed by the input level. The mono result is written to every channel.
type SubSynth struct {
	base

	filtIn, filtOut float64
	phaseInc        float64
	decay           float64
	threshold       float64

	f1, f2, f3, f4 float64
	sign, phase    float64
	env, oscPhase  float64
}

// NewSubSynth returns a sub-harmonic synth in distort mode.
func NewSubSynth() *SubSynth {
	s := &SubSynth{base: newBase("sub-synth", module.CategoryFilter, []module.ParamSpec{
		enum("mode", SubDistort, "distort", "divide", "invert", "keyosc"),
		param("wet", 0, 1, 0.5, ""),
		param("dry", 0, 1, 1, ""),
		param("threshold", -60, 0, -24, "dB"),
		param("tune", 0, 1, 0.6, ""),
	})}
	s.Reset()

	return s
}

// Prepare implements module.Module.
func (s *SubSynth) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	s.Reset()

	return nil
}

// Reset implements module.Module.
func (s *SubSynth) Reset() {
	s.f1, s.f2, s.f3, s.f4 = 0, 0, 0, 0
	s.sign, s.phase = 1, 1
	s.env, s.oscPhase = 0, 0
	s.dirty = true
}

func (s *SubSynth) update() {
	tune := s.get(subTune)
	if s.getInt(subMode) == SubKeyOsc {
		s.filtIn = 0.018
	} else {
		s.filtIn = math.Pow(10, -3+2*tune)
	}

	s.filtOut = 1 - s.filtIn
	s.phaseInc = 0.456159 * math.Pow(10, -2.5+1.5*tune)
	s.decay = 1 - math.Pow(10, -2-3*subRelease)
	s.threshold = core.DBToLinear(s.get(subThreshold))
	s.dirty = false
}

// Process implements module.Module.
func (s *SubSynth) Process(_ module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	if s.dirty {
		s.update()
	}

	channels, n := s.extent(buf)
	if channels == 0 {
		return
	}

	mode := s.getInt(subMode)
	wet, dry := s.get(subWet), s.get(subDry)
	scale := 1 / float64(channels)
	fi, fo, th := s.filtIn, s.filtOut, s.threshold

	for i := range n {
		in := 0.0
		for ch := range channels {
			in += buf[ch][i]
		}

		in *= scale

		s.f1 = fo*s.f1 + fi*in
		s.f2 = fo*s.f2 + fi*s.f1

		var sub float64

		if mode == SubKeyOsc {
			if s.f2 > th {
				s.env = 1
			} else {
				s.env *= s.decay
			}

			sub = s.env * math.Sin(s.oscPhase)

			s.oscPhase += s.phaseInc
			if s.oscPhase >= 2*math.Pi {
				s.oscPhase -= 2 * math.Pi
			}
		} else {
			switch {
			case s.f2 > th:
				sub = 1
			case s.f2 < -th:
				sub = -1
			}

			if sub*s.sign < 0 {
				s.sign = -s.sign
				if s.sign < 0 {
					s.phase = -s.phase
				}
			}

			switch mode {
			case SubDivide:
				sub *= s.phase
			case SubInvert:
				sub = s.phase * s.f2 * 2
			}
		}

		s.f3 = fo*s.f3 + fi*sub
		s.f4 = fo*s.f4 + fi*s.f3

		out := in*dry + s.f4*wet
		for ch := range channels {
			buf[ch][i] = out
		}
	}

	s.f1 = core.FlushUnderflow(s.f1)
	s.f2 = core.FlushUnderflow(s.f2)
	s.f3 = core.FlushUnderflow(s.f3)
	s.f4 = core.FlushUnderflow(s.f4)
	s.env = core.FlushUnderflow(s.env)
}
