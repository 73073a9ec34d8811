package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/filter/svf"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Harmonic-rich shapes.
const (
	ShapeHelicalSineVeil = iota
	ShapeCascadeHarmonicBloom
	ShapeSpectralSineHelix
)

const (
	veilOscillators = 6
	helixSines      = 7
	bloomStages     = 3
	veilLFOHz       = 0.5
)

var (
	bloomCutoffScale = [bloomStages]float64{0.5, 1, 1.5}
	bloomQScale      = [bloomStages]float64{0.8, 1.2, 0.6}
	helixWeights     [helixSines]float64
)

func init() {
	for i := range helixWeights {
		d := (float64(i) - 3) / 2
		helixWeights[i] = math.Exp(-0.5 * d * d)
	}
}

const (
	harmonicShape = iota
	harmonicCutoff
	harmonicResonance
	harmonicDrive
	harmonicMix
	harmonicVeilDepth
	harmonicBloom
	harmonicHelixPhase
	harmonicEnvelope
)

// harmonicVoice is the per-channel oscillator and filter state.
type harmonicVoice struct {
	veilPhase  [veilOscillators]float64
	helixPhase [helixSines]float64
	veilLFO    float64
	bloomLFO   float64
	veil       svf.Filter
	bloom      [bloomStages]svf.Filter
	bloomFB    float64
	helix      svf.Filter
	allpass    [helixSines]biquad.Section
	env        *onepole.Envelope
}

func (v *harmonicVoice) reset() {
	*v = harmonicVoice{env: v.env, allpass: v.allpass}
	for i := range v.allpass {
		v.allpass[i].Reset()
	}

	v.env.Reset()
}

// HarmonicRich layers golden-ratio and Gaussian-weighted sine banks under
// resonant state-variable filters and blends them with the input.
type HarmonicRich struct {
	base

	voices []harmonicVoice
}

// NewHarmonicRich returns a harmonic-rich filter with default parameters.
func NewHarmonicRich() *HarmonicRich {
	return &HarmonicRich{base: newBase("harmonic-rich", module.CategoryFilter, []module.ParamSpec{
		enum("shape", ShapeHelicalSineVeil, "veil", "bloom", "helix"),
		param("cutoff", 20, 20000, 1000, "Hz"),
		param("resonance", 0.5, 5, 1, ""),
		param("drive", 0.1, 5, 1, ""),
		param("mix", 0, 1, 0.5, ""),
		param("veilDepth", 0, 1, 0.5, ""),
		param("bloom", 0, 2, 1, ""),
		param("helixPhase", 0, 1, 0.5, ""),
		param("envelope", 0, 1, 0.5, ""),
	})}
}

// Prepare implements module.Module.
func (h *HarmonicRich) Prepare(spec module.Spec) error {
	if err := h.begin(spec); err != nil {
		return err
	}

	h.voices = make([]harmonicVoice, spec.Channels)
	for ch := range h.voices {
		h.voices[ch].env = onepole.NewEnvelope(0.01, 0.1, spec.SampleRate)
	}

	return nil
}

// Reset implements module.Module.
func (h *HarmonicRich) Reset() {
	for ch := range h.voices {
		h.voices[ch].reset()
	}

	h.dirty = true
}

func (h *HarmonicRich) update() {
	cutoff := h.get(harmonicCutoff)
	sr := h.sampleRate()

	for ch := range h.voices {
		v := &h.voices[ch]
		for i := range v.allpass {
			v.allpass[i].Coefficients = design.Allpass(cutoff*(0.8+0.1*float64(i)), design.DefaultQ, sr)
		}
	}

	h.dirty = false
}

// Process implements module.Module.
func (h *HarmonicRich) Process(ctx module.Context, buf module.Buffer) {
	if !h.prepared || h.get(harmonicMix) == 0 {
		return
	}

	if h.dirty {
		h.update()
	}

	key := core.Clamp(ctx.Frequency(), 20, 20000)
	channels, n := h.extent(buf)

	for ch := range channels {
		x := buf[ch][:n]
		v := &h.voices[ch]

		switch h.getInt(harmonicShape) {
		case ShapeCascadeHarmonicBloom:
			h.bloom(v, x)
		case ShapeSpectralSineHelix:
			h.helix(v, x)
		default:
			h.veil(v, x, key)
		}
	}
}

func advancePhase(phase, freq, sampleRate float64) float64 {
	phase += 2 * math.Pi * freq / sampleRate
	if phase >= 2*math.Pi {
		phase -= 2 * math.Pi
	}

	return phase
}

func (h *HarmonicRich) out(x, wet float64) float64 {
	mix := h.get(harmonicMix)

	return x*(1-mix) + wet*mix*h.get(harmonicDrive)
}

func (h *HarmonicRich) veil(v *harmonicVoice, x []float64, key float64) {
	sr := h.sampleRate()
	nyquist := sr / 2
	depth := h.get(harmonicVeilDepth)
	sens := h.get(harmonicEnvelope)
	cutoff := h.get(harmonicCutoff)
	q := h.get(harmonicResonance)

	for i, s := range x {
		env := v.env.Process(s) * sens

		sum := 0.0
		freq := key * (1 + env*0.1)

		for o := range veilOscillators {
			if freq < nyquist {
				v.veilPhase[o] = advancePhase(v.veilPhase[o], freq, sr)
				sum += math.Sin(v.veilPhase[o]) * depth
			}

			freq *= core.GoldenRatio
		}

		v.veilLFO = advancePhase(v.veilLFO, veilLFOHz, sr)
		v.veil.SetParams(cutoff*(1+math.Sin(v.veilLFO)*0.2), q, sr)
		x[i] = h.out(s, v.veil.Process(sum, svf.Lowpass))
	}
}

func (h *HarmonicRich) bloom(v *harmonicVoice, x []float64) {
	sr := h.sampleRate()
	cutoff := h.get(harmonicCutoff)
	q := h.get(harmonicResonance)
	intensity := h.get(harmonicBloom)

	v.bloom[0].SetParams(cutoff*bloomCutoffScale[0], q*bloomQScale[0], sr)
	v.bloom[2].SetParams(cutoff*bloomCutoffScale[2], q*bloomQScale[2], sr)

	for i, s := range x {
		y := v.bloom[0].Process(s, svf.Lowpass)

		v.bloomLFO = advancePhase(v.bloomLFO, 0.3, sr)
		mod := math.Sin(v.bloomLFO) * intensity
		v.bloom[1].SetParams(cutoff*(1+mod*0.3), q*bloomQScale[1], sr)
		y = v.bloom[1].Process(y, svf.Lowpass)

		y = v.bloom[2].Process(y+y*v.bloomFB*0.1, svf.Lowpass)
		// Three-tap decay of the last stage output feeds the next sample.
		v.bloomFB = y * 0.05 * 0.8 * 0.6

		x[i] = h.out(s, y)
	}
}

func (h *HarmonicRich) helix(v *harmonicVoice, x []float64) {
	sr := h.sampleRate()
	nyquist := sr / 2
	cutoff := h.get(harmonicCutoff)
	mod := h.get(harmonicHelixPhase)

	v.helix.SetParams(cutoff, h.get(harmonicResonance), sr)

	for i, s := range x {
		sum := 0.0

		for o := range helixSines {
			w := helixWeights[o]

			freq := cutoff * (0.5 + 2*w)
			if freq >= nyquist {
				continue
			}

			v.helixPhase[o] = advancePhase(v.helixPhase[o], freq, sr)
			offset := math.Sin(float64(o)*core.GoldenRatio*mod) * 0.1
			sum += math.Sin(v.helixPhase[o]+offset) * w
		}

		y := v.helix.Process(sum, svf.Lowpass)
		for ap := range v.allpass {
			y = v.allpass[ap].ProcessSample(y)
		}

		x[i] = h.out(s, y)
	}
}
