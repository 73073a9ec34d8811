package modules

import (
	"fmt"
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/filter/svf"
	"github.com/cwbudde/bassforge/dsp/interp"
	"github.com/cwbudde/bassforge/dsp/module"
)

// WavetableSize is the length of the modulation table.
const WavetableSize = 2048

// LFO shapes for the wavetable filter.
const (
	LFOSaw = iota
	LFOTriangle
	LFOSine
	LFOSquare
	LFORandom
)

const (
	wtCutoff = iota
	wtResonance
	wtType
	wtLFORate
	wtLFOShape
	wtLFODepth
	wtTableDepth
	wtEnvDepth
	wtKeyTrack
	wtMix
)

var svfModes = [4]svf.Mode{svf.Lowpass, svf.Highpass, svf.Bandpass, svf.Notch}

// defaultWavetable builds the stock "digital" table: a few low harmonics
// with cross products and fast phase wobble, gated by an 8-cycle envelope.
func defaultWavetable() []float64 {
	t := make([]float64, WavetableSize)
	for i := range t {
		p := 2 * math.Pi * float64(i) / WavetableSize
		h1 := math.Sin(p) * 0.6
		h2 := math.Sin(2*p) * 0.4
		h3 := math.Sin(3*p) * 0.3
		v := h1 + h2 + h3 + h1*h2*0.5 + h2*h3*0.3 + math.Sin(7*p)*0.1 + math.Cos(11*p)*0.08
		v *= 0.5 + 0.5*math.Sin(8*p)
		t[i] = core.Clamp(v, -1, 1) * 0.3
	}

	return t
}

func lfoShape(shape int, phase float64) float64 {
	switch shape {
	case LFOSaw:
		return 2 * (phase/(2*math.Pi) - 0.5)
	case LFOTriangle:
		return 2 / math.Pi * math.Asin(math.Sin(phase))
	case LFOSquare:
		if math.Sin(phase) > 0 {
			return 1
		}

		return -1
	case LFORandom:
		return 2*math.Sin(7*phase)*math.Cos(3*phase) - 1
	default:
		return math.Sin(phase)
	}
}

// Wavetable is a state-variable filter whose cutoff is swept by an LFO, a
// wavetable oscillator and an envelope follower on the input.
type Wavetable struct {
	base

	filters  []svf.Filter
	env      *onepole.Envelope
	table    []float64
	cutoffs  []float64
	qs       []float64
	gains    []float64
	lfoPhase float64
	tablePos float64
	fmPhase  float64
}

// NewWavetable returns a wavetable filter using the default table.
func NewWavetable() *Wavetable {
	return &Wavetable{
		base: newBase("wavetable", module.CategoryFilter, []module.ParamSpec{
			param("cutoff", 20, 18000, 800, "Hz"),
			param("resonance", 0.1, 1, 0.7, ""),
			enum("type", 0, "lowpass", "highpass", "bandpass", "notch"),
			param("lfoRate", 0.01, 20, 0.5, "Hz"),
			enum("lfoShape", LFOSine, "saw", "triangle", "sine", "square", "random"),
			param("lfoDepth", 0, 1, 1, ""),
			param("tableDepth", 0, 1, 0.5, ""),
			param("envDepth", 0, 1, 0, ""),
			param("keyTrack", 0, 1, 0, ""),
			param("mix", 0, 1, 0.9, ""),
		}),
		table: defaultWavetable(),
	}
}

// Prepare implements module.Module.
func (w *Wavetable) Prepare(spec module.Spec) error {
	if err := w.begin(spec); err != nil {
		return err
	}

	w.filters = make([]svf.Filter, spec.Channels)
	w.env = onepole.NewEnvelope(0.001, 0.05, spec.SampleRate)
	w.cutoffs = make([]float64, spec.MaxBlockSize)
	w.qs = make([]float64, spec.MaxBlockSize)
	w.gains = make([]float64, spec.MaxBlockSize)
	w.Reset()

	return nil
}

// Reset implements module.Module.
func (w *Wavetable) Reset() {
	for ch := range w.filters {
		w.filters[ch].Reset()
	}

	if w.env != nil {
		w.env.Reset()
	}

	w.lfoPhase, w.tablePos, w.fmPhase = 0, 0, 0
}

// LoadSample implements module.SampleLoader. The sample is resampled to
// WavetableSize and normalised to the stock table's peak.
func (w *Wavetable) LoadSample(samples []float64, _ float64) error {
	if len(samples) == 0 {
		return ErrEmptySample
	}

	peak := 0.0
	for _, v := range samples {
		if !core.IsFinite(v) {
			return fmt.Errorf("%w: non-finite value", ErrEmptySample)
		}

		peak = math.Max(peak, math.Abs(v))
	}

	t := make([]float64, WavetableSize)
	if peak > 0 {
		scale := 0.3 / peak
		step := float64(len(samples)) / WavetableSize

		for i := range t {
			t[i] = interp.Clamped(samples, float64(i)*step) * scale
		}
	}

	w.table = t

	return nil
}

// modulate fills the per-sample cutoff, Q and wet gain for n samples from
// the channel-averaged input level.
func (w *Wavetable) modulate(ctx module.Context, buf module.Buffer, channels, n int) {
	sr := w.sampleRate()
	base := w.get(wtCutoff)
	if kt := w.get(wtKeyTrack); kt > 0 {
		base *= trackRatio(ctx.Frequency()/core.ReferenceFrequency, kt)
	}

	res := w.get(wtResonance)
	lfoInc := 2 * math.Pi * w.get(wtLFORate) / sr
	lfoDepth := w.get(wtLFODepth)
	tableDepth := w.get(wtTableDepth)
	envDepth := w.get(wtEnvDepth)
	shape := w.getInt(wtLFOShape)
	scale := 1 / float64(channels)

	for i := range n {
		level := 0.0
		for ch := range channels {
			level += buf[ch][i]
		}

		env := w.env.Process(level*scale*envDepth)*2 - 1
		lfo := lfoShape(shape, w.lfoPhase) * lfoDepth

		w.lfoPhase += lfoInc
		if w.lfoPhase >= 2*math.Pi {
			w.lfoPhase -= 2 * math.Pi
		}

		wt := interp.Table(w.table, w.tablePos/WavetableSize) * tableDepth

		w.tablePos++
		if w.tablePos >= WavetableSize {
			w.tablePos -= WavetableSize
		}

		cutoff := base * (1 + (wt*0.8+lfo*0.2)*2)
		cutoff *= 1 + env*wt*1.5

		w.fmPhase += 0.1
		if w.fmPhase >= 2*math.Pi*1e3 {
			w.fmPhase -= 2 * math.Pi * 1e3
		}

		cutoff *= 1 + math.Sin(w.fmPhase*wt*0.5)*0.3
		cutoff = core.Clamp(cutoff, 20, 18000)

		w.cutoffs[i] = cutoff
		w.qs[i] = core.Clamp(res+math.Abs(wt)*0.4, 0.1, 1)
		w.gains[i] = 1 + math.Mod(cutoff, 1000)*0.001*wt
	}
}

// Process implements module.Module.
func (w *Wavetable) Process(ctx module.Context, buf module.Buffer) {
	if !w.prepared {
		return
	}

	channels, n := w.extent(buf)
	if channels == 0 {
		return
	}

	w.modulate(ctx, buf, channels, n)

	sr := w.sampleRate()
	mode := svfModes[w.getInt(wtType)]
	mix := w.get(wtMix)

	for ch := range channels {
		f := &w.filters[ch]
		x := buf[ch][:n]

		for i, s := range x {
			f.SetParams(w.cutoffs[i], w.qs[i], sr)
			x[i] = s*(1-mix) + f.Process(s, mode)*w.gains[i]*mix
		}
	}
}
