package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

// MaxFractalDepth is the number of stages a fractal filter allocates.
const MaxFractalDepth = 8

// Stage response shapes for the fractal filters.
const (
	stageLowpass = iota
	stageHighpass
	stageBandpass
)

const fractalGuard = 50.0

func stageCoefficients(kind int, freq, q, sampleRate float64) biquad.Coefficients {
	switch kind {
	case stageHighpass:
		return design.Highpass(freq, q, sampleRate)
	case stageBandpass:
		return design.Bandpass(freq, q, sampleRate)
	default:
		return design.Lowpass(freq, q, sampleRate)
	}
}

// trackRatio scales a reference-relative pitch ratio by amount in the log
// domain: amount 0 gives 1, amount 1 gives ratio.
func trackRatio(ratio, amount float64) float64 {
	if ratio <= 0 || amount == 0 || !core.IsFinite(ratio) {
		return 1
	}

	return math.Pow(ratio, amount)
}

const (
	fractalFreq = iota
	fractalQ
	fractalDepth
	fractalRatio
	fractalType
	fractalKeyTrack
	fractalMix
)

// Fractal is a serial cascade of up to eight resonant stages whose centres
// step geometrically from a key-tracked base frequency. The output is
// tapped after the depth-th stage.
type Fractal struct {
	base

	stages  [][MaxFractalDepth]biquad.Section
	tail    module.Buffer
	fade    module.Buffer
	dry     module.Buffer
	centers [MaxFractalDepth]float64
	tracked float64
	depth   int
}

// NewFractal returns a serial fractal filter with default parameters.
func NewFractal() *Fractal {
	return &Fractal{base: newBase("fractal", module.CategoryFilter, []module.ParamSpec{
		param("freq", 20, 20000, 100, "Hz"),
		param("q", 0.1, 18, 0.707, ""),
		{Name: "depth", Min: 1, Max: MaxFractalDepth, Default: 4, Discrete: true},
		param("ratio", 0.1, 2, core.GoldenRatio, ""),
		enum("type", stageLowpass, "lowpass", "highpass", "bandpass"),
		param("keyTrack", 0, 1, 0, ""),
		param("mix", 0, 1, 1, ""),
	})}
}

// Prepare implements module.Module.
func (f *Fractal) Prepare(spec module.Spec) error {
	if err := f.begin(spec); err != nil {
		return err
	}

	f.stages = make([][MaxFractalDepth]biquad.Section, spec.Channels)
	f.tail = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	f.fade = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	f.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	f.tracked = 0
	f.depth = 0

	return nil
}

// Reset implements module.Module.
func (f *Fractal) Reset() {
	for ch := range f.stages {
		for i := range f.stages[ch] {
			f.stages[ch][i].Reset()
		}
	}

	f.depth = 0
	f.dirty = true
}

// Centers copies the current stage centre frequencies into dst.
func (f *Fractal) Centers(dst []float64) int {
	n := min(len(dst), f.getInt(fractalDepth))

	return copy(dst, f.centers[:n])
}

func (f *Fractal) update(tracked float64) {
	base := f.get(fractalFreq) * trackRatio(tracked/core.ReferenceFrequency, f.get(fractalKeyTrack))
	ratio := f.get(fractalRatio)
	q := f.get(fractalQ)
	kind := f.getInt(fractalType)

	freq := base
	for i := range MaxFractalDepth {
		center := f.nyquistGuard(freq, fractalGuard)
		f.centers[i] = center
		c := stageCoefficients(kind, center, q/(1+0.2*float64(i)), f.sampleRate())

		for ch := range f.stages {
			f.stages[ch][i].Coefficients = c
		}

		freq *= ratio
	}

	f.tracked = tracked
	f.dirty = false
}

// Process implements module.Module. A depth change crossfades from the
// old tap to the new one over the block.
func (f *Fractal) Process(ctx module.Context, buf module.Buffer) {
	if !f.prepared {
		return
	}

	tracked := ctx.Frequency()
	if f.dirty || (f.get(fractalKeyTrack) > 0 && tracked != f.tracked) {
		f.update(tracked)
	}

	channels, n := f.extent(buf)
	depth := f.getInt(fractalDepth)
	prev := f.depth
	if prev == 0 {
		prev = depth
	}

	copyDry(f.dry, buf, channels, n)

	for ch := range channels {
		x := buf[ch][:n]
		t := f.tail[ch][:n]
		copy(t, x)

		// Every stage runs so a later depth increase starts from settled
		// state; only the taps are picked out.
		for i := range MaxFractalDepth {
			f.stages[ch][i].ProcessBlock(t)

			switch i + 1 {
			case depth:
				copy(x, t)
			case prev:
				copy(f.fade[ch][:n], t)
			}
		}

		if prev != depth {
			from := f.fade[ch][:n]
			step := 1 / float64(n)

			for i := range x {
				r := step * float64(i+1)
				x[i] = from[i] + (x[i]-from[i])*r
			}
		}
	}

	f.depth = depth

	mixBlock(buf, f.dry, channels, n, f.get(fractalMix))
}
