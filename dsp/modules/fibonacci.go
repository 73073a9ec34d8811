package modules

import (
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	spiralResonators = 4
	spiralStages     = 4
	spiralVeils      = 3
)

// fibonacciDrive holds successive Fibonacci ratios 55/34, 89/55, ... used
// as per-stage drive multipliers.
var fibonacciDrive = [spiralStages]float64{55.0 / 34, 89.0 / 55, 144.0 / 89, 233.0 / 144}

const (
	fibDrive = iota
	fibDepth
	fibBloom
	fibVeil
	fibResonance
	fibMix
)

type spiralVoice struct {
	phases [spiralResonators]float64
	envs   [spiralStages]float64
	prev   float64
	veils  [spiralVeils]biquad.Section
}

// Fibonacci adds a golden-ratio resonator bank to the input, runs it
// through a four-stage envelope-driven tanh cascade and darkens the result
// with three key-scaled low-pass veils.
type Fibonacci struct {
	base

	voices  []spiralVoice
	dry     module.Buffer
	attack  float64
	release float64
	tracked float64
}

// NewFibonacci returns a Fibonacci spiral distortion.
func NewFibonacci() *Fibonacci {
	return &Fibonacci{base: newBase("fibonacci", module.CategoryDistortion, []module.ParamSpec{
		param("drive", 0.1, 4, 1, ""),
		param("spiralDepth", 0, 1, 0.3, ""),
		param("bloom", 0.001, 2, 0.01, "s"),
		param("veil", 200, 5000, 500, "Hz"),
		param("resonance", 0, 0.8, 0.4, ""),
		param("mix", 0, 1, 0.8, ""),
	})}
}

// Prepare implements module.Module.
func (f *Fibonacci) Prepare(spec module.Spec) error {
	if err := f.begin(spec); err != nil {
		return err
	}

	f.voices = make([]spiralVoice, spec.Channels)
	f.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	f.tracked = 0

	return nil
}

// Reset implements module.Module.
func (f *Fibonacci) Reset() {
	for ch := range f.voices {
		v := &f.voices[ch]
		v.phases = [spiralResonators]float64{}
		v.envs = [spiralStages]float64{}
		v.prev = 0

		for i := range v.veils {
			v.veils[i].Reset()
		}
	}

	f.dirty = true
}

func (f *Fibonacci) update(freq float64) {
	sr := f.sampleRate()
	f.attack = math.Exp(-1 / (0.001 * sr))
	f.release = math.Exp(-1 / (f.get(fibBloom) * 0.25 * sr))

	cutoff := f.get(fibVeil) * math.Sqrt(freq/100)
	for m := range spiralVeils {
		c := design.Lowpass(f.nyquistGuard(cutoff, sr*0.05), design.DefaultQ, sr)
		for ch := range f.voices {
			f.voices[ch].veils[m].Coefficients = c
		}

		cutoff *= core.GoldenRatio
	}

	f.tracked = freq
	f.dirty = false
}

// Process implements module.Module.
func (f *Fibonacci) Process(ctx module.Context, buf module.Buffer) {
	if !f.prepared {
		return
	}

	freq := core.Clamp(ctx.Frequency(), 20, 5000)
	if f.dirty || freq != f.tracked {
		f.update(freq)
	}

	channels, n := f.extent(buf)
	copyDry(f.dry, buf, channels, n)

	sr := f.sampleRate()
	depth := f.get(fibDepth)
	amp := depth * 0.2
	fb := f.get(fibResonance) * 0.1
	drive := f.get(fibDrive)

	var inc [spiralResonators]float64
	rf := freq * 3
	for r := range inc {
		inc[r] = math.Min(rf/sr, 0.5)
		rf *= core.GoldenRatio
	}

	for ch := range channels {
		v := &f.voices[ch]
		x := buf[ch][:n]

		for i, s := range x {
			sum := 0.0
			for r := range spiralResonators {
				sum += amp*math.Sin(2*math.Pi*v.phases[r]) + fb*v.prev

				v.phases[r] += inc[r]
				if v.phases[r] >= 1 {
					v.phases[r]--
				}
			}

			y := s + depth*sum*0.3
			v.prev = y

			for k := range spiralStages {
				a := math.Abs(y)

				coeff := f.release
				if a > v.envs[k] {
					coeff = f.attack
				}

				v.envs[k] = core.FlushUnderflow(a + coeff*(v.envs[k]-a))
				y = mathTanh(drive * fibonacciDrive[k] * v.envs[k] * y)
			}

			x[i] = y
		}

		for m := range v.veils {
			v.veils[m].ProcessBlock(x)
		}
	}

	mixBlock(buf, f.dry, channels, n, f.get(fibMix))
}
