package modules

import (
	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/module"
)

// Distortion algorithms.
const (
	AlgorithmTanh = iota
	AlgorithmHardClip
	AlgorithmSoftClip
	AlgorithmWavefold
	AlgorithmBitCrush
	numAlgorithms
)

// compensation is the output trim per dB of drive for each algorithm.
var compensation = [numAlgorithms]float64{0.3, 0.1, 0.2, 0.4, 0}

const gainGlide = 0.05

const (
	distAlgorithm = iota
	distDrive
	distBias
	distTone
	distMix
	distBitDepth
	distRate
)

// Distortion drives the biased input into one of five shapers, low-passes
// the result and trims the output level against the drive.
type Distortion struct {
	base

	tone    []biquad.Section
	holds   []sampleHold
	dry     module.Buffer
	inGain  *onepole.Smoother
	outGain *onepole.Smoother
	gains   [2][]float64
}

// NewDistortion returns a tanh distortion at 12 dB drive.
func NewDistortion() *Distortion {
	return &Distortion{base: newBase("distortion", module.CategoryDistortion, []module.ParamSpec{
		enum("algorithm", AlgorithmTanh, "tanh", "hard", "soft", "fold", "crush"),
		param("drive", -20, 40, 12, "dB"),
		param("bias", -1, 1, 0, ""),
		param("tone", 200, 8000, 4000, "Hz"),
		param("mix", 0, 1, 1, ""),
		param("bitDepth", 1, 16, 8, "bits"),
		param("rateReduction", 0.01, 1, 1, ""),
	})}
}

// Prepare implements module.Module.
func (d *Distortion) Prepare(spec module.Spec) error {
	if err := d.begin(spec); err != nil {
		return err
	}

	d.tone = make([]biquad.Section, spec.Channels)
	d.holds = make([]sampleHold, spec.Channels)
	d.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	d.gains[0] = make([]float64, spec.MaxBlockSize)
	d.gains[1] = make([]float64, spec.MaxBlockSize)
	in, out := d.targets()
	d.inGain = onepole.NewSmoother(gainGlide, spec.SampleRate, in)
	d.outGain = onepole.NewSmoother(gainGlide, spec.SampleRate, out)

	return nil
}

// Reset implements module.Module.
func (d *Distortion) Reset() {
	for ch := range d.tone {
		d.tone[ch].Reset()
		d.holds[ch].reset()
	}

	if d.inGain != nil {
		in, out := d.targets()
		d.inGain.Snap(in)
		d.outGain.Snap(out)
	}

	d.dirty = true
}

func (d *Distortion) targets() (in, out float64) {
	drive := d.get(distDrive)

	return core.DBToLinear(drive), core.DBToLinear(-drive * compensation[d.getInt(distAlgorithm)])
}

// Process implements module.Module.
func (d *Distortion) Process(_ module.Context, buf module.Buffer) {
	if !d.prepared {
		return
	}

	if d.dirty {
		c := design.Lowpass(d.get(distTone), design.DefaultQ, d.sampleRate())
		for ch := range d.tone {
			d.tone[ch].Coefficients = c
		}

		in, out := d.targets()
		d.inGain.SetTarget(in)
		d.outGain.SetTarget(out)
		d.dirty = false
	}

	channels, n := d.extent(buf)
	copyDry(d.dry, buf, channels, n)

	gin, gout := d.gains[0][:n], d.gains[1][:n]
	for i := range n {
		gin[i] = d.inGain.Next()
		gout[i] = d.outGain.Next()
	}

	alg := d.getInt(distAlgorithm)
	bias := d.get(distBias)
	bits := d.get(distBitDepth)
	rate := d.get(distRate)

	for ch := range channels {
		x := buf[ch][:n]
		hold := &d.holds[ch]

		for i, v := range x {
			v = (v + bias) * gin[i]

			switch alg {
			case AlgorithmHardClip:
				v = hardClip(v, 1)
			case AlgorithmSoftClip:
				v = softClip(v)
			case AlgorithmWavefold:
				v = wavefold(v)
			case AlgorithmBitCrush:
				v = hold.next(v, rate)
				if bits < 16 {
					v = quantize(v, bits)
				}
			default:
				v = mathTanh(v)
			}

			x[i] = v
		}

		d.tone[ch].ProcessBlock(x)

		for i := range x {
			x[i] *= gout[i]
		}
	}

	mixBlock(buf, d.dry, channels, n, d.get(distMix))
}
