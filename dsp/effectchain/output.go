package effectchain

import (
	"github.com/cwbudde/algo-vecmath"
	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

// gainRampSeconds is the output gain glide time.
const gainRampSeconds = 0.1

// outputStage runs after routing: high-pass, ramped gain, then the
// global dry/wet blend against the block input.
type outputStage struct {
	hpf        []biquad.Section
	gains      []float64
	sampleRate float64

	cutoff    float64
	gain      float64
	target    float64
	step      float64
	remaining int
	rampLen   int
	mix       float64
}

func (o *outputStage) prepare(spec module.Spec) {
	o.hpf = make([]biquad.Section, spec.Channels)
	o.gains = make([]float64, spec.MaxBlockSize)
	o.sampleRate = spec.SampleRate
	o.rampLen = max(1, int(gainRampSeconds*spec.SampleRate))
	o.designHPF()
	o.reset()
}

func (o *outputStage) reset() {
	for ch := range o.hpf {
		o.hpf[ch].Reset()
	}

	o.gain = o.target
	o.remaining = 0
}

func (o *outputStage) designHPF() {
	if o.sampleRate <= 0 {
		return
	}

	c := design.Highpass(o.cutoff, design.DefaultQ, o.sampleRate)
	for ch := range o.hpf {
		o.hpf[ch].Coefficients = c
	}
}

func (o *outputStage) setCutoff(hz float64) {
	if hz == o.cutoff {
		return
	}

	o.cutoff = hz
	o.designHPF()
}

// setGainDB starts a linear ramp towards the new gain.
func (o *outputStage) setGainDB(db float64) {
	target := core.DBToLinear(db)
	if target == o.target {
		return
	}

	o.target = target
	if o.rampLen == 0 {
		o.gain = target
		return
	}

	o.remaining = o.rampLen
	o.step = (target - o.gain) / float64(o.rampLen)
}

// currentGain returns the linear output gain reached so far.
func (o *outputStage) currentGain() float64 { return o.gain }

func (o *outputStage) process(buf, dry module.Buffer, channels, n int) {
	for ch := range channels {
		o.hpf[ch].ProcessBlock(buf[ch][:n])
	}

	if o.remaining > 0 {
		gains := o.gains[:n]
		for i := range gains {
			if o.remaining > 0 {
				o.gain += o.step
				o.remaining--

				if o.remaining == 0 {
					o.gain = o.target
				}
			}

			gains[i] = o.gain
		}

		for ch := range channels {
			vecmath.MulBlockInPlace(buf[ch][:n], gains)
		}
	} else if o.gain != 1 {
		for ch := range channels {
			vecmath.ScaleBlockInPlace(buf[ch][:n], o.gain)
		}
	}

	if o.mix < 1 {
		for ch := range channels {
			core.Blend(buf[ch][:n], dry[ch][:n], o.mix)
		}
	}
}
