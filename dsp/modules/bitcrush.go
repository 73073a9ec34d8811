package modules

import (
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

// MaxCrushBits is the bit depth at which the crusher is transparent.
const MaxCrushBits = 16

// crushFilterOrder is the order of the anti-imaging Butterworth lowpass.
const crushFilterOrder = 4

const (
	crushBits = iota
	crushRate
	crushMix
	crushCutoff
)

// BitCrusher reduces resolution and sample rate. The wet path is band
// limited before the sample-and-hold so the output stays on the
// quantisation grid. At 16 bits and full rate it leaves the input
// untouched.
type BitCrusher struct {
	base

	filters []*biquad.Chain
	coeffs  []biquad.Coefficients
	holds   []sampleHold
	dry     module.Buffer
}

// NewBitCrusher returns an 8-bit crusher.
func NewBitCrusher() *BitCrusher {
	return &BitCrusher{base: newBase("bitcrush", module.CategoryDistortion, []module.ParamSpec{
		param("bits", 1, MaxCrushBits, 8, "bits"),
		param("rate", 0.01, 1, 1, ""),
		param("mix", 0, 1, 1, ""),
		param("filterCutoff", 100, 20000, 20000, "Hz"),
	})}
}

// Prepare implements module.Module.
func (b *BitCrusher) Prepare(spec module.Spec) error {
	if err := b.begin(spec); err != nil {
		return err
	}

	b.coeffs = make([]biquad.Coefficients, 0, (crushFilterOrder+1)/2)
	b.filters = make([]*biquad.Chain, spec.Channels)

	for ch := range b.filters {
		b.filters[ch] = biquad.NewChain(make([]biquad.Coefficients, cap(b.coeffs)))
	}

	b.holds = make([]sampleHold, spec.Channels)
	b.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)

	return nil
}

// Reset implements module.Module.
func (b *BitCrusher) Reset() {
	for ch := range b.filters {
		b.filters[ch].Reset()
		b.holds[ch].reset()
	}

	b.dirty = true
}

// Process implements module.Module.
func (b *BitCrusher) Process(_ module.Context, buf module.Buffer) {
	if !b.prepared {
		return
	}

	if b.dirty {
		cutoff := b.nyquistGuard(b.get(crushCutoff), b.sampleRate()*0.05)
		b.coeffs = design.AppendButterworthLP(b.coeffs[:0], cutoff, crushFilterOrder, b.sampleRate())

		for _, f := range b.filters {
			f.UpdateCoefficients(b.coeffs, 1)
		}

		b.dirty = false
	}

	bits, rate := b.get(crushBits), b.get(crushRate)
	if bits >= MaxCrushBits && rate >= 1 {
		return
	}

	channels, n := b.extent(buf)
	mix := b.get(crushMix)

	if mix < 1 {
		copyDry(b.dry, buf, channels, n)
	}

	for ch := range channels {
		x := buf[ch][:n]
		b.filters[ch].ProcessBlock(x)

		hold := &b.holds[ch]
		for i, v := range x {
			v = hold.next(v, rate)
			if bits < MaxCrushBits {
				// One bit is the sign, so 1 bit yields {-1, 0, 1}.
				v = quantize(v, bits-1)
			}

			x[i] = v
		}
	}

	if mix < 1 {
		mixBlock(buf, b.dry, channels, n, mix)
	}
}
