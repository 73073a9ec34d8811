package modules

import (
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	eqLowFreq  = 200.0
	eqHighFreq = 5000.0
	eqMidQ     = 1.414
)

const (
	eqLowGain = iota
	eqMidGain
	eqMidFreq
	eqHighGain
)

// EQ is a three-band equaliser: low shelf, sweepable peak, high shelf.
type EQ struct {
	base

	chains []*biquad.Chain
	coeffs [3]biquad.Coefficients
}

// NewEQ returns a flat three-band EQ.
func NewEQ() *EQ {
	return &EQ{base: newBase("eq", module.CategoryFilter, []module.ParamSpec{
		param("lowGain", -18, 18, 0, "dB"),
		param("midGain", -18, 18, 0, "dB"),
		param("midFreq", 200, 8000, 1000, "Hz"),
		param("highGain", -18, 18, 0, "dB"),
	})}
}

// Prepare implements module.Module.
func (e *EQ) Prepare(spec module.Spec) error {
	if err := e.begin(spec); err != nil {
		return err
	}

	e.design()

	e.chains = make([]*biquad.Chain, spec.Channels)
	for ch := range e.chains {
		e.chains[ch] = biquad.NewChain(e.coeffs[:])
	}

	return nil
}

// Reset implements module.Module.
func (e *EQ) Reset() {
	for _, c := range e.chains {
		c.Reset()
	}
}

func (e *EQ) design() {
	sr := e.sampleRate()
	e.coeffs[0] = design.LowShelf(eqLowFreq, e.get(eqLowGain), design.DefaultQ, sr)
	e.coeffs[1] = design.Peak(e.get(eqMidFreq), e.get(eqMidGain), eqMidQ, sr)
	e.coeffs[2] = design.HighShelf(eqHighFreq, e.get(eqHighGain), design.DefaultQ, sr)
	e.dirty = false
}

// MagnitudeDB returns the EQ response at freq.
func (e *EQ) MagnitudeDB(freq float64) float64 {
	if len(e.chains) == 0 {
		return 0
	}

	return e.chains[0].MagnitudeDB(freq, e.sampleRate())
}

// Process implements module.Module.
func (e *EQ) Process(_ module.Context, buf module.Buffer) {
	if !e.prepared {
		return
	}

	if e.dirty {
		e.design()

		for _, c := range e.chains {
			c.UpdateCoefficients(e.coeffs[:], 1)
		}
	}

	channels, n := e.extent(buf)
	for ch := range channels {
		e.chains[ch].ProcessBlock(buf[ch][:n])
	}
}
