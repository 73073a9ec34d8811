package modules

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/delay"
	"github.com/cwbudde/bassforge/dsp/filter/biquad"
	"github.com/cwbudde/bassforge/dsp/filter/design"
	"github.com/cwbudde/bassforge/dsp/module"
)

// pluckLoopGain keeps the string loop strictly decaying.
const pluckLoopGain = 0.995

const pluckMinFreq = 20.0

const (
	pluckDecay = iota
	pluckDamping
	pluckMix
)

// Excitation noise seeds; every reset replays the same burst.
const (
	pluckSeed1 = 0x5eed
	pluckSeed2 = 0xb455
)

// Pluck is a Karplus-Strong string tuned to the tracked pitch. It is
// excited on the first block after Prepare, on every new note, and on
// Trigger.
type Pluck struct {
	base

	line     *delay.Line
	loop     biquad.Section
	src      *rand.PCG
	rng      *rand.Rand
	dry      module.Buffer
	period   int
	pending  bool
	lastNote int
}

// NewPluck returns a plucked-string resonator.
func NewPluck() *Pluck {
	return &Pluck{
		base: newBase("pluck", module.CategoryFilter, []module.ParamSpec{
			param("decay", 0, 1, 0.5, ""),
			param("damping", 0, 1, 0.5, ""),
			param("mix", 0, 1, 1, ""),
		}),
		lastNote: -1,
	}
}

// Prepare implements module.Module.
func (p *Pluck) Prepare(spec module.Spec) error {
	if err := p.begin(spec); err != nil {
		return err
	}

	line, err := delay.New(int(spec.SampleRate/pluckMinFreq) + 2)
	if err != nil {
		return fmt.Errorf("pluck: %w", err)
	}

	p.line = line
	p.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	p.Reset()

	return nil
}

// Reset implements module.Module.
func (p *Pluck) Reset() {
	if p.line != nil {
		p.line.Reset()
	}

	p.loop.Reset()
	if p.src == nil {
		p.src = rand.NewPCG(pluckSeed1, pluckSeed2)
		p.rng = rand.New(p.src)
	} else {
		p.src.Seed(pluckSeed1, pluckSeed2)
	}

	p.pending = true
	p.lastNote = -1
	p.dirty = true
}

// Trigger implements module.Trigger.
func (p *Pluck) Trigger() { p.pending = true }

func (p *Pluck) excite(freq float64) {
	freq = core.Clamp(freq, pluckMinFreq, 20000)
	p.period = max(1, int(p.sampleRate()/freq))

	for range p.period {
		p.line.Write(p.rng.Float64()*2 - 1)
	}

	p.pending = false
}

// Process implements module.Module.
func (p *Pluck) Process(ctx module.Context, buf module.Buffer) {
	if !p.prepared {
		return
	}

	if p.dirty {
		cutoff := core.Lerp(8000, 100, p.get(pluckDecay))
		q := core.Lerp(0.707, 2, p.get(pluckDamping))
		cutoff = math.Min(cutoff, 0.45*p.sampleRate())
		p.loop.Coefficients = unityPeak(design.Lowpass(cutoff, q, p.sampleRate()), q)
		p.dirty = false
	}

	if ctx.HasTracker() {
		if note := ctx.Tracker.LastNote(); note >= 0 && note != p.lastNote {
			p.lastNote = note
			p.pending = true
		}
	}

	if p.pending {
		p.excite(ctx.Frequency())
	}

	channels, n := p.extent(buf)
	copyDry(p.dry, buf, channels, n)

	for i := range n {
		y := p.line.Read(p.period)
		p.line.Write(core.FlushUnderflow(p.loop.ProcessSample(y) * pluckLoopGain))

		for ch := range channels {
			buf[ch][i] = y
		}
	}

	mixBlock(buf, p.dry, channels, n, p.get(pluckMix))
}

// unityPeak scales a resonant low-pass so its magnitude peak is 0 dB. The
// peak of a second-order low-pass with Q above 1/sqrt(2) is
// Q/sqrt(1-1/(4Q^2)); the bilinear transform keeps that value.
func unityPeak(c biquad.Coefficients, q float64) biquad.Coefficients {
	if q <= math.Sqrt2/2 {
		return c
	}

	g := 1 / (q / math.Sqrt(1-1/(4*q*q)))
	c.B0 *= g
	c.B1 *= g
	c.B2 *= g

	return c
}
