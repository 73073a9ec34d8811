package modules

import (
	"fmt"
	"math"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/delay"
	"github.com/cwbudde/bassforge/dsp/filter/onepole"
	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	maxCombs = 8
	// combMaxSeconds bounds every comb delay line.
	combMaxSeconds = 0.1
	// combSlewMs limits how far the delay time moves per sample.
	combSlewMs = 0.001
)

const (
	combCount = iota
	combDelay
	combFeedback
	combLFORate
	combLFODepth
	combKeyTrack
	combDamping
	combMix
)

// CombStack runs up to eight feedback combs fed by the channel average. A
// shared sine LFO with per-comb phase offsets modulates each delay.
type CombStack struct {
	base

	lines   [maxCombs]*delay.Line
	damp    [maxCombs]onepole.LowPass
	offsets [maxCombs]float64
	mono    []float64
	dry     module.Buffer
	phase   float64
	current float64
}

// NewCombStack returns a comb stack with four combs at 2 ms.
func NewCombStack() *CombStack {
	c := &CombStack{base: newBase("comb-stack", module.CategoryFilter, []module.ParamSpec{
		{Name: "count", Min: 1, Max: maxCombs, Default: 4, Discrete: true},
		param("delay", 0.1, 10, 2, "ms"),
		param("feedback", 0, 0.95, 0.5, ""),
		param("lfoRate", 0.1, 20, 0.5, "Hz"),
		param("lfoDepth", 0, 1, 0.3, ""),
		param("keyTrack", 0, 1, 0.5, ""),
		param("damping", 500, 15000, 6000, "Hz"),
		param("mix", 0, 1, 1, ""),
	})}

	for i := range c.offsets {
		c.offsets[i] = float64(i) / maxCombs * 2 * math.Pi
	}

	return c
}

// Prepare implements module.Module.
func (c *CombStack) Prepare(spec module.Spec) error {
	if err := c.begin(spec); err != nil {
		return err
	}

	for i := range c.lines {
		line, err := delay.NewSeconds(combMaxSeconds, spec.SampleRate)
		if err != nil {
			return fmt.Errorf("comb-stack: %w", err)
		}

		c.lines[i] = line
	}

	c.mono = make([]float64, spec.MaxBlockSize)
	c.dry = module.NewBuffer(spec.Channels, spec.MaxBlockSize)
	c.Reset()

	return nil
}

// Reset implements module.Module.
func (c *CombStack) Reset() {
	for i := range c.lines {
		if c.lines[i] != nil {
			c.lines[i].Reset()
		}

		c.damp[i].Reset()
	}

	c.phase = 0
	c.current = c.get(combDelay)
	c.dirty = true
}

// Process implements module.Module.
func (c *CombStack) Process(ctx module.Context, buf module.Buffer) {
	if !c.prepared {
		return
	}

	sr := c.sampleRate()
	if c.dirty {
		for i := range c.damp {
			c.damp[i].Configure(c.get(combDamping), sr)
		}

		c.dirty = false
	}

	channels, n := c.extent(buf)
	if channels == 0 {
		return
	}

	count := c.getInt(combCount)
	feedback := c.get(combFeedback)
	depth := c.get(combLFODepth)
	inc := 2 * math.Pi * c.get(combLFORate) / sr
	maxDelay := c.lines[0].MaxDelay()

	target := c.get(combDelay)
	if kt := c.get(combKeyTrack); kt > 0 {
		pitch := math.Max(ctx.Frequency(), 20) / core.ReferenceFrequency
		target /= trackRatio(pitch, kt)
	}

	copyDry(c.dry, buf, channels, n)

	mono := c.mono[:n]
	clear(mono)

	for ch := range channels {
		for i, v := range buf[ch][:n] {
			mono[i] += v
		}
	}

	scale := 1 / float64(channels)
	for i, x := range mono {
		x *= scale

		c.phase += inc
		if c.phase >= 2*math.Pi {
			c.phase -= 2 * math.Pi
		}

		want := target * (1 + math.Sin(c.phase)*depth)
		c.current += core.Clamp(want-c.current, -combSlewMs, combSlewMs)
		samples := c.current * 0.001 * sr

		sum := 0.0
		for k := range count {
			spread := 1 + math.Sin(c.phase+c.offsets[k])*depth*0.1
			d := core.Clamp(samples*spread, 1, maxDelay)

			delayed := c.damp[k].Process(c.lines[k].ReadFractional(d))
			y := x + delayed*feedback
			c.lines[k].Write(core.FlushUnderflow(y))
			sum += y
		}

		mono[i] = sum / float64(count)
	}

	for ch := range channels {
		copy(buf[ch][:n], mono)
	}

	mixBlock(buf, c.dry, channels, n, c.get(combMix))
}
