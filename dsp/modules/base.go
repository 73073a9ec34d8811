package modules

import (
	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/module"
)

// base carries the bookkeeping shared by every module: identity, declared
// parameters with their current values, the prepared spec, and the dirty
// flag that defers coefficient work to the audio thread.
type base struct {
	name     string
	category module.Category
	specs    []module.ParamSpec
	values   []float64
	spec     module.Spec
	prepared bool
	dirty    bool
}

func newBase(name string, category module.Category, specs []module.ParamSpec) base {
	b := base{name: name, category: category, specs: specs, values: make([]float64, len(specs)), dirty: true}
	for i, p := range specs {
		b.values[i] = p.Default
	}

	return b
}

// Name returns the registry type name.
func (b *base) Name() string { return b.name }

// Category returns the module group.
func (b *base) Category() module.Category { return b.category }

// Params returns the declared parameters.
func (b *base) Params() []module.ParamSpec { return b.specs }

// ApplyParam clamps and stores value. Re-applying the current value is a
// no-op.
func (b *base) ApplyParam(name string, value float64) bool {
	_, ok := b.set(name, value)

	return ok
}

// paramReader is implemented by every module in this package.
type paramReader interface {
	Param(name string) (float64, bool)
}

// Param returns the current value of a named parameter.
func (b *base) Param(name string) (float64, bool) {
	i := b.index(name)
	if i < 0 {
		return 0, false
	}

	return b.values[i], true
}

// set clamps and stores a value. changed is false when the clamped value
// equals the current one, so re-applying a value never churns coefficients.
func (b *base) set(name string, v float64) (changed, ok bool) {
	i := b.index(name)
	if i < 0 {
		return false, false
	}

	v = b.specs[i].Clamp(v)
	if v == b.values[i] {
		return false, true
	}

	b.values[i] = v
	b.dirty = true

	return true, true
}

func (b *base) index(name string) int {
	for i := range b.specs {
		if b.specs[i].Name == name {
			return i
		}
	}

	return -1
}

func (b *base) get(i int) float64 { return b.values[i] }

func (b *base) getInt(i int) int { return int(b.values[i]) }

// begin validates and records spec at the start of Prepare.
func (b *base) begin(spec module.Spec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	b.spec = spec
	b.prepared = true
	b.dirty = true

	return nil
}

func (b *base) sampleRate() float64 { return b.spec.SampleRate }

// extent returns how many channels and samples of buf the module may touch.
func (b *base) extent(buf module.Buffer) (channels, samples int) {
	channels = min(buf.NumChannels(), b.spec.Channels)
	samples = min(buf.NumSamples(), b.spec.MaxBlockSize)

	return channels, samples
}

// nyquistGuard limits a centre frequency to below Nyquist.
func (b *base) nyquistGuard(f, guard float64) float64 {
	return core.Clamp(f, 10, b.spec.SampleRate/2-guard)
}

func param(name string, lo, hi, def float64, unit string) module.ParamSpec {
	return module.ParamSpec{Name: name, Min: lo, Max: hi, Default: def, Unit: unit}
}

func choice(name string, count int, def float64) module.ParamSpec {
	return module.ParamSpec{Name: name, Min: 0, Max: float64(count - 1), Default: def, Discrete: true}
}

// enum declares a discrete parameter whose values are named by labels.
func enum(name string, def int, labels ...string) module.ParamSpec {
	p := choice(name, len(labels), float64(def))
	p.Choices = labels

	return p
}

// mixBlock blends wet (buf) with dry by mix for the first n samples of
// every channel.
func mixBlock(buf, dry module.Buffer, channels, n int, mix float64) {
	for ch := range channels {
		core.Blend(buf[ch][:n], dry[ch][:n], mix)
	}
}

// copyDry snapshots the first n samples of buf into dry.
func copyDry(dry, buf module.Buffer, channels, n int) {
	for ch := range channels {
		copy(dry[ch][:n], buf[ch][:n])
	}
}
