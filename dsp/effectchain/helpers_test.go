package effectchain

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/cwbudde/bassforge/dsp/module"
)

const (
	testRate  = 48000.0
	testBlock = 256
)

var stereoSpec = module.Spec{SampleRate: testRate, MaxBlockSize: testBlock, Channels: 2}

// gainModule multiplies every sample by gain and then adds offset.
type gainModule struct {
	name     string
	gain     float64
	offset   float64
	prepares int
	resets   int
	calls    int
	// first records buf[0][0] as seen on the last call.
	first float64
}

func newGain(gain float64) *gainModule {
	return &gainModule{name: "gain", gain: gain}
}

func newOffset(offset float64) *gainModule {
	return &gainModule{name: "offset", gain: 1, offset: offset}
}

func (g *gainModule) Name() string              { return g.name }
func (g *gainModule) Category() module.Category { return module.CategoryFilter }

func (g *gainModule) Prepare(module.Spec) error {
	g.prepares++
	return nil
}

func (g *gainModule) Process(_ module.Context, buf module.Buffer) {
	g.calls++
	if len(buf) > 0 && len(buf[0]) > 0 {
		g.first = buf[0][0]
	}

	for _, ch := range buf {
		for i := range ch {
			ch[i] = ch[i]*g.gain + g.offset
		}
	}
}

func (g *gainModule) Reset() { g.resets++ }

func (g *gainModule) Params() []module.ParamSpec {
	return []module.ParamSpec{
		{Name: "gain", Min: -10, Max: 10, Default: 1},
		{Name: "offset", Min: -1, Max: 1},
	}
}

func (g *gainModule) ApplyParam(name string, value float64) bool {
	switch name {
	case "gain":
		g.gain = value
	case "offset":
		g.offset = value
	default:
		return false
	}

	return true
}

func (g *gainModule) Param(name string) (float64, bool) {
	switch name {
	case "gain":
		return g.gain, true
	case "offset":
		return g.offset, true
	}

	return 0, false
}

// preparedChain returns a chain prepared for spec with the output stage
// left at its defaults.
func preparedChain(t *testing.T, spec module.Spec, opts ...Option) *Chain {
	t.Helper()

	c := New(nil, opts...)
	if err := c.Prepare(spec); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	return c
}

func setSlots(t *testing.T, c *Chain, mods ...module.Module) {
	t.Helper()

	for i, m := range mods {
		if m == nil {
			continue
		}

		if err := c.SetSlot(i, m); err != nil {
			t.Fatalf("SetSlot(%d) error = %v", i, err)
		}
	}
}

func setParam(t *testing.T, c *Chain, name string, v float64) {
	t.Helper()

	if err := c.SetParam(name, v); err != nil {
		t.Fatalf("SetParam(%q, %v) error = %v", name, v, err)
	}
}

func constBuffer(channels, n int, values ...float64) module.Buffer {
	buf := module.NewBuffer(channels, n)
	for ch := range buf {
		for i := range buf[ch] {
			buf[ch][i] = values[ch%len(values)]
		}
	}

	return buf
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var out bytes.Buffer

	return slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug})), &out
}
