package module

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/bassforge/dsp/core"
	"github.com/cwbudde/bassforge/dsp/keytrack"
)

func TestSpecValidate(t *testing.T) {
	t.Parallel()

	good := Spec{SampleRate: 48000, MaxBlockSize: 512, Channels: 2}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid spec rejected: %v", err)
	}

	for _, s := range []Spec{
		{SampleRate: 0, MaxBlockSize: 512, Channels: 2},
		{SampleRate: math.Inf(1), MaxBlockSize: 512, Channels: 2},
		{SampleRate: 48000, MaxBlockSize: 0, Channels: 2},
		{SampleRate: 48000, MaxBlockSize: 512, Channels: 0},
	} {
		if err := s.Validate(); !errors.Is(err, ErrInvalidSpec) {
			t.Fatalf("%+v: expected ErrInvalidSpec, got %v", s, err)
		}
	}

	cfg := core.ApplyProcessorOptions(core.WithSampleRate(44100), core.WithChannels(1))
	if s := SpecFromConfig(cfg); s.SampleRate != 44100 || s.Channels != 1 || s.MaxBlockSize != 512 {
		t.Fatalf("spec from config %+v", s)
	}
}

func TestContextFrequency(t *testing.T) {
	t.Parallel()

	var ctx Context
	if ctx.HasTracker() || ctx.Frequency() != 440 {
		t.Fatal("empty context should report 440 Hz")
	}

	tr := keytrack.New()
	tr.ProcessEvents([]keytrack.Event{{Kind: keytrack.NoteOn, Note: 33, Velocity: 90}}, 0)

	ctx.Tracker = tr
	if math.Abs(ctx.Frequency()-55) > 1e-9 {
		t.Fatalf("tracked frequency %v, want 55", ctx.Frequency())
	}
}

func TestBuffer(t *testing.T) {
	t.Parallel()

	b := NewBuffer(2, 8)
	if b.NumChannels() != 2 || b.NumSamples() != 8 {
		t.Fatalf("shape %dx%d", b.NumChannels(), b.NumSamples())
	}

	src := Buffer{{1, 2, 3}, {4, 5, 6}, {7}}
	b.CopyFrom(src)

	if b.Channel(1)[2] != 6 || b[0][3] != 0 {
		t.Fatalf("copy result %v", b)
	}

	view := b.Slice(make(Buffer, 0, 2), 3)
	if view.NumSamples() != 3 || &view[0][0] != &b[0][0] {
		t.Fatal("slice should alias the original channels")
	}

	b.Clear()
	if b[0][0] != 0 || b[1][2] != 0 {
		t.Fatal("clear left data behind")
	}

	if (Buffer{}).NumSamples() != 0 {
		t.Fatal("empty buffer has samples")
	}
}

func TestParamSpecClamp(t *testing.T) {
	t.Parallel()

	p := ParamSpec{Name: "depth", Min: 1, Max: 8, Default: 4, Discrete: true}

	tests := []struct{ in, want float64 }{
		{0, 1},
		{3.4, 3},
		{3.6, 4},
		{99, 8},
		{math.NaN(), 4},
	}

	for _, tc := range tests {
		if got := p.Clamp(tc.in); got != tc.want {
			t.Errorf("Clamp(%v)=%v, want %v", tc.in, got, tc.want)
		}
	}

	specs := []ParamSpec{p, {Name: "mix", Max: 1, Default: 1}}
	if got, ok := FindParam(specs, "mix"); !ok || got.Default != 1 {
		t.Fatal("FindParam mix")
	}

	if _, ok := FindParam(specs, "nope"); ok {
		t.Fatal("FindParam found unknown name")
	}

	if d := Defaults(specs); d["depth"] != 4 || len(d) != 2 {
		t.Fatalf("defaults %v", d)
	}

	if CategoryDistortion.String() != "distortion" {
		t.Fatal("category name")
	}
}

func TestParamSpecChoices(t *testing.T) {
	t.Parallel()

	p := ParamSpec{Name: "mode", Max: 2, Discrete: true, Choices: []string{"serial", "parallel", "midside"}}

	if v, ok := p.Choice("Parallel"); !ok || v != 1 {
		t.Fatalf("Choice(Parallel) = %v, %v", v, ok)
	}

	if _, ok := p.Choice("feedback"); ok {
		t.Fatal("Choice accepted an unknown label")
	}

	if got := p.Label(2); got != "midside" {
		t.Fatalf("Label(2) = %q", got)
	}

	if got := p.Label(7); got != "midside" {
		t.Fatalf("Label(7) = %q, want clamped label", got)
	}

	if got := (ParamSpec{Max: 1}).Label(0); got != "" {
		t.Fatalf("Label on continuous param = %q", got)
	}
}
