package modules

import (
	"math"
	"testing"

	"github.com/cwbudde/bassforge/dsp/keytrack"
	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/internal/testutil"
)

const (
	testRate  = 48000.0
	testBlock = 512
)

var testSpec = module.Spec{SampleRate: testRate, MaxBlockSize: testBlock, Channels: 2}

type constructor struct {
	name string
	new  func() module.Module
	// spectral modules run FFT plans in Process and are left out of the
	// allocation check.
	spectral bool
}

func constructors() []constructor {
	return []constructor{
		{"fractal", func() module.Module { return NewFractal() }, false},
		{"fractal-bank", func() module.Module { return NewFractalBank() }, false},
		{"spectral", func() module.Module { return NewSpectral() }, true},
		{"comb-stack", func() module.Module { return NewCombStack() }, false},
		{"formant", func() module.Module { return NewFormant() }, false},
		{"pluck", func() module.Module { return NewPluck() }, false},
		{"harmonic-rich", func() module.Module { return NewHarmonicRich() }, false},
		{"wavetable", func() module.Module { return NewWavetable() }, false},
		{"universal-filter", func() module.Module { return NewUniversalFilter() }, true},
		{"eq", func() module.Module { return NewEQ() }, false},
		{"spectral-morph", func() module.Module { return NewSpectralMorph() }, true},
		{"sample-morph", func() module.Module { return NewSampleMorph() }, false},
		{"sub-synth", func() module.Module { return NewSubSynth() }, false},
		{"distortion", func() module.Module { return NewDistortion() }, false},
		{"bitcrush", func() module.Module { return NewBitCrusher() }, false},
		{"fibonacci", func() module.Module { return NewFibonacci() }, false},
		{"rat", func() module.Module { return NewRat() }, false},
		{"universal-distortion", func() module.Module { return NewUniversalDistortion() }, false},
		{"fm", func() module.Module { return NewFM() }, false},
	}
}

func prepared(t *testing.T, m module.Module, spec module.Spec) module.Module {
	t.Helper()

	if err := m.Prepare(spec); err != nil {
		t.Fatalf("%s: Prepare() error = %v", m.Name(), err)
	}

	return m
}

func noiseBlock(seed int64, amp float64) module.Buffer {
	return module.Buffer(testutil.Planar(
		testutil.DeterministicNoise(seed, amp, testBlock),
		testutil.DeterministicNoise(seed+1, amp, testBlock),
	))
}

func heldTracker(note int) *keytrack.Tracker {
	tr := keytrack.New()
	tr.ProcessEvents([]keytrack.Event{{Kind: keytrack.NoteOn, Note: note, Velocity: 100}}, testBlock)

	return tr
}

func TestConstructorNames(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for _, c := range constructors() {
		m := c.new()
		if m.Name() != c.name {
			t.Fatalf("Name() = %q, want %q", m.Name(), c.name)
		}

		if seen[c.name] {
			t.Fatalf("duplicate module %q", c.name)
		}

		seen[c.name] = true

		for _, p := range m.Params() {
			if p.Min > p.Max || p.Default < p.Min || p.Default > p.Max {
				t.Fatalf("%s.%s: bad range [%v, %v] default %v", c.name, p.Name, p.Min, p.Max, p.Default)
			}
		}
	}

	if len(seen) != 19 {
		t.Fatalf("got %d modules, want 19", len(seen))
	}
}

func TestPrepareRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		if err := c.new().Prepare(module.Spec{SampleRate: 0, MaxBlockSize: 64, Channels: 1}); err == nil {
			t.Fatalf("%s: expected error for zero sample rate", c.name)
		}
	}
}

func TestUnpreparedProcessLeavesInput(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		buf := noiseBlock(3, 0.5)
		want := noiseBlock(3, 0.5)

		c.new().Process(module.Context{}, buf)

		for ch := range buf {
			testutil.RequireSliceNearlyEqual(t, buf[ch], want[ch], 0)
		}
	}
}

func TestModulesProduceFiniteOutput(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			for _, ctx := range []module.Context{{}, {Tracker: heldTracker(36)}} {
				m := prepared(t, c.new(), testSpec)

				silence := module.NewBuffer(2, testBlock)
				m.Process(ctx, silence)

				for ch := range silence {
					testutil.RequireFinite(t, silence[ch])
				}

				for block := range 40 {
					buf := noiseBlock(int64(block), 0.8)
					m.Process(ctx, buf)

					for ch := range buf {
						testutil.RequireFinite(t, buf[ch])
						testutil.RequireBounded(t, buf[ch], 100)
					}
				}
			}
		})
	}
}

func TestModulesHandleShortAndOversizedBlocks(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		m := prepared(t, c.new(), testSpec)

		short := module.NewBuffer(1, 17)
		copy(short[0], testutil.DeterministicSine(100, testRate, 0.5, 17))
		m.Process(module.Context{}, short)
		testutil.RequireFinite(t, short[0])

		wide := module.NewBuffer(4, testBlock*2)
		m.Process(module.Context{}, wide)

		for ch := range wide {
			testutil.RequireFinite(t, wide[ch])
		}
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	for _, c := range constructors() {
		if c.spectral {
			continue
		}

		m := prepared(t, c.new(), testSpec)
		ctx := module.Context{Tracker: heldTracker(40)}
		buf := noiseBlock(9, 0.5)

		m.Process(ctx, buf)

		allocs := testing.AllocsPerRun(20, func() {
			m.Process(ctx, buf)
		})
		if allocs != 0 {
			t.Fatalf("%s: Process allocated %.1f times per block", c.name, allocs)
		}
	}
}

func TestApplyParamIdempotent(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			a := prepared(t, c.new(), testSpec)
			b := prepared(t, c.new(), testSpec)
			ctx := module.Context{Tracker: heldTracker(33)}

			for block := range 6 {
				if block == 3 {
					for _, p := range b.Params() {
						if !b.ApplyParam(p.Name, p.Default) {
							t.Fatalf("ApplyParam(%q) rejected a declared name", p.Name)
						}
					}
				}

				x, y := noiseBlock(int64(block), 0.5), noiseBlock(int64(block), 0.5)
				a.Process(ctx, x)
				b.Process(ctx, y)

				for ch := range x {
					testutil.RequireSliceNearlyEqual(t, y[ch], x[ch], 0)
				}
			}
		})
	}
}

func TestApplyParamUnknownAndClamped(t *testing.T) {
	t.Parallel()

	for _, c := range constructors() {
		m := c.new()
		if m.ApplyParam("noSuchParam", 1) {
			t.Fatalf("%s accepted an unknown name", c.name)
		}

		for _, p := range m.Params() {
			if !m.ApplyParam(p.Name, p.Max+1e6) {
				t.Fatalf("%s rejected %q", c.name, p.Name)
			}

			if !m.ApplyParam(p.Name, math.Inf(-1)) {
				t.Fatalf("%s rejected %q", c.name, p.Name)
			}
		}

		m = prepared(t, m, testSpec)
		buf := noiseBlock(5, 0.5)
		m.Process(module.Context{Tracker: heldTracker(28)}, buf)

		for ch := range buf {
			testutil.RequireFinite(t, buf[ch])
		}
	}
}

func TestResetMatchesFreshPrepare(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"fractal", "fractal-bank", "eq", "distortion", "bitcrush", "rat", "fm", "pluck", "sub-synth"} {
		var c constructor

		for _, cc := range constructors() {
			if cc.name == name {
				c = cc
			}
		}

		used := prepared(t, c.new(), testSpec)
		fresh := prepared(t, c.new(), testSpec)

		for block := range 5 {
			used.Process(module.Context{}, noiseBlock(int64(100+block), 0.7))
		}

		used.Reset()

		for block := range 3 {
			x, y := noiseBlock(int64(block), 0.5), noiseBlock(int64(block), 0.5)
			used.Process(module.Context{}, x)
			fresh.Process(module.Context{}, y)

			for ch := range x {
				testutil.RequireSliceNearlyEqual(t, x[ch], y[ch], 1e-12)
			}
		}
	}
}
