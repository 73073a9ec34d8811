package effectchain

import (
	"github.com/cwbudde/bassforge/dsp/module"
	"github.com/cwbudde/bassforge/dsp/modules"
)

// DefaultRegistry returns a Registry pre-populated with every built-in
// module.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Filters.
	r.MustRegister("fractal", func() module.Module { return modules.NewFractal() })
	r.MustRegister("fractal-bank", func() module.Module { return modules.NewFractalBank() })
	r.MustRegister("spectral", func() module.Module { return modules.NewSpectral() })
	r.MustRegister("comb-stack", func() module.Module { return modules.NewCombStack() })
	r.MustRegister("formant", func() module.Module { return modules.NewFormant() })
	r.MustRegister("pluck", func() module.Module { return modules.NewPluck() })
	r.MustRegister("harmonic-rich", func() module.Module { return modules.NewHarmonicRich() })
	r.MustRegister("wavetable", func() module.Module { return modules.NewWavetable() })
	r.MustRegister("universal-filter", func() module.Module { return modules.NewUniversalFilter() })
	r.MustRegister("eq", func() module.Module { return modules.NewEQ() })
	r.MustRegister("spectral-morph", func() module.Module { return modules.NewSpectralMorph() })
	r.MustRegister("sample-morph", func() module.Module { return modules.NewSampleMorph() })
	r.MustRegister("sub-synth", func() module.Module { return modules.NewSubSynth() })

	// Distortions.
	r.MustRegister("distortion", func() module.Module { return modules.NewDistortion() })
	r.MustRegister("bitcrush", func() module.Module { return modules.NewBitCrusher() })
	r.MustRegister("fibonacci", func() module.Module { return modules.NewFibonacci() })
	r.MustRegister("rat", func() module.Module { return modules.NewRat() })
	r.MustRegister("universal-distortion", func() module.Module { return modules.NewUniversalDistortion() })
	r.MustRegister("fm", func() module.Module { return modules.NewFM() })

	return r
}
