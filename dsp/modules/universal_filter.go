package modules

import "github.com/cwbudde/bassforge/dsp/module"

// Universal filter models.
const (
	ModelFractal = iota
	ModelSpectral
	ModelPluck
	ModelFormant
	ModelComb
)

// UniversalFilter switches between the fractal, spectral, pluck, formant
// and comb filters. Their parameters carry the model name as prefix, e.g.
// fractalFreq or combDelay.
type UniversalFilter struct {
	switcher
}

// NewUniversalFilter returns a universal filter starting on the fractal
// model.
func NewUniversalFilter() *UniversalFilter {
	return &UniversalFilter{switcher: newSwitcher("universal-filter", module.CategoryFilter,
		[]string{"fractal", "spectral", "pluck", "formant", "comb"},
		[]module.Module{NewFractal(), NewSpectral(), NewPluck(), NewFormant(), NewCombStack()},
	)}
}

// Trigger re-excites the pluck model.
func (u *UniversalFilter) Trigger() {
	if t, ok := u.models[ModelPluck].(module.Trigger); ok {
		t.Trigger()
	}
}
