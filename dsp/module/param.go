package module

import (
	"math"
	"strings"

	"github.com/cwbudde/bassforge/dsp/core"
)

// ParamSpec declares one named parameter.
type ParamSpec struct {
	Name     string
	Min      float64
	Max      float64
	Default  float64
	Unit     string
	Discrete bool
	// Choices names the values of an enumerated parameter, indexed from
	// Min.
	Choices []string
}

// Clamp limits v to the declared range, rounding discrete parameters.
// Non-finite input yields the default.
func (p ParamSpec) Clamp(v float64) float64 {
	if !core.IsFinite(v) {
		return p.Default
	}

	v = core.Clamp(v, p.Min, p.Max)
	if p.Discrete {
		v = math.Round(v)
	}

	return v
}

// Choice returns the value for a choice label, ignoring case.
func (p ParamSpec) Choice(label string) (float64, bool) {
	for i, c := range p.Choices {
		if strings.EqualFold(c, label) {
			return p.Min + float64(i), true
		}
	}

	return 0, false
}

// Label returns the choice label for v, or "" for non-enumerated
// parameters.
func (p ParamSpec) Label(v float64) string {
	i := int(p.Clamp(v) - p.Min)
	if i < 0 || i >= len(p.Choices) {
		return ""
	}

	return p.Choices[i]
}

// FindParam returns the spec named name.
func FindParam(specs []ParamSpec, name string) (ParamSpec, bool) {
	for _, p := range specs {
		if p.Name == name {
			return p, true
		}
	}

	return ParamSpec{}, false
}

// Defaults returns name -> default for the given specs.
func Defaults(specs []ParamSpec) map[string]float64 {
	out := make(map[string]float64, len(specs))
	for _, p := range specs {
		out[p.Name] = p.Default
	}

	return out
}
