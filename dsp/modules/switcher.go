package modules

import (
	"strings"

	"github.com/cwbudde/bassforge/dsp/module"
)

// routedParam maps an exposed name to a sub-module parameter.
type routedParam struct {
	exposed string
	model   int
	name    string
}

// switcher hosts several modules and runs the one selected by its model
// parameter. Sub-module parameters are exposed with the model prefix, so
// the fractal model's freq becomes fractalFreq.
type switcher struct {
	base

	models []module.Module
	specs  []module.ParamSpec
	routes []routedParam
	active int
}

func newSwitcher(name string, category module.Category, prefixes []string, models []module.Module) switcher {
	s := switcher{
		base:   newBase(name, category, []module.ParamSpec{enum("model", 0, prefixes...)}),
		models: models,
	}

	s.specs = append(s.specs, s.base.specs...)
	for i, m := range models {
		for _, p := range m.Params() {
			routed := p
			routed.Name = prefixes[i] + upperFirst(p.Name)
			s.specs = append(s.specs, routed)
			s.routes = append(s.routes, routedParam{exposed: routed.Name, model: i, name: p.Name})
		}
	}

	return s
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// Params implements module.Module.
func (s *switcher) Params() []module.ParamSpec { return s.specs }

// ApplyParam implements module.Module.
func (s *switcher) ApplyParam(name string, value float64) bool {
	if s.base.ApplyParam(name, value) {
		return true
	}

	for _, r := range s.routes {
		if r.exposed == name {
			return s.models[r.model].ApplyParam(r.name, value)
		}
	}

	return false
}

// Param returns the current value of the model selector or a routed
// sub-module parameter.
func (s *switcher) Param(name string) (float64, bool) {
	if v, ok := s.base.Param(name); ok {
		return v, true
	}

	for _, r := range s.routes {
		if r.exposed != name {
			continue
		}

		if pr, ok := s.models[r.model].(paramReader); ok {
			return pr.Param(r.name)
		}
	}

	return 0, false
}

// Model returns the active model index.
func (s *switcher) Model() int { return s.active }

// Latency reports the lag of the model the next block will run.
func (s *switcher) Latency() int {
	if l, ok := s.models[s.getInt(0)].(module.LatencyReporter); ok {
		return l.Latency()
	}

	return 0
}

// Prepare implements module.Module.
func (s *switcher) Prepare(spec module.Spec) error {
	if err := s.begin(spec); err != nil {
		return err
	}

	for _, m := range s.models {
		if err := m.Prepare(spec); err != nil {
			return err
		}
	}

	s.active = s.getInt(0)

	return nil
}

// Reset implements module.Module.
func (s *switcher) Reset() {
	s.models[s.active].Reset()
}

// Process implements module.Module. Switching model resets the newly
// selected one.
func (s *switcher) Process(ctx module.Context, buf module.Buffer) {
	if !s.prepared {
		return
	}

	if model := s.getInt(0); model != s.active {
		s.active = model
		s.models[model].Reset()
	}

	s.dirty = false
	s.models[s.active].Process(ctx, buf)
}
