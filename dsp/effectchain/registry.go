package effectchain

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cwbudde/bassforge/dsp/module"
)

// Factory builds one unprepared module instance.
type Factory func() module.Module

// Registry maps module type names to their factories.
type Registry struct {
	factories map[string]Factory
}

var errDuplicateModule = errors.New("duplicate module type")

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given module type.
func (r *Registry) Register(moduleType string, factory Factory) error {
	if moduleType == "" {
		return errors.New("empty module type")
	}

	if factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.factories[moduleType]; exists {
		return fmt.Errorf("%w: %s", errDuplicateModule, moduleType)
	}

	r.factories[moduleType] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(moduleType string, factory Factory) {
	err := r.Register(moduleType, factory)
	if err != nil {
		panic("effectchain registry: " + err.Error())
	}
}

// Lookup returns the factory for the given module type, or nil.
func (r *Registry) Lookup(moduleType string) Factory {
	return r.factories[moduleType]
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// New builds a module of the given type.
func (r *Registry) New(moduleType string) (module.Module, error) {
	factory := r.Lookup(moduleType)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModule, moduleType)
	}

	m := factory()
	if m == nil {
		return nil, fmt.Errorf("effectchain: factory for %s returned nil", moduleType)
	}

	return m, nil
}
