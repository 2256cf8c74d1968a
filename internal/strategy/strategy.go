// Package strategy defines the Strategy interface for signal generation and
// provides a Registry of named strategy factories resolved at startup.
package strategy

import (
	"fmt"
	"sort"

	"tidemark/internal/domain"
)

// Params holds strategy tuning parameters from configuration.
type Params map[string]float64

// Get returns the parameter value for key, or def when the key is absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Strategy produces a signal sequence from a bar sequence. Implementations
// must return exactly one signal per bar, aligned by timestamp, and may only
// use bars at or before the one a signal is decided on.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// GenerateSignals computes one signal per input bar. Strategy-specific
	// indicator values may be attached to each signal for reporting.
	GenerateSignals(bars []domain.Bar) ([]domain.Signal, error)
}

// Factory builds a Strategy from a parameter set.
type Factory func(params Params) (Strategy, error)

// Registry holds a named collection of strategy factories for lookup and
// enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a strategy factory to the registry under the given name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Create builds the named strategy with the given parameters. It fails when
// the name is not registered.
func (r *Registry) Create(name string, params Params) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, r.List())
	}
	return f(params)
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
