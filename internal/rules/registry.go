package rules

import (
	"fmt"
	"sort"
	"sync"
)

// Config represents rule-specific configuration (opaque to the engine).
type Config map[string]any

// Factory constructs a rule with the provided configuration.
type Factory func(Config) (Rule, error)

// Registry maintains known rule factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register installs a rule factory. Returns an error if the ID already exists.
func (r *Registry) Register(id string, factory Factory) error {
	if id == "" {
		return fmt.Errorf("rules: id is required")
	}
	if factory == nil {
		return fmt.Errorf("rules: factory is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("rules: %s already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Resolve constructs a rule by ID.
func (r *Registry) Resolve(id string, cfg Config) (Rule, error) {
	r.mu.RLock()
	factory, ok := r.factories[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rules: unknown id %s", id)
	}
	rule, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if err := rule.Info().Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

// IDs returns a sorted list of registered rule identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ResolveAll constructs every registered rule with per-rule configuration
// from cfgs (missing entries get nil config).
func (r *Registry) ResolveAll(cfgs map[string]Config) ([]Rule, error) {
	resolved := make([]Rule, 0, len(r.factories))
	for _, id := range r.IDs() {
		rule, err := r.Resolve(id, cfgs[id])
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, rule)
	}
	return resolved, nil
}
