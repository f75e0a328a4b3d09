package resource

import (
	"fmt"
	"sync"
)

// Registry manages all resource types in the application. Types are
// registered during startup, then the registry is frozen before serving;
// after Freeze the registry is read-only and safe for concurrent lookups
// without coordination.
type Registry struct {
	types  map[string]*Type
	frozen bool
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]*Type),
	}
}

// Register adds a resource type under its name. Registering a duplicate name
// or registering after Freeze is an error.
func (r *Registry) Register(t *Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %s", ErrRegistryFrozen, t.Name())
	}
	if t.Name() == "" {
		return ErrUnnamedType
	}
	if _, exists := r.types[t.Name()]; exists {
		return fmt.Errorf("resource %s is already registered", t.Name())
	}

	r.types[t.Name()] = t
	return nil
}

// Freeze validates relationship targets and makes the registry immutable.
// Every declared relationship must point at a registered type; cycles are
// legal and not checked here.
func (r *Registry) Freeze() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, t := range r.types {
		for _, rel := range t.Relationships() {
			if rel.Target == nil {
				return fmt.Errorf("resource %s: relationship %s has no target", name, rel.Name)
			}
			if registered, ok := r.types[rel.Target.Name()]; !ok || registered != rel.Target {
				return fmt.Errorf("resource %s: relationship %s references unregistered resource %s",
					name, rel.Name, rel.Target.Name())
			}
		}
	}

	r.frozen = true
	return nil
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Get retrieves a resource type by name
func (r *Registry) Get(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

// Count returns the number of registered types
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Types returns a copy of the registered type map
func (r *Registry) Types() map[string]*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Type, len(r.types))
	for k, v := range r.types {
		result[k] = v
	}
	return result
}
