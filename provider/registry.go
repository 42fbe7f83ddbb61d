package provider

import (
	"fmt"
	"slices"
	"sync"
)

// Registry is a concurrency-safe table of named factories that take a
// typed config C.
type Registry[T Provider, C any] struct {
	mu        sync.RWMutex
	factories map[string]Factory[T, C]
}

// NewRegistry returns an empty table.
func NewRegistry[T Provider, C any]() *Registry[T, C] {
	return &Registry[T, C]{factories: map[string]Factory[T, C]{}}
}

// Add registers f under name, replacing any previous factory.
func (r *Registry[T, C]) Add(name string, f Factory[T, C]) {
	r.mu.Lock()
	r.factories[name] = f
	r.mu.Unlock()
}

// Remove drops the factory for name.
func (r *Registry[T, C]) Remove(name string) {
	r.mu.Lock()
	delete(r.factories, name)
	r.mu.Unlock()
}

// Create builds a fresh adapter with the factory registered under name.
func (r *Registry[T, C]) Create(name string, cfg C) (T, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("provider: no factory registered for %q", name)
	}
	return f(cfg)
}

// Names lists the registered names in order.
func (r *Registry[T, C]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
