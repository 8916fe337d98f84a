package country

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps display labels to handlers. It is populated once at
// startup and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler under label, replacing any existing entry.
// Panics on an empty label or nil handler, both of which are wiring bugs.
func (r *Registry) Register(label string, h Handler) {
	if label == "" {
		panic("country: register with empty label")
	}
	if h == nil {
		panic(fmt.Sprintf("country: register %q with nil handler", label))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[label] = h
}

// Resolve returns the handler for label, or a *ConfigurationError when none
// is registered. Labels match exactly.
func (r *Registry) Resolve(label string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[label]
	if !ok {
		return nil, &ConfigurationError{Label: label}
	}
	return h, nil
}

// Labels returns every registered label, sorted.
func (r *Registry) Labels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.handlers))
	for l := range r.handlers {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered labels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
