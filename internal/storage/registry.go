package storage

import "strings"

// Registry holds the providers registered at startup, in registration
// order. Registration order is meaningful: the first provider is the
// selector's last-resort default. The registry is immutable after
// construction, which keeps provider resolution free of locking.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry from providers in registration order.
func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Get resolves a provider by name, case-insensitively.
func (r *Registry) Get(name string) (Provider, bool) {
	for _, p := range r.providers {
		if strings.EqualFold(p.Name(), name) {
			return p, true
		}
	}
	return nil, false
}

// All returns the providers in registration order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Default is the process-wide registry, set during startup.
var Default *Registry
