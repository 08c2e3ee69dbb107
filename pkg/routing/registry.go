package routing

import (
	"errors"
	"log/slog"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// Registry is the fixed, ordered list of configured backends.
// It is built once at startup and never mutated.
type Registry struct {
	backends []providers.Provider
	index    map[string]int
}

// NewRegistry builds a registry in the given order.
// An empty list or a repeated name is an error.
func NewRegistry(backends ...providers.Provider) (*Registry, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	r := &Registry{
		backends: make([]providers.Provider, len(backends)),
		index:    make(map[string]int, len(backends)),
	}
	for i, b := range backends {
		if _, exists := r.index[b.Name()]; exists {
			return nil, &DuplicateBackendError{Name: b.Name()}
		}
		r.index[b.Name()] = i
		r.backends[i] = b
	}

	return r, nil
}

// Count returns the number of backends.
func (r *Registry) Count() int {
	return len(r.backends)
}

// At returns the backend at position i. It panics if i is out of range.
func (r *Registry) At(i int) providers.Provider {
	return r.backends[i]
}

// Index returns the position of the named backend.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Names returns the backend names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.backends))
	for i, b := range r.backends {
		names[i] = b.Name()
	}
	return names
}

// Close closes every backend and returns the joined errors.
func (r *Registry) Close() error {
	var errs []error
	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			slog.Warn("failed to close backend", "backend", b.Name(), "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
