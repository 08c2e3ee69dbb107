package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// NewRegistry creates every configured backend, in configuration order, and
// registers them for routing. The order becomes the rotation order.
//
// If any backend cannot be created the ones already built are closed and
// every failure is returned together.
func NewRegistry(backends []config.BackendConfig) (*routing.Registry, error) {
	created := make([]providers.Provider, 0, len(backends))
	var errs []error

	for _, b := range backends {
		p, err := NewProvider(b)
		if err != nil {
			slog.Error("failed to load backend", "name", b.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		created = append(created, p)
	}

	if len(errs) > 0 {
		closeAll(created)
		return nil, fmt.Errorf("failed to load %d backend(s): %w", len(errs), errors.Join(errs...))
	}

	registry, err := routing.NewRegistry(created...)
	if err != nil {
		closeAll(created)
		return nil, err
	}

	slog.Info("backends loaded", "count", registry.Count(), "order", registry.Names())
	return registry, nil
}

func closeAll(list []providers.Provider) {
	for _, p := range list {
		if err := p.Close(); err != nil {
			slog.Warn("error closing provider", "name", p.Name(), "error", err)
		}
	}
}
