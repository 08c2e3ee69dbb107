package health

import (
	"context"
	"errors"
	"fmt"
)

// ErrAllBackendsCooling is reported by BackendsCheck when no backend can
// take a request.
var ErrAllBackendsCooling = errors.New("all backends are in cooldown")

// BackendState is satisfied by *routing.Dispatcher.
type BackendState interface {
	AnyHealthy() bool
}

// BackendsCheck fails while every backend is cooling. The gateway still
// answers in that state (with fallback text), so this only degrades
// readiness.
func BackendsCheck(state BackendState) CheckFunc {
	return func(ctx context.Context) error {
		if state.AnyHealthy() {
			return nil
		}
		return ErrAllBackendsCooling
	}
}

// Pinger is anything that can verify its own connectivity, such as the
// journal store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck wraps a Pinger.
func PingCheck(name string, p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}
