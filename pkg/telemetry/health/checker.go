package health

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

// CheckFunc reports a component problem as a non-nil error.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of one check.
type CheckResult struct {
	// Status is "ok" or "unhealthy"
	Status string `json:"status"`

	// Message explains an unhealthy status
	Message string `json:"message,omitempty"`

	// Optional checks are reported but do not affect readiness
	Optional bool `json:"optional,omitempty"`

	DurationMS float64 `json:"duration_ms"`
}

// Status values.
const (
	StatusOK        = "ok"
	StatusReady     = "ready"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the body of the liveness and readiness endpoints.
type HealthStatus struct {
	// Status is "ok" (liveness), "ready" or "degraded"
	Status string `json:"status"`

	Checks map[string]CheckResult `json:"checks,omitempty"`

	UptimeSeconds int64     `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// ErrCheckTimeout is reported for a check that outlives the check timeout.
var ErrCheckTimeout = errors.New("health check timeout")

type registeredCheck struct {
	fn       CheckFunc
	optional bool
}

// Checker runs the registered component checks.
type Checker struct {
	mu           sync.RWMutex
	checks       map[string]registeredCheck
	checkTimeout time.Duration
	started      time.Time
}

// New creates a checker. A zero timeout means 5 seconds per check.
func New(checkTimeout time.Duration) *Checker {
	if checkTimeout == 0 {
		checkTimeout = 5 * time.Second
	}
	return &Checker{
		checks:       make(map[string]registeredCheck),
		checkTimeout: checkTimeout,
		started:      time.Now(),
	}
}

// RegisterCheck adds a check that must pass for the gateway to be ready.
// A check registered under an existing name replaces it.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.register(name, registeredCheck{fn: check})
}

// RegisterOptionalCheck adds a check whose failure is reported without
// degrading readiness. The journal is one: requests are still served while
// it is unavailable.
func (c *Checker) RegisterOptionalCheck(name string, check CheckFunc) {
	c.register(name, registeredCheck{fn: check, optional: true})
}

func (c *Checker) register(name string, check registeredCheck) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Checks returns the registered check names, sorted.
func (c *Checker) Checks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.checks))
}

// CheckLiveness reports that the process is up. It never runs component
// checks: a gateway whose backends are all cooling is still alive.
func (c *Checker) CheckLiveness(_ context.Context) HealthStatus {
	return HealthStatus{
		Status:        StatusOK,
		UptimeSeconds: c.uptime(),
		Timestamp:     time.Now(),
	}
}

// CheckReadiness runs every check concurrently. The result is degraded if
// any required check fails.
func (c *Checker) CheckReadiness(ctx context.Context) HealthStatus {
	c.mu.RLock()
	checks := maps.Clone(c.checks)
	c.mu.RUnlock()

	results := make(map[string]CheckResult, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for name, check := range checks {
		wg.Go(func() {
			result := c.run(ctx, check.fn)
			result.Optional = check.optional

			mu.Lock()
			results[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	status := StatusReady
	for _, result := range results {
		if result.Status == StatusUnhealthy && !result.Optional {
			status = StatusDegraded
		}
	}

	return HealthStatus{
		Status:        status,
		Checks:        results,
		UptimeSeconds: c.uptime(),
		Timestamp:     time.Now(),
	}
}

// run executes one check bounded by the check timeout. A check that ignores
// its context is abandoned, not waited for.
func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.checkTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ErrCheckTimeout
	}

	result := CheckResult{Status: StatusOK, DurationMS: millis(time.Since(start))}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Message = err.Error()
	}
	return result
}

func (c *Checker) uptime() int64 {
	return int64(time.Since(c.started) / time.Second)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
