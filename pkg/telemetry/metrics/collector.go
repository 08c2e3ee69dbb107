package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// Collector owns every Prometheus metric the gateway exports. It implements
// routing.Observer so the dispatcher reports attempts, cooldowns and
// outcomes to it directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Per-backend attempt counters and cooldown transitions
	backendMetrics *BackendMetrics

	// Failovers and exhaustions
	dispatchMetrics *DispatchMetrics

	// HTTP route outcomes, latency and relayed chunks
	requestMetrics *RequestMetrics
}

var _ routing.Observer = (*Collector)(nil)

// NewCollector creates a collector registered on registry. A nil registry
// gets a fresh one so tests and multiple gateways never collide on the
// global default.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		backendMetrics:  NewBackendMetrics(cfg, registry),
		dispatchMetrics: NewDispatchMetrics(cfg, registry),
		requestMetrics:  NewRequestMetrics(cfg, registry),
	}
}

// Enabled reports whether recording is active.
func (c *Collector) Enabled() bool {
	return c.config.Enabled
}

// ObserveBackends registers gauges that read cooldown state from source on
// every scrape, so an expired cooldown reads as healthy without an event.
func (c *Collector) ObserveBackends(source StatusSource) error {
	return c.registry.Register(newBackendStateCollector(c.config, source))
}

// AttemptFinished records one backend invocation.
func (c *Collector) AttemptFinished(backend, result string, elapsed time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.backendMetrics.RecordAttempt(backend, result, elapsed)
}

// CooldownStarted records a backend entering cooldown.
func (c *Collector) CooldownStarted(backend string, _ time.Time) {
	if !c.config.Enabled {
		return
	}
	c.backendMetrics.RecordCooldown(backend)
}

// DispatchFinished records the dispatch outcome.
func (c *Collector) DispatchFinished(_ context.Context, rec routing.DispatchRecord) {
	if !c.config.Enabled {
		return
	}
	c.dispatchMetrics.Record(rec)
}

// RecordRequest records a completed HTTP request.
//
// Parameters:
//   - route: route name (e.g. "chat", "chat_completions")
//   - outcome: "served", "fallback", "failed" or "invalid"
//   - duration: time from request start until the stream was closed
func (c *Collector) RecordRequest(route, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.RecordRequest(route, outcome, duration)
}

// RecordStreamChunks adds n relayed chunks for route.
func (c *Collector) RecordStreamChunks(route string, n int) {
	if !c.config.Enabled || n <= 0 {
		return
	}
	c.requestMetrics.RecordChunks(route, n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
