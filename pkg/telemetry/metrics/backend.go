package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// BackendMetrics tracks per-backend invocations.
//
// Metrics:
//   - ralf_gateway_backend_attempts_total: invocations by backend and result
//   - ralf_gateway_backend_attempt_duration_seconds: time to first chunk or failure
//   - ralf_gateway_backend_cooldowns_total: times a backend entered cooldown
type BackendMetrics struct {
	attempts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	cooldowns *prometheus.CounterVec
}

// NewBackendMetrics creates and registers backend metrics.
func NewBackendMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BackendMetrics {
	bm := &BackendMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_attempts_total",
				Help:      "Backend invocations by result (success, rate_limited, failed)",
			},
			[]string{"backend", "result"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_attempt_duration_seconds",
				Help:      "Time until a backend produced its first chunk or failed",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"backend"},
		),

		cooldowns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_cooldowns_total",
				Help:      "Number of times a backend entered cooldown",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(bm.attempts, bm.latency, bm.cooldowns)
	return bm
}

// RecordAttempt records one invocation.
func (bm *BackendMetrics) RecordAttempt(backend, result string, elapsed time.Duration) {
	bm.attempts.WithLabelValues(backend, result).Inc()
	bm.latency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

// RecordCooldown records a cooldown transition.
func (bm *BackendMetrics) RecordCooldown(backend string) {
	bm.cooldowns.WithLabelValues(backend).Inc()
}

// StatusSource reports the current state of every backend.
// *routing.Dispatcher satisfies it.
type StatusSource interface {
	Status() routing.Snapshot
}

// backendStateCollector exports cooldown gauges computed at scrape time.
type backendStateCollector struct {
	source    StatusSource
	cooldown  *prometheus.Desc
	remaining *prometheus.Desc
}

func newBackendStateCollector(cfg *config.MetricsConfig, source StatusSource) *backendStateCollector {
	return &backendStateCollector{
		source: source,
		cooldown: prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, "backend_cooldown"),
			"Whether the backend is in cooldown (1) or healthy (0)",
			[]string{"backend"}, nil,
		),
		remaining: prometheus.NewDesc(
			prometheus.BuildFQName(cfg.Namespace, cfg.Subsystem, "backend_cooldown_remaining_seconds"),
			"Seconds until the backend leaves cooldown",
			[]string{"backend"}, nil,
		),
	}
}

func (c *backendStateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cooldown
	ch <- c.remaining
}

func (c *backendStateCollector) Collect(ch chan<- prometheus.Metric) {
	for _, b := range c.source.Status().Backends {
		cooling := 0.0
		if b.Status == routing.StatusCooldown {
			cooling = 1
		}
		ch <- prometheus.MustNewConstMetric(c.cooldown, prometheus.GaugeValue, cooling, b.Name)
		ch <- prometheus.MustNewConstMetric(c.remaining, prometheus.GaugeValue, float64(b.CooldownRemainingSeconds), b.Name)
	}
}
