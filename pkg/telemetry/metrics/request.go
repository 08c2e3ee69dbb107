package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

// RequestMetrics tracks inbound HTTP chat requests.
//
// Metrics:
//   - ralf_gateway_requests_total: requests by route and outcome
//   - ralf_gateway_request_duration_seconds: full request duration, stream included
//   - ralf_gateway_stream_chunks_total: chunks relayed to callers
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	streamChunks    *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of chat requests by route and outcome",
			},
			[]string{"route", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of chat requests in seconds, including streaming",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),

		streamChunks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_chunks_total",
				Help:      "Total number of chunks relayed to callers",
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(rm.requestsTotal, rm.requestDuration, rm.streamChunks)
	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(route, outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, outcome).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordChunks adds n relayed chunks.
func (rm *RequestMetrics) RecordChunks(route string, n int) {
	rm.streamChunks.WithLabelValues(route).Add(float64(n))
}

// DispatchMetrics tracks failover behaviour.
//
// Metrics:
//   - ralf_gateway_dispatches_total: dispatches by outcome (served, exhausted, failed)
//   - ralf_gateway_failovers_total: rate-limited attempts that moved on to another backend
//   - ralf_gateway_exhaustions_total: fallback responses by reason (all_cooling, all_busy)
type DispatchMetrics struct {
	dispatches  *prometheus.CounterVec
	failovers   prometheus.Counter
	exhaustions *prometheus.CounterVec
}

// NewDispatchMetrics creates dispatch metrics already registered on registry.
func NewDispatchMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DispatchMetrics {
	factory := promauto.With(registry)
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      name,
			Help:      help,
		}
	}

	dm := &DispatchMetrics{
		dispatches:  factory.NewCounterVec(opts("dispatches_total", "Total number of dispatches by outcome"), []string{"outcome"}),
		failovers:   factory.NewCounter(opts("failovers_total", "Total number of rate-limited attempts within a dispatch")),
		exhaustions: factory.NewCounterVec(opts("exhaustions_total", "Total number of fallback responses by reason"), []string{"reason"}),
	}

	// zero series for dashboards
	dm.exhaustions.WithLabelValues(routing.ReasonAllCooling)
	dm.exhaustions.WithLabelValues(routing.ReasonAllBusy)

	return dm
}

// Record records a finished dispatch.
func (dm *DispatchMetrics) Record(rec routing.DispatchRecord) {
	dm.dispatches.WithLabelValues(rec.Outcome).Inc()
	dm.failovers.Add(float64(len(rec.RateLimited)))
	if rec.Outcome == routing.OutcomeExhausted {
		dm.exhaustions.WithLabelValues(rec.Reason).Inc()
	}
}
