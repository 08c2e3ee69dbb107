// Package metrics provides Prometheus metrics for the gateway.
//
// # Metrics
//
// All names are prefixed with <namespace>_<subsystem>_ (default ralf_gateway_):
//
//   - backend_cooldown{backend}: 1 while the backend is cooling, else 0
//   - backend_cooldown_remaining_seconds{backend}
//   - backend_attempts_total{backend,result}
//   - backend_attempt_duration_seconds{backend}
//   - backend_cooldowns_total{backend}
//   - dispatches_total{outcome}
//   - failovers_total
//   - exhaustions_total{reason}
//   - requests_total{route,outcome}
//   - request_duration_seconds{route}
//   - stream_chunks_total{route}
//
// The two cooldown gauges are computed from the dispatcher at scrape time,
// so they drop back to zero when a cooldown expires without any traffic.
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	dispatcher, _ := routing.NewDispatcher(registry, health, routing.WithObserver(collector))
//	_ = collector.ObserveBackends(dispatcher)
//
//	mux.Handle("/metrics", collector.Handler())
package metrics
