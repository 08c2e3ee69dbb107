// Package tracing provides OpenTelemetry tracing for the gateway.
//
// When telemetry.tracing.enabled is set, New installs an SDK tracer provider
// as the otel global, exporting over OTLP/gRPC to telemetry.tracing.endpoint.
// Every inbound request gets a server span from HTTPMiddleware; the
// dispatcher adds a "routing.Dispatch" child span with the chosen backend,
// rate-limit events and the outcome.
//
// # Propagation
//
// W3C Trace Context and Baggage are used. A caller's traceparent header is
// honored and the resulting trace ID is returned in X-Trace-ID.
//
// # Sampling
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    sampler: ratio      # always | never | ratio
//	    sample_ratio: 0.1
//	    endpoint: localhost:4317
//
// All samplers are parent-based.
package tracing
