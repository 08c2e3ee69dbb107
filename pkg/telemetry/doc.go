// Package telemetry groups the gateway's observability packages:
//
//   - logging: slog setup with console/json/text output and key redaction
//   - metrics: Prometheus collector fed by the dispatcher
//   - tracing: OpenTelemetry tracer provider and HTTP propagation
//   - health: liveness, readiness and version endpoints
package telemetry
