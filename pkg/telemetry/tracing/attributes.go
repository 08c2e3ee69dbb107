package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys in the ralf.* namespace. The dispatcher span uses the same
// names for backend and outcome.
const (
	AttrRequestID = "ralf.request_id"
	AttrRoute     = "ralf.route"
	AttrBackend   = "ralf.backend"
	AttrOutcome   = "ralf.outcome"
	AttrFallback  = "ralf.fallback"
	AttrChunks    = "ralf.chunks"
	AttrStream    = "ralf.stream"
)

// SetRequestAttributes tags a server span with the request id and route.
func SetRequestAttributes(span trace.Span, requestID, route string) {
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String(AttrRoute, route))
	}
	span.SetAttributes(attrs...)
}

// SetRelayAttributes records how a relayed response ended.
func SetRelayAttributes(span trace.Span, backend string, fallback bool, chunks int) {
	span.SetAttributes(
		attribute.String(AttrBackend, backend),
		attribute.Bool(AttrFallback, fallback),
		attribute.Int(AttrChunks, chunks),
	)
}
