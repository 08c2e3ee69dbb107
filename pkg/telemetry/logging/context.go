package logging

import (
	"context"
)

// Field names used for request-scoped attributes.
const (
	FieldRequestID = "request_id"
	FieldBackend   = "backend"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	backendKey   contextKey = "backend"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithBackend records the backend currently serving the request.
func WithBackend(ctx context.Context, backend string) context.Context {
	return context.WithValue(ctx, backendKey, backend)
}

// Backend retrieves the backend name from the context.
func Backend(ctx context.Context) string {
	if backend, ok := ctx.Value(backendKey).(string); ok {
		return backend
	}
	return ""
}

// contextFields returns the request fields in ctx as key-value pairs.
func contextFields(ctx context.Context) []any {
	var fields []any
	if id := RequestID(ctx); id != "" {
		fields = append(fields, FieldRequestID, id)
	}
	if backend := Backend(ctx); backend != "" {
		fields = append(fields, FieldBackend, backend)
	}
	return fields
}
