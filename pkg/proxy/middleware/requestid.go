package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/ForLess01/API-RALF/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds a caller-supplied ID before it reaches the logs.
const maxRequestIDLength = 128

// RequestIDMiddleware assigns every request an ID. A caller-supplied
// X-Request-ID is kept; otherwise a UUID is generated.
//
// The request ID is:
//   - stored in the context with logging.WithRequestID, so every log line
//     written with the request context carries it
//   - echoed in the X-Request-ID response header
//   - recorded in the dispatch journal
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLength {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID extracts the request ID from the context.
// Returns empty string if not found.
func GetRequestID(ctx context.Context) string {
	return logging.RequestID(ctx)
}
