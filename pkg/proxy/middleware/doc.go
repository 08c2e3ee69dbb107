// Package middleware provides the HTTP middleware wrapped around every
// gateway route.
//
// # Middleware Chain
//
// Chain applies middleware with the first argument outermost:
//
//	handler = Chain(mux,
//	    RecoveryMiddleware,
//	    RequestIDMiddleware,
//	    tracing.HTTPMiddleware(tracer),
//	    LoggingMiddleware,
//	    CORSMiddleware(&cfg.Proxy.CORS),
//	)
//
// Recovery sits outside everything so a panic anywhere still produces a
// JSON 500. The request ID is assigned before logging so that every log
// line for the request carries it.
//
// # Request ID
//
// RequestIDMiddleware keeps a caller supplied X-Request-ID (up to 128
// characters) or generates a UUID v4. The ID is stored with
// logging.WithRequestID, so any slog call made with the request context
// includes it, and it is echoed in the response header.
//
// # Logging
//
// LoggingMiddleware writes one "request completed" record per request:
//
//	{
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "POST",
//	  "path": "/chat",
//	  "status": 200,
//	  "bytes": 512,
//	  "latency_ms": 1250,
//	  "request_id": "550e8400-e29b-41d4-a716-446655440000"
//	}
//
// The wrapped writer forwards Flush, which the streaming relay depends on.
//
// # CORS
//
// CORSMiddleware is driven by the proxy.cors section of the configuration:
//
//	proxy:
//	  cors:
//	    enabled: true
//	    allowed_origins: ["https://app.example.com"]
//	    exposed_headers: ["X-Request-ID", "X-RALF-Backend"]
//
// # Recovery
//
// RecoveryMiddleware turns a handler panic into an OpenAI-style 500 error
// and logs the stack. http.ErrAbortHandler is re-raised so net/http can
// abort the connection quietly.
//
// No request timeout middleware is installed: a streamed completion may
// legitimately run for minutes, and each backend enforces its own timeout.
package middleware
