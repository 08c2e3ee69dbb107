package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

const panicMessage = "An internal error occurred. Please try again later."

// RecoveryMiddleware turns a handler panic into a 500 in the API error
// format and logs the stack. The panic value never reaches the caller.
//
// A panic after the response has started (mid-stream) cannot change the
// status any more; it is logged and the response is left truncated.
// http.ErrAbortHandler is re-raised so net/http aborts the connection.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)

		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}

			slog.ErrorContext(r.Context(), "panic in handler",
				"error", v,
				"method", r.Method,
				"path", r.URL.Path,
				"response_started", rw.written,
				"stack", string(debug.Stack()),
			)

			if rw.written {
				return
			}
			writeJSON(w, http.StatusInternalServerError, types.NewServerError(panicMessage))
		}()

		next.ServeHTTP(rw, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
