package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/config"
)

// CORSMiddleware lets browser callers reach the chat endpoints. An allowed
// Origin is echoed back; with "*" in the list and no matching entry the
// wildcard is sent instead. A preflight (OPTIONS carrying
// Access-Control-Request-Method) is answered with 204 and never reaches the
// handler.
//
//	handler = CORSMiddleware(&cfg.Proxy.CORS)(handler)
func CORSMiddleware(cors *config.CORSConfig) func(http.Handler) http.Handler {
	if !cors.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	wildcard := slices.Contains(cors.AllowedOrigins, "*")
	methods := strings.Join(cors.AllowedMethods, ", ")
	headers := strings.Join(cors.AllowedHeaders, ", ")
	exposed := strings.Join(cors.ExposedHeaders, ", ")
	maxAge := ""
	if cors.MaxAge > 0 {
		maxAge = strconv.Itoa(cors.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			switch {
			case origin != "" && slices.Contains(cors.AllowedOrigins, origin):
				h.Set("Access-Control-Allow-Origin", origin)
				if cors.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			case wildcard:
				h.Set("Access-Control-Allow-Origin", "*")
			default:
				// Unknown origin: no CORS headers, the browser blocks it.
				next.ServeHTTP(w, r)
				return
			}

			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				setIfNotEmpty(h, "Access-Control-Allow-Methods", methods)
				setIfNotEmpty(h, "Access-Control-Allow-Headers", headers)
				setIfNotEmpty(h, "Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setIfNotEmpty(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
