package routing

import (
	"net/http"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

var rateLimitPhrases = []string{"rate limit", "too many requests", "429"}

// IsRateLimit reports whether err is a rate-limit failure: it carries HTTP
// status 429, or the upstream message mentions a rate limit. The adapter's
// framing (which names the backend) is not searched. Everything else is
// fatal for the request.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if providers.StatusCode(err) == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(providers.ErrorMessage(err))
	for _, phrase := range rateLimitPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
