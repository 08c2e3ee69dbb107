package openai

import (
	"net/http"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// headerTransport sets fixed headers on every upstream request.
// For OpenRouter these are the attribution headers it uses for app rankings.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for key, value := range t.headers {
			req.Header.Set(key, value)
		}
	}
	if t.base == nil {
		return http.DefaultTransport.RoundTrip(req)
	}
	return t.base.RoundTrip(req)
}

// requestHeaders merges the OpenRouter attribution defaults with any
// configured headers. Configured headers win.
func requestHeaders(config providers.ProviderConfig) map[string]string {
	headers := make(map[string]string, len(config.Headers)+2)
	if config.Type == TypeOpenRouter {
		headers["HTTP-Referer"] = DefaultReferer
		headers["X-Title"] = DefaultTitle
	}
	for key, value := range config.Headers {
		headers[key] = value
	}
	return headers
}
