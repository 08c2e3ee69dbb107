package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrorFormatter turns a non-2xx upstream response into the human-readable
// message carried by the returned error.
type ErrorFormatter func(statusCode int, status string, body []byte) string

// HTTPProvider is the base implementation for HTTP-based backend adapters.
// It provides connection pooling, retries for transport failures, status-code
// mapping and optional client-side pacing.
//
// Concrete adapters (gemini, anthropic) embed this struct and implement Chat.
type HTTPProvider struct {
	// config contains the backend configuration
	config ProviderConfig

	// client is the HTTP client with connection pooling.
	// It carries no overall timeout because streams are unbounded in length.
	client *http.Client

	// limiter paces outgoing requests when RequestsPerMinute is set
	limiter *rate.Limiter

	// formatError builds upstream error messages
	formatError ErrorFormatter
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
func NewHTTPProvider(config ProviderConfig) *HTTPProvider {
	p := &HTTPProvider{
		config:      config,
		client:      &http.Client{Transport: NewTransport(config)},
		formatError: defaultErrorFormatter,
	}

	if config.RequestsPerMinute > 0 {
		p.limiter = NewLimiter(config.RequestsPerMinute)
	}

	return p
}

// NewTransport builds the pooled transport shared by all adapters.
// Timeout bounds dialing, the TLS handshake and the wait for response
// headers, never the body.
func NewTransport(config ProviderConfig) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   config.Timeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.Timeout,
		ResponseHeaderTimeout: config.Timeout,
		ForceAttemptHTTP2:     true,
	}
}

// NewLimiter builds a token bucket that admits rpm requests per minute with a
// burst of one.
func NewLimiter(rpm int) *rate.Limiter {
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// SetErrorFormatter overrides how upstream error bodies become messages.
func (p *HTTPProvider) SetErrorFormatter(f ErrorFormatter) {
	if f != nil {
		p.formatError = f
	}
}

// Name returns the backend's configured name.
func (p *HTTPProvider) Name() string {
	return p.config.Name
}

// Type returns the adapter type.
func (p *HTTPProvider) Type() string {
	return p.config.Type
}

// Config returns the backend configuration.
func (p *HTTPProvider) Config() ProviderConfig {
	return p.config
}

// Wait blocks until the client-side limiter admits one more request.
// It returns immediately when pacing is disabled.
func (p *HTTPProvider) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return &ProviderError{
			Provider: p.config.Name,
			Message:  "client-side pacing wait aborted",
			Cause:    err,
		}
	}
	return nil
}

// DoRequest performs an HTTP request, retrying transport failures and 5xx
// responses with exponential backoff up to MaxRetries times.
//
// 401/403 map to AuthError, 429 maps to RateLimitError and other non-2xx
// statuses map to ProviderError. Rate limits are never retried here; the
// dispatcher owns failover.
func (p *HTTPProvider) DoRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Response, error) {
	if err := p.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			slog.Debug("retrying request",
				"provider", p.config.Name,
				"attempt", attempt,
				"max_retries", p.config.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		for key, value := range p.config.Headers {
			req.Header.Set(key, value)
		}
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		if req.Header.Get("Content-Type") == "" && body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		slog.Debug("sending request to provider",
			"provider", p.config.Name,
			"method", method,
			"url", redactQuery(url),
		)

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTimeout(err) {
				lastErr = &TimeoutError{Provider: p.config.Name, Timeout: p.config.Timeout}
			} else {
				lastErr = &ProviderError{
					Provider: p.config.Name,
					Message:  err.Error(),
					Cause:    err,
				}
			}
			slog.Warn("request failed",
				"provider", p.config.Name,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		message := p.formatError(resp.StatusCode, resp.Status, errorBody)

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &AuthError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    message,
			}

		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, &RateLimitError{
				Provider:   p.config.Name,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
				Message:    message,
			}

		case resp.StatusCode < 500:
			return nil, &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    message,
			}

		default:
			lastErr = &ProviderError{
				Provider:   p.config.Name,
				StatusCode: resp.StatusCode,
				Message:    message,
			}
			slog.Warn("request returned error status",
				"provider", p.config.Name,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
		}
	}

	return nil, lastErr
}

// DoJSONRequest marshals reqBody, performs the request and returns the open
// response for the caller to stream from.
func (p *HTTPProvider) DoJSONRequest(ctx context.Context, method, url string, reqBody interface{}, headers map[string]string) (*http.Response, error) {
	var bodyBytes []byte
	if reqBody != nil {
		var err error
		bodyBytes, err = json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
	}
	return p.DoRequest(ctx, method, url, bodyBytes, headers)
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Debug("provider closed", "provider", p.config.Name)
	return nil
}

// defaultErrorFormatter renders "{status} - {upstream message or raw body}".
func defaultErrorFormatter(statusCode int, status string, body []byte) string {
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	detail := ExtractErrorMessage(body)
	if detail == "" {
		return status
	}
	return status + " - " + detail
}

// ExtractErrorMessage pulls error.message out of a JSON error body, falling
// back to the raw text. Both OpenAI-style and Google-style bodies use that
// shape.
func ExtractErrorMessage(body []byte) string {
	var parsed struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != nil && parsed.Error.Message != "" {
			return parsed.Error.Message
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(bytes.TrimSpace(body))
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// redactQuery drops the query string so API keys passed as ?key= never reach
// the logs.
func redactQuery(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		return url[:i] + "?..."
	}
	return url
}
