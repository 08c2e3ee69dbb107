package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ProviderError represents a general upstream failure.
// It includes the backend name, HTTP status code, and underlying error.
type ProviderError struct {
	// Provider is the name of the backend that returned the error
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	// Provider is the name of the backend that rejected authentication
	Provider string

	// StatusCode is 401 or 403
	StatusCode int

	// Message is the error message from the upstream
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("provider %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents a rate limit exceeded error (HTTP 429).
// It includes the retry-after duration if provided by the upstream.
type RateLimitError struct {
	// Provider is the name of the backend that rate limited the request
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided)
	RetryAfter time.Duration

	// Message is the error message from the upstream
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("provider %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("provider %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that did not receive response headers
// within the configured timeout.
type TimeoutError struct {
	// Provider is the name of the backend where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Is makes a timeout match context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == context.DeadlineExceeded
}

// ParseError represents a response parsing failure.
type ParseError struct {
	// Provider is the name of the backend that returned the malformed response
	Provider string

	// RawResponse is the raw response body that failed to parse
	RawResponse string

	// Cause is the underlying parse error
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("provider %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError represents a request that was rejected before it was sent
// upstream.
type ValidationError struct {
	// Field is the name of the invalid field
	Field string

	// Message describes what is invalid about the field
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %q: %s", e.Field, e.Message)
}

// StreamError represents an error that occurred after the stream started.
// This is sent through the stream channel as the final chunk.
type StreamError struct {
	// Provider is the name of the backend where the error occurred
	Provider string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents an adapter configuration error, such as a missing
// API key.
type ConfigError struct {
	// Provider is the name of the backend with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// StatusCode extracts the upstream HTTP status carried by err, or 0 when the
// failure has no status (network errors, parse errors, misconfiguration).
func StatusCode(err error) int {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return http.StatusTooManyRequests
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		if ae.StatusCode != 0 {
			return ae.StatusCode
		}
		return http.StatusUnauthorized
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}

// ErrorMessage extracts the upstream message carried by err without the
// "provider ... error" framing. Errors outside this package are returned
// verbatim.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.Message
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Message
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Message
	}
	var se *StreamError
	if errors.As(err, &se) {
		if se.Cause != nil {
			return se.Message + ": " + se.Cause.Error()
		}
		return se.Message
	}
	return err.Error()
}
