package providers

import "time"

// Message is a single turn in a conversation.
type Message struct {
	// Role identifies the sender (system, user, assistant)
	Role string `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// StreamChunk is one incremental piece of a backend's output.
type StreamChunk struct {
	// Delta is the text fragment carried by this chunk
	Delta string `json:"delta"`

	// FinishReason is set on the final chunk when the upstream reports one
	FinishReason string `json:"finish_reason,omitempty"`

	// Error is set on the final chunk if the stream failed after it started
	Error error `json:"-"`
}

// ProviderConfig contains the settings an adapter needs.
// It is built from config.BackendConfig by the provider factory.
type ProviderConfig struct {
	// Name is the unique backend name (e.g., "openrouter", "gemini")
	Name string

	// Type is the adapter type (openrouter, openai, generic, gemini, anthropic)
	Type string

	// BaseURL is the API endpoint base URL; adapters supply their own default
	BaseURL string

	// APIKey is the authentication key
	APIKey string

	// Model is the upstream model identifier; adapters supply their own default
	Model string

	// Temperature, MaxTokens and TopP are generation parameters.
	// Zero values mean "use the adapter default".
	Temperature float64
	MaxTokens   int
	TopP        float64

	// Headers are extra HTTP headers sent on every upstream request
	Headers map[string]string

	// Timeout bounds connection setup and the wait for response headers.
	// It does not bound the length of a stream.
	Timeout time.Duration

	// MaxRetries is the number of retries for transport-level failures
	MaxRetries int

	// RequestsPerMinute enables client-side pacing when greater than zero
	RequestsPerMinute int

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration
}

// Message role constants
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ValidRole reports whether role is one of the accepted conversation roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Finish reason constants
const (
	FinishReasonStop   = "stop"
	FinishReasonLength = "length"
)
