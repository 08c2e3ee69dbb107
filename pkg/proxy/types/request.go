package types

import (
	"fmt"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// Validate checks the conversation.
func (r *ChatRequest) Validate() error {
	return validateMessages(r.Messages)
}

// ChatCompletionRequest is the OpenAI-compatible body of
// POST /v1/chat/completions. The backend and its sampling parameters come
// from configuration; Model is only echoed back in responses.
type ChatCompletionRequest struct {
	// Model is optional and informational.
	Model string `json:"model,omitempty"`

	// Messages is the conversation history.
	Messages []Message `json:"messages"`

	// Stream selects SSE streaming instead of a single collected response.
	Stream bool `json:"stream,omitempty"`

	// User identifies the end user. Logged, never forwarded.
	User string `json:"user,omitempty"`
}

// Validate checks the conversation.
func (r *ChatCompletionRequest) Validate() error {
	return validateMessages(r.Messages)
}

// Message is a single conversation turn.
type Message struct {
	// Role is "system", "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ToProviderMessages converts the wire messages to the backend form.
func ToProviderMessages(msgs []Message) []providers.Message {
	out := make([]providers.Message, len(msgs))
	for i, m := range msgs {
		out[i] = providers.Message{Role: m.Role, Content: m.Content}
	}
	return out
}

func validateMessages(msgs []Message) error {
	if len(msgs) == 0 {
		return &ValidationError{
			Field:   "messages",
			Code:    CodeMissingField,
			Message: "messages must contain at least one message",
		}
	}

	for i, msg := range msgs {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Code:    CodeMissingField,
				Message: "message role is required",
			}
		}
		if !providers.ValidRole(msg.Role) {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Code:    CodeInvalidValue,
				Message: fmt.Sprintf("invalid role %q, expected one of system, user, assistant", msg.Role),
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
