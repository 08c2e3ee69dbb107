package anthropic

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// messagesRequest is the Messages API request body.
type messagesRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// streamEvent is one Messages API stream event. Only the fields needed to
// relay text and detect errors are decoded.
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type       string `json:"type"`
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// buildRequest lifts system messages into the system field and merges
// consecutive turns from the same speaker, since the Messages API requires
// strict user/assistant alternation starting with user.
func buildRequest(config providers.ProviderConfig, conversation []providers.Message) (*messagesRequest, error) {
	req := &messagesRequest{
		Model:       config.Model,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		TopP:        config.TopP,
		Stream:      true,
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = DefaultMaxTokens
	}

	var system []string
	for _, m := range conversation {
		if m.Role == providers.RoleSystem {
			system = append(system, m.Content)
			continue
		}

		role := providers.RoleUser
		if m.Role == providers.RoleAssistant {
			role = providers.RoleAssistant
		}

		if n := len(req.Messages); n > 0 && req.Messages[n-1].Role == role {
			req.Messages[n-1].Content += "\n\n" + m.Content
			continue
		}
		req.Messages = append(req.Messages, message{Role: role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")

	if len(req.Messages) == 0 {
		return nil, &providers.ValidationError{
			Field:   "messages",
			Message: "at least one user or assistant message is required",
		}
	}
	if req.Messages[0].Role != providers.RoleUser {
		req.Messages = append([]message{{Role: providers.RoleUser, Content: "(continue)"}}, req.Messages...)
	}

	return req, nil
}

// decoder returns the SSE chunk decoder for one stream.
func decoder(name string) providers.ChunkDecoder {
	return func(data []byte) (*providers.StreamChunk, error) {
		var event streamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, &providers.ParseError{Provider: name, RawResponse: string(data), Cause: err}
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta == nil || event.Delta.Text == "" {
				return nil, nil
			}
			return &providers.StreamChunk{Delta: event.Delta.Text}, nil

		case "message_delta":
			if event.Delta == nil || event.Delta.StopReason == "" {
				return nil, nil
			}
			return &providers.StreamChunk{FinishReason: normalizeStopReason(event.Delta.StopReason)}, nil

		case "error":
			return nil, streamError(name, event)
		}

		// message_start, content_block_start/stop, message_stop, ping
		return nil, nil
	}
}

// streamError maps an in-stream error event to a typed error.
func streamError(name string, event streamEvent) error {
	errType, msg := "error", "unknown stream error"
	if event.Error != nil {
		errType, msg = event.Error.Type, event.Error.Message
	}
	message := "Anthropic Error: " + errType + " - " + msg

	switch errType {
	case "rate_limit_error":
		return &providers.RateLimitError{Provider: name, Message: message}
	case "overloaded_error":
		return &providers.ProviderError{Provider: name, StatusCode: 529, Message: message}
	case "authentication_error":
		return &providers.AuthError{Provider: name, StatusCode: http.StatusUnauthorized, Message: message}
	}
	return &providers.ProviderError{Provider: name, Message: message}
}

func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
