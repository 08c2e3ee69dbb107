package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

const (
	DefaultBaseURL         = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel           = "gemini-2.0-flash-exp"
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 4096
	DefaultTopP            = 0.95

	roleModel = "model"
	roleUser  = "user"
)

// Provider streams completions from the Gemini generateContent API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a Gemini adapter. Generation parameters left at zero
// take the Gemini defaults (temperature 0.7, 4096 output tokens, topP 0.95).
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "gemini",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.Type == "" {
		config.Type = "gemini"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Temperature == 0 {
		config.Temperature = DefaultTemperature
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxOutputTokens
	}
	if config.TopP == 0 {
		config.TopP = DefaultTopP
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	httpProvider := providers.NewHTTPProvider(config)
	httpProvider.SetErrorFormatter(formatError)

	slog.Info("Gemini provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return &Provider{HTTPProvider: httpProvider}, nil
}

// Chat streams a completion for the conversation.
func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (<-chan *providers.StreamChunk, error) {
	config := p.Config()
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "GEMINI_API_KEY is not set",
		}
	}

	req, err := buildRequest(config, messages)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse",
		strings.TrimSuffix(config.BaseURL, "/"), config.Model)
	headers := map[string]string{
		"x-goog-api-key": config.APIKey,
		"Accept":         "text/event-stream",
	}

	resp, err := p.DoJSONRequest(ctx, http.MethodPost, url, req, headers)
	if err != nil {
		return nil, err
	}

	stream := providers.NewSSEStream(config.Name, resp.Body, decoder(config.Name))
	return providers.Pump(ctx, stream), nil
}

// buildRequest maps the conversation onto Gemini contents. "assistant"
// becomes "model" and every other role becomes "user". The final message is
// always sent as the user turn being answered.
func buildRequest(config providers.ProviderConfig, messages []providers.Message) (*generateRequest, error) {
	if len(messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "No messages provided"}
	}

	contents := make([]content, len(messages))
	for i, m := range messages {
		role := roleUser
		if m.Role == providers.RoleAssistant {
			role = roleModel
		}
		contents[i] = content{Role: role, Parts: []part{{Text: m.Content}}}
	}
	contents[len(contents)-1].Role = roleUser

	return &generateRequest{
		Contents: contents,
		GenerationConfig: &generationConfig{
			Temperature:     config.Temperature,
			MaxOutputTokens: config.MaxTokens,
			TopP:            config.TopP,
		},
	}, nil
}

func decoder(name string) providers.ChunkDecoder {
	return func(data []byte) (*providers.StreamChunk, error) {
		var resp streamResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, &providers.ParseError{Provider: name, RawResponse: string(data), Cause: err}
		}

		if resp.Error != nil {
			return nil, apiErrorToError(name, resp.Error)
		}
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" && len(resp.Candidates) == 0 {
			return nil, &providers.ProviderError{
				Provider: name,
				Message:  "Gemini Error: prompt blocked - " + resp.PromptFeedback.BlockReason,
			}
		}
		if len(resp.Candidates) == 0 {
			return nil, nil
		}

		candidate := resp.Candidates[0]
		var text strings.Builder
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}

		finish := normalizeFinishReason(candidate.FinishReason)
		if text.Len() == 0 && finish == "" {
			return nil, nil
		}

		return &providers.StreamChunk{Delta: text.String(), FinishReason: finish}, nil
	}
}

func apiErrorToError(name string, e *apiError) error {
	message := fmt.Sprintf("Gemini Error: %d %s - %s", e.Code, e.Status, e.Message)
	if e.Code == http.StatusTooManyRequests || e.Status == "RESOURCE_EXHAUSTED" {
		return &providers.RateLimitError{Provider: name, Message: message}
	}
	return &providers.ProviderError{Provider: name, StatusCode: e.Code, Message: message}
}

// formatError renders non-2xx responses as "Gemini Error: <status> - <message>".
func formatError(statusCode int, status string, body []byte) string {
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	return "Gemini Error: " + status + " - " + providers.ExtractErrorMessage(body)
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "", "FINISH_REASON_UNSPECIFIED":
		return ""
	case "STOP":
		return providers.FinishReasonStop
	case "MAX_TOKENS":
		return providers.FinishReasonLength
	default:
		return strings.ToLower(reason)
	}
}
