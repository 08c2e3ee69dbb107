package anthropic

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

// Provider is the Anthropic Messages API adapter.
type Provider struct {
	*providers.HTTPProvider
}

const (
	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultMaxTokens = 4096
)

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.Type == "" {
		config.Type = "anthropic"
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	httpProvider := providers.NewHTTPProvider(config)
	httpProvider.SetErrorFormatter(func(statusCode int, status string, body []byte) string {
		return "Anthropic Error: " + status + " - " + providers.ExtractErrorMessage(body)
	})

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return &Provider{HTTPProvider: httpProvider}, nil
}

// Chat streams a Messages API completion.
func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (<-chan *providers.StreamChunk, error) {
	config := p.Config()
	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "ANTHROPIC_API_KEY is not set",
		}
	}

	req, err := buildRequest(config, messages)
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(config.BaseURL, "/") + "/v1/messages"
	headers := map[string]string{
		"x-api-key":         config.APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Accept":            "text/event-stream",
	}

	resp, err := p.DoJSONRequest(ctx, "POST", url, req, headers)
	if err != nil {
		return nil, err
	}

	stream := providers.NewSSEStream(config.Name, resp.Body, decoder(config.Name))
	return providers.Pump(ctx, stream), nil
}
