package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/ForLess01/API-RALF/pkg/providers"
)

const (
	// TypeOpenRouter selects OpenRouter defaults and attribution headers.
	TypeOpenRouter = "openrouter"

	// TypeOpenAI selects api.openai.com defaults.
	TypeOpenAI = "openai"

	// TypeGeneric is any other OpenAI-compatible server; base_url is required.
	TypeGeneric = "generic"
)

const (
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "google/gemini-2.0-flash-exp:free"
	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultOpenAIModel       = "gpt-4o-mini"

	// DefaultReferer and DefaultTitle identify the gateway to OpenRouter.
	DefaultReferer = "https://api-ralf.local"
	DefaultTitle   = "API_RALF"
)

// Provider streams chat completions from OpenAI-compatible APIs.
type Provider struct {
	config  providers.ProviderConfig
	client  *goopenai.Client
	http    *http.Client
	limiter *rate.Limiter
	label   string
}

// NewProvider creates an OpenAI-compatible adapter.
//
// A missing API key is not an error here; it is reported by Chat so that a
// misconfigured backend fails individual requests instead of the process.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.Type == "" {
		config.Type = TypeOpenRouter
	}

	label := "OpenAI"
	switch config.Type {
	case TypeOpenRouter:
		label = "OpenRouter"
		if config.BaseURL == "" {
			config.BaseURL = DefaultOpenRouterBaseURL
		}
		if config.Model == "" {
			config.Model = DefaultOpenRouterModel
		}
	case TypeOpenAI:
		if config.BaseURL == "" {
			config.BaseURL = DefaultOpenAIBaseURL
		}
		if config.Model == "" {
			config.Model = DefaultOpenAIModel
		}
	case TypeGeneric:
		label = config.Name
		if config.BaseURL == "" {
			return nil, &providers.ConfigError{
				Provider: config.Name,
				Field:    "base_url",
				Message:  "base URL is required for generic OpenAI-compatible backends",
			}
		}
		if config.Model == "" {
			return nil, &providers.ConfigError{
				Provider: config.Name,
				Field:    "model",
				Message:  "model is required for generic OpenAI-compatible backends",
			}
		}
	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported OpenAI-compatible type %q", config.Type),
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	var transport http.RoundTripper = providers.NewTransport(config)
	transport = &headerTransport{
		base:    transport,
		headers: requestHeaders(config),
	}
	httpClient := &http.Client{Transport: transport}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	clientConfig.HTTPClient = httpClient

	p := &Provider{
		config: config,
		client: goopenai.NewClientWithConfig(clientConfig),
		http:   httpClient,
		label:  label,
	}
	if config.RequestsPerMinute > 0 {
		p.limiter = providers.NewLimiter(config.RequestsPerMinute)
	}

	slog.Info("OpenAI-compatible provider initialized",
		"provider", config.Name,
		"type", config.Type,
		"base_url", config.BaseURL,
		"model", config.Model,
	)

	return p, nil
}

// Name returns the backend name.
func (p *Provider) Name() string { return p.config.Name }

// Type returns the adapter type.
func (p *Provider) Type() string { return p.config.Type }

// Model returns the upstream model identifier.
func (p *Provider) Model() string { return p.config.Model }

// Chat sends the conversation with stream=true and relays content deltas.
func (p *Provider) Chat(ctx context.Context, messages []providers.Message) (<-chan *providers.StreamChunk, error) {
	if p.config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: p.config.Name,
			Field:    "api_key",
			Message:  p.missingKeyMessage(),
		}
	}
	if len(messages) == 0 {
		return nil, &providers.ValidationError{Field: "messages", Message: "No messages provided"}
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, &providers.ProviderError{
				Provider: p.config.Name,
				Message:  "client-side pacing wait aborted",
				Cause:    err,
			}
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    toChatMessages(messages),
		Stream:      true,
		MaxTokens:   p.config.MaxTokens,
		Temperature: float32(p.config.Temperature),
		TopP:        float32(p.config.TopP),
	}

	slog.Debug("sending chat request",
		"provider", p.config.Name,
		"model", p.config.Model,
		"messages", len(messages),
	)

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, p.mapError(err)
	}

	return providers.Pump(ctx, &streamReader{provider: p, stream: stream}), nil
}

// Close releases idle connections.
func (p *Provider) Close() error {
	p.http.CloseIdleConnections()
	return nil
}

func (p *Provider) missingKeyMessage() string {
	switch p.config.Type {
	case TypeOpenRouter:
		return "OPENROUTER_API_KEY is not set"
	case TypeOpenAI:
		return "OPENAI_API_KEY is not set"
	}
	return "API key is not set"
}

// mapError converts go-openai errors into provider errors carrying the
// upstream status, formatted as "<Label> Error: <status> - <message>".
func (p *Provider) mapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.HTTPStatusCode
		if status == 0 {
			status = codeAsStatus(apiErr.Code)
		}
		return p.statusError(status, apiErr.HTTPStatus, apiErr.Message, err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		detail := providers.ExtractErrorMessage(reqErr.Body)
		if detail == "" && reqErr.Err != nil {
			detail = reqErr.Err.Error()
		}
		return p.statusError(reqErr.HTTPStatusCode, reqErr.HTTPStatus, detail, err)
	}

	return &providers.ProviderError{
		Provider: p.config.Name,
		Message:  err.Error(),
		Cause:    err,
	}
}

func (p *Provider) statusError(status int, statusText, detail string, cause error) error {
	if statusText == "" && status != 0 {
		statusText = fmt.Sprintf("%d %s", status, http.StatusText(status))
	}

	message := p.label + " Error"
	if statusText != "" {
		message += ": " + statusText
	}
	if detail != "" {
		message += " - " + detail
	}

	switch status {
	case http.StatusTooManyRequests:
		return &providers.RateLimitError{Provider: p.config.Name, Message: message}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &providers.AuthError{Provider: p.config.Name, StatusCode: status, Message: message}
	}
	return &providers.ProviderError{
		Provider:   p.config.Name,
		StatusCode: status,
		Message:    message,
		Cause:      cause,
	}
}

// codeAsStatus reads an HTTP status out of the error "code" field, which
// OpenRouter sets on errors sent inside an already-open stream.
func codeAsStatus(code any) int {
	var n int
	switch v := code.(type) {
	case int:
		n = v
	case float64:
		n = int(v)
	case string:
		n, _ = strconv.Atoi(v)
	case json.Number:
		i, _ := v.Int64()
		n = int(i)
	}
	if n >= 100 && n <= 599 {
		return n
	}
	return 0
}

func toChatMessages(messages []providers.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// streamReader adapts a go-openai stream to providers.StreamReader.
type streamReader struct {
	provider *Provider
	stream   *goopenai.ChatCompletionStream
}

func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isDecodeError(err) {
				slog.Warn("skipping unparseable stream chunk",
					"provider", s.provider.config.Name,
					"error", err,
				)
				continue
			}
			return nil, s.provider.mapError(err)
		}

		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		if choice.Delta.Content == "" && choice.FinishReason == "" {
			continue
		}

		return &providers.StreamChunk{
			Delta:        choice.Delta.Content,
			FinishReason: string(choice.FinishReason),
		}, nil
	}
}

func (s *streamReader) Close() error {
	return s.stream.Close()
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
