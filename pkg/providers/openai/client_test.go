package openai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	testhelpers "github.com/ForLess01/API-RALF/internal/providers"
	"github.com/ForLess01/API-RALF/pkg/providers"
)

const chatPath = "/api/v1/chat/completions"

func newTestProvider(t *testing.T, mock *testhelpers.MockServer) *Provider {
	t.Helper()
	config := testhelpers.TestConfigWithURL("openrouter", TypeOpenRouter, mock.URL()+"/api/v1")
	provider, err := NewProvider(config)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })
	return provider
}

func TestProvider_ChatStreams(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(chatPath, testhelpers.MockResponse{
		StatusCode: 200,
		StreamChunks: []string{
			testhelpers.MockOpenAIStreamChunk("Hello", ""),
			testhelpers.MockOpenAIStreamChunk(", ", ""),
			testhelpers.MockOpenAIStreamChunk("world!", "stop"),
		},
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(
		providers.RoleSystem, "be brief",
		providers.RoleUser, "hi",
	))
	testhelpers.AssertNoError(t, err)

	collected, err := testhelpers.CollectStreamChunks(t, chunks)
	testhelpers.AssertNoError(t, err)

	if got := testhelpers.ConcatenateChunks(collected); got != "Hello, world!" {
		t.Errorf("expected %q, got %q", "Hello, world!", got)
	}
	if last := collected[len(collected)-1]; last.FinishReason != "stop" {
		t.Errorf("expected finish reason stop, got %q", last.FinishReason)
	}
}

func TestProvider_RequestShape(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(chatPath, testhelpers.MockResponse{
		StreamChunks: []string{testhelpers.MockOpenAIStreamChunk("ok", "stop")},
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
	testhelpers.AssertNoError(t, err)
	_, _ = testhelpers.CollectStreamChunks(t, chunks)

	req, ok := mock.LastRequest()
	if !ok {
		t.Fatal("no request recorded")
	}

	if got := req.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("expected bearer auth, got %q", got)
	}
	if got := req.Header.Get("HTTP-Referer"); got != DefaultReferer {
		t.Errorf("expected referer %q, got %q", DefaultReferer, got)
	}
	if got := req.Header.Get("X-Title"); got != DefaultTitle {
		t.Errorf("expected title %q, got %q", DefaultTitle, got)
	}

	var body struct {
		Model    string              `json:"model"`
		Stream   bool                `json:"stream"`
		Messages []providers.Message `json:"messages"`
	}
	if err := mock.LastRequestJSON(&body); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	if body.Model != DefaultOpenRouterModel {
		t.Errorf("expected model %q, got %q", DefaultOpenRouterModel, body.Model)
	}
	if !body.Stream {
		t.Error("expected stream=true")
	}
	if len(body.Messages) != 1 || body.Messages[0].Content != "hi" {
		t.Errorf("unexpected messages: %+v", body.Messages)
	}
}

func TestProvider_DefaultModel(t *testing.T) {
	provider, err := NewProvider(providers.ProviderConfig{Name: "openrouter", Type: TypeOpenRouter})
	testhelpers.AssertNoError(t, err)

	if provider.Model() != DefaultOpenRouterModel {
		t.Errorf("expected default model %q, got %q", DefaultOpenRouterModel, provider.Model())
	}
	if provider.config.BaseURL != DefaultOpenRouterBaseURL {
		t.Errorf("expected default base URL, got %q", provider.config.BaseURL)
	}
}

func TestProvider_RateLimit(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(chatPath, testhelpers.MockRateLimitError(60))

	provider := newTestProvider(t, mock)

	_, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))

	var rl *providers.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if providers.StatusCode(err) != 429 {
		t.Errorf("expected status 429, got %d", providers.StatusCode(err))
	}
	if !strings.HasPrefix(rl.Message, "OpenRouter Error: 429") {
		t.Errorf("unexpected message %q", rl.Message)
	}
	if !strings.Contains(rl.Message, "Rate limit exceeded") {
		t.Errorf("expected upstream message, got %q", rl.Message)
	}
}

func TestProvider_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		response   testhelpers.MockResponse
		wantStatus int
	}{
		{"server error", testhelpers.MockServerError(), 500},
		{"auth error", testhelpers.MockAuthError(), 401},
		{"bad request", testhelpers.MockErrorResponse(400, "invalid model"), 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testhelpers.NewMockServer()
			defer mock.Close()

			mock.SetResponse(chatPath, tt.response)
			provider := newTestProvider(t, mock)

			_, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
			testhelpers.AssertError(t, err)

			if got := providers.StatusCode(err); got != tt.wantStatus {
				t.Errorf("expected status %d, got %d (%v)", tt.wantStatus, got, err)
			}
			var rl *providers.RateLimitError
			if errors.As(err, &rl) {
				t.Error("non-429 failure must not be a rate limit")
			}
		})
	}
}

func TestProvider_InStreamRateLimit(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(chatPath, testhelpers.MockResponse{
		StreamChunks: []string{
			testhelpers.MockOpenAIStreamError(429, "Rate limit exceeded: free-models-per-day"),
		},
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
	testhelpers.AssertNoError(t, err)

	_, err = testhelpers.CollectStreamChunks(t, chunks)
	if providers.StatusCode(err) != 429 {
		t.Fatalf("expected in-stream 429 to surface as a rate limit, got %v", err)
	}
}

func TestProvider_SkipsUnparseableChunks(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(chatPath, testhelpers.MockResponse{
		StreamChunks: []string{
			testhelpers.MockOpenAIStreamChunk("a", ""),
			`{not json`,
			testhelpers.MockOpenAIStreamChunk("b", "stop"),
		},
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
	testhelpers.AssertNoError(t, err)

	collected, err := testhelpers.CollectStreamChunks(t, chunks)
	testhelpers.AssertNoError(t, err)

	if got := testhelpers.ConcatenateChunks(collected); got != "ab" {
		t.Errorf("expected %q, got %q", "ab", got)
	}
}

func TestProvider_MissingAPIKey(t *testing.T) {
	provider, err := NewProvider(providers.ProviderConfig{Name: "openrouter", Type: TypeOpenRouter})
	testhelpers.AssertNoError(t, err)

	_, err = provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Message != "OPENROUTER_API_KEY is not set" {
		t.Errorf("unexpected message %q", cfgErr.Message)
	}
}

func TestProvider_Cancellation(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	stream := make([]string, 50)
	for i := range stream {
		stream[i] = testhelpers.MockOpenAIStreamChunk("x", "")
	}
	mock.SetResponse(chatPath, testhelpers.MockResponse{
		StreamChunks: stream,
		ChunkDelay:   20 * time.Millisecond,
	})

	provider := newTestProvider(t, mock)

	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := provider.Chat(ctx, testhelpers.TestConversation(providers.RoleUser, "hi"))
	testhelpers.AssertNoError(t, err)

	<-chunks
	cancel()

	done := make(chan struct{})
	go func() {
		for range chunks {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config providers.ProviderConfig
		field  string
	}{
		{"missing name", providers.ProviderConfig{Type: TypeOpenRouter}, "name"},
		{"generic without base url", providers.ProviderConfig{Name: "local", Type: TypeGeneric, Model: "llama"}, "base_url"},
		{"generic without model", providers.ProviderConfig{Name: "local", Type: TypeGeneric, BaseURL: "http://localhost:1234/v1"}, "model"},
		{"unknown type", providers.ProviderConfig{Name: "x", Type: "bard"}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestCodeAsStatus(t *testing.T) {
	tests := []struct {
		code any
		want int
	}{
		{429, 429},
		{float64(503), 503},
		{"429", 429},
		{"rate_limit_exceeded", 0},
		{nil, 0},
		{42, 0},
	}

	for _, tt := range tests {
		if got := codeAsStatus(tt.code); got != tt.want {
			t.Errorf("codeAsStatus(%v) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
