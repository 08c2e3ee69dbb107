package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	testhelpers "github.com/ForLess01/API-RALF/internal/providers"
	"github.com/ForLess01/API-RALF/pkg/providers"
)

const streamPath = "/models/gemini-2.0-flash-exp:streamGenerateContent"

func newTestProvider(t *testing.T, mock *testhelpers.MockServer) *Provider {
	t.Helper()
	config := testhelpers.TestConfigWithURL("gemini", "gemini", mock.URL())
	provider, err := NewProvider(config)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Close() })
	return provider
}

func TestGeminiProvider_Chat(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(streamPath, testhelpers.MockResponse{
		StreamChunks: []string{
			testhelpers.MockGeminiStreamChunk("Hola", ""),
			testhelpers.MockGeminiStreamChunk(" mundo", "STOP"),
		},
		OmitDone: true,
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hola"))
	testhelpers.AssertNoError(t, err)

	collected, err := testhelpers.CollectStreamChunks(t, chunks)
	testhelpers.AssertNoError(t, err)

	if got := testhelpers.ConcatenateChunks(collected); got != "Hola mundo" {
		t.Errorf("expected %q, got %q", "Hola mundo", got)
	}
	if last := collected[len(collected)-1]; last.FinishReason != providers.FinishReasonStop {
		t.Errorf("expected finish reason stop, got %q", last.FinishReason)
	}

	req, _ := mock.LastRequest()
	if req.RawQuery != "alt=sse" {
		t.Errorf("expected alt=sse, got %q", req.RawQuery)
	}
	if req.Header.Get("x-goog-api-key") != "test-key" {
		t.Errorf("expected api key header, got %q", req.Header.Get("x-goog-api-key"))
	}
}

func TestGeminiProvider_RequestBody(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(streamPath, testhelpers.MockResponse{
		StreamChunks: []string{testhelpers.MockGeminiStreamChunk("ok", "STOP")},
		OmitDone:     true,
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(
		providers.RoleSystem, "rules",
		providers.RoleUser, "q1",
		providers.RoleAssistant, "a1",
		providers.RoleUser, "q2",
	))
	testhelpers.AssertNoError(t, err)
	_, _ = testhelpers.CollectStreamChunks(t, chunks)

	var body generateRequest
	if err := mock.LastRequestJSON(&body); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}

	wantRoles := []string{"user", "user", "model", "user"}
	if len(body.Contents) != len(wantRoles) {
		t.Fatalf("expected %d contents, got %d", len(wantRoles), len(body.Contents))
	}
	for i, want := range wantRoles {
		if body.Contents[i].Role != want {
			t.Errorf("contents[%d].role = %q, want %q", i, body.Contents[i].Role, want)
		}
	}

	gc := body.GenerationConfig
	if gc == nil || gc.Temperature != DefaultTemperature || gc.MaxOutputTokens != DefaultMaxOutputTokens || gc.TopP != DefaultTopP {
		t.Errorf("unexpected generation config: %+v", gc)
	}
}

func TestGeminiProvider_RateLimit(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(streamPath, testhelpers.MockErrorResponse(429, "Resource has been exhausted (e.g. check quota)."))

	provider := newTestProvider(t, mock)

	_, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))

	var rl *providers.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if !strings.HasPrefix(rl.Message, "Gemini Error: 429") || !strings.Contains(rl.Message, "Resource has been exhausted") {
		t.Errorf("unexpected message %q", rl.Message)
	}
}

func TestGeminiProvider_ServerError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(streamPath, testhelpers.MockServerError())

	provider := newTestProvider(t, mock)

	_, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
	if providers.StatusCode(err) != 500 {
		t.Errorf("expected status 500, got %d (%v)", providers.StatusCode(err), err)
	}
}

func TestGeminiProvider_InStreamError(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse(streamPath, testhelpers.MockResponse{
		StreamChunks: []string{
			`{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`,
		},
		OmitDone: true,
	})

	provider := newTestProvider(t, mock)

	chunks, err := provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))
	testhelpers.AssertNoError(t, err)

	_, err = testhelpers.CollectStreamChunks(t, chunks)
	if providers.StatusCode(err) != 429 {
		t.Errorf("expected in-stream rate limit, got %v", err)
	}
}

func TestGeminiProvider_EmptyConversation(t *testing.T) {
	provider, err := NewProvider(testhelpers.TestConfig("gemini", "gemini"))
	testhelpers.AssertNoError(t, err)

	_, err = provider.Chat(context.Background(), nil)

	var valErr *providers.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Message != "No messages provided" {
		t.Errorf("unexpected message %q", valErr.Message)
	}
}

func TestGeminiProvider_MissingAPIKey(t *testing.T) {
	config := testhelpers.TestConfig("gemini", "gemini")
	config.APIKey = ""
	provider, err := NewProvider(config)
	testhelpers.AssertNoError(t, err)

	_, err = provider.Chat(context.Background(), testhelpers.TestConversation(providers.RoleUser, "hi"))

	var cfgErr *providers.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Message != "GEMINI_API_KEY is not set" {
		t.Fatalf("expected missing key ConfigError, got %T: %v", err, err)
	}
}

func TestDecoder(t *testing.T) {
	decode := decoder("gemini")

	tests := []struct {
		name      string
		data      string
		wantDelta string
		wantNil   bool
		wantErr   bool
	}{
		{"text", testhelpers.MockGeminiStreamChunk("hi", ""), "hi", false, false},
		{"empty text skipped", testhelpers.MockGeminiStreamChunk("", ""), "", true, false},
		{"no candidates skipped", `{"usageMetadata":{}}`, "", true, false},
		{"blocked prompt", `{"promptFeedback":{"blockReason":"SAFETY"}}`, "", false, true},
		{"malformed", `{"candidates":`, "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := decode([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantNil && chunk != nil {
				t.Errorf("expected skip, got %+v", chunk)
			}
			if !tt.wantNil && !tt.wantErr && chunk.Delta != tt.wantDelta {
				t.Errorf("delta = %q, want %q", chunk.Delta, tt.wantDelta)
			}
		})
	}
}
