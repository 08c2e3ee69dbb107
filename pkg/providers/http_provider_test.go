package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPProvider_RetryOn5xx(t *testing.T) {
	attemptCount := int32(0)

	// Fails once with 500, then succeeds
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attemptCount, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error": {"message": "internal server error"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`data: ok`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{
		Name:       "test-provider",
		Type:       "gemini",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
	})

	resp, err := provider.DoRequest(context.Background(), "POST", server.URL+"/test", []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("expected request to succeed after retry, got error: %v", err)
	}
	defer resp.Body.Close()

	if got := atomic.LoadInt32(&attemptCount); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestHTTPProvider_NoRetryByDefault(t *testing.T) {
	attemptCount := int32(0)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attemptCount, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{Name: "test-provider", Timeout: 5 * time.Second})

	_, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)
	if StatusCode(err) != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d (%v)", StatusCode(err), err)
	}
	if got := atomic.LoadInt32(&attemptCount); got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestHTTPProvider_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		check      func(error) bool
	}{
		{
			name:       "400 bad request",
			statusCode: http.StatusBadRequest,
			check:      func(err error) bool { var e *ProviderError; return errors.As(err, &e) },
		},
		{
			name:       "401 unauthorized",
			statusCode: http.StatusUnauthorized,
			check:      func(err error) bool { var e *AuthError; return errors.As(err, &e) },
		},
		{
			name:       "403 forbidden",
			statusCode: http.StatusForbidden,
			check:      func(err error) bool { var e *AuthError; return errors.As(err, &e) },
		},
		{
			name:       "429 rate limit",
			statusCode: http.StatusTooManyRequests,
			check:      func(err error) bool { var e *RateLimitError; return errors.As(err, &e) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attemptCount := int32(0)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attemptCount, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(`{"error": {"message": "client error"}}`))
			}))
			defer server.Close()

			provider := NewHTTPProvider(ProviderConfig{
				Name:       "test-provider",
				Timeout:    5 * time.Second,
				MaxRetries: 3,
			})

			resp, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)
			if resp != nil {
				resp.Body.Close()
			}
			if err == nil {
				t.Fatalf("expected error for %d status, got nil", tt.statusCode)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error type %T: %v", err, err)
			}
			if StatusCode(err) != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, StatusCode(err))
			}
			if got := atomic.LoadInt32(&attemptCount); got != 1 {
				t.Errorf("expected 1 attempt, got %d", got)
			}
		})
	}
}

func TestHTTPProvider_RateLimitRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded: free-models-per-min"}}`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{Name: "openrouter", Timeout: 5 * time.Second})

	_, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rl.RetryAfter != 30*time.Second {
		t.Errorf("expected RetryAfter 30s, got %s", rl.RetryAfter)
	}
	if !strings.Contains(rl.Message, "429") || !strings.Contains(rl.Message, "free-models-per-min") {
		t.Errorf("expected status and upstream message, got %q", rl.Message)
	}
}

func TestHTTPProvider_ErrorFormatter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{Name: "gemini", Timeout: 5 * time.Second})
	provider.SetErrorFormatter(func(statusCode int, status string, body []byte) string {
		return "Gemini Error: " + status + " - " + string(body)
	})

	_, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)

	want := "Gemini Error: 400 Bad Request - not json"
	if got := ErrorMessage(err); got != want {
		t.Errorf("expected message %q, got %q", want, got)
	}
}

func TestHTTPProvider_Headers(t *testing.T) {
	var gotReferer, gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("HTTP-Referer")
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{
		Name:    "test-provider",
		Timeout: 5 * time.Second,
		Headers: map[string]string{"HTTP-Referer": "https://api-ralf.local"},
	})

	resp, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`),
		map[string]string{"Authorization": "Bearer sk-test"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotReferer != "https://api-ralf.local" {
		t.Errorf("expected configured header, got %q", gotReferer)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("expected per-request header, got %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected default content type, got %q", gotContentType)
	}
}

func TestHTTPProvider_ResponseHeaderTimeout(t *testing.T) {
	slowServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer slowServer.Close()

	provider := NewHTTPProvider(ProviderConfig{
		Name:    "test-provider",
		Timeout: 100 * time.Millisecond,
	})

	_, err := provider.DoRequest(context.Background(), "POST", slowServer.URL, []byte(`{}`), nil)

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestHTTPProvider_TimeoutDoesNotBoundStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		for i := 0; i < 3; i++ {
			time.Sleep(100 * time.Millisecond)
			_, _ = w.Write([]byte("data: x\n\n"))
			w.(http.Flusher).Flush()
		}
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{
		Name:    "test-provider",
		Timeout: 150 * time.Millisecond,
	})

	resp, err := provider.DoRequest(context.Background(), "POST", server.URL, []byte(`{}`), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("stream was cut short: %v", err)
	}
	if strings.Count(string(body), "data: x") != 3 {
		t.Errorf("expected 3 events, got %q", body)
	}
}

func TestHTTPProvider_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	provider := NewHTTPProvider(ProviderConfig{Name: "test-provider", Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := provider.DoRequest(ctx, "POST", server.URL, []byte(`{}`), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %T: %v", err, err)
	}
}

func TestHTTPProvider_Pacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	// 600 rpm admits one request every 100ms after the initial burst of one.
	provider := NewHTTPProvider(ProviderConfig{
		Name:              "test-provider",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 600,
	})

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := provider.DoRequest(context.Background(), "GET", server.URL, nil, nil)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}

	if elapsed := time.Since(start); elapsed < 180*time.Millisecond {
		t.Errorf("expected pacing to delay requests, took %s", elapsed)
	}
}

func TestHTTPProvider_PacingHonoursContext(t *testing.T) {
	provider := NewHTTPProvider(ProviderConfig{
		Name:              "test-provider",
		Timeout:           5 * time.Second,
		RequestsPerMinute: 1,
	})

	// Consume the single burst token.
	if err := provider.Wait(context.Background()); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := provider.Wait(ctx); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"error": {"message": "quota exceeded"}}`, "quota exceeded"},
		{`{"message": "top level"}`, "top level"},
		{`  plain text  `, "plain text"},
		{``, ""},
	}

	for _, tt := range tests {
		if got := ExtractErrorMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("ExtractErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	if got := parseRetryAfter(""); got != 0 {
		t.Errorf("expected 0 for empty header, got %s", got)
	}
	if got := parseRetryAfter("5"); got != 5*time.Second {
		t.Errorf("expected 5s, got %s", got)
	}
	if got := parseRetryAfter("soon"); got != 0 {
		t.Errorf("expected 0 for garbage, got %s", got)
	}
}
