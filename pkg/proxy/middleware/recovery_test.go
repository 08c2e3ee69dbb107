package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

func TestRecoveryMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBody   string
		wantJSON   bool
	}{
		{
			name: "passes through",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("API-RALF is running"))
			},
			wantStatus: http.StatusOK,
			wantBody:   "API-RALF is running",
		},
		{
			name:       "string panic",
			handler:    func(w http.ResponseWriter, r *http.Request) { panic("relay exploded") },
			wantStatus: http.StatusInternalServerError,
			wantJSON:   true,
		},
		{
			name:       "error panic",
			handler:    func(w http.ResponseWriter, r *http.Request) { panic(errors.New("nil map write")) },
			wantStatus: http.StatusInternalServerError,
			wantJSON:   true,
		},
		{
			name: "panic mid-stream keeps the started response",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				_, _ = w.Write([]byte("Hello"))
				w.(http.Flusher).Flush()
				panic("upstream reader crashed")
			},
			wantStatus: http.StatusOK,
			wantBody:   "Hello",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RecoveryMiddleware(tt.handler).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/chat", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !tt.wantJSON {
				if w.Body.String() != tt.wantBody {
					t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
				}
				return
			}

			var resp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body is not an error response: %v (%s)", err, w.Body.String())
			}
			if resp.Error.Message != panicMessage {
				t.Errorf("message = %q", resp.Error.Message)
			}
			for _, leak := range []string{"relay exploded", "nil map write"} {
				if strings.Contains(w.Body.String(), leak) {
					t.Errorf("panic detail leaked to caller: %s", w.Body.String())
				}
			}
		})
	}
}

func TestRecoveryMiddleware_ErrAbortHandler(t *testing.T) {
	wrapped := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if got := recover(); got != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", got)
		}
	}()

	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	t.Error("ServeHTTP returned normally")
}

func BenchmarkRecoveryMiddleware(b *testing.B) {
	wrapped := RecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapped.ServeHTTP(httptest.NewRecorder(), req)
	}
}
