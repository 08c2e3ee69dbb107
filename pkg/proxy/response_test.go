package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

func TestFormatCompletion(t *testing.T) {
	resp := FormatCompletion("chatcmpl-1", "ralf", "gemini", "Hello there", "")

	if resp.Object != "chat.completion" {
		t.Errorf("object = %q", resp.Object)
	}
	if resp.ID != "chatcmpl-1" || resp.Model != "ralf" || resp.Backend != "gemini" {
		t.Errorf("unexpected header fields: %+v", resp)
	}
	if resp.Created == 0 {
		t.Error("created not set")
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("got %d choices", len(resp.Choices))
	}
	choice := resp.Choices[0]
	if choice.Message.Role != providers.RoleAssistant || choice.Message.Content != "Hello there" {
		t.Errorf("message = %+v", choice.Message)
	}
	if choice.FinishReason != providers.FinishReasonStop {
		t.Errorf("finish_reason = %q, want default stop", choice.FinishReason)
	}
}

func TestFormatStreamChunk(t *testing.T) {
	tests := []struct {
		name       string
		chunk      *providers.StreamChunk
		first      bool
		wantRole   string
		wantFinish bool
	}{
		{"first chunk carries role", &providers.StreamChunk{Delta: "Hel"}, true, providers.RoleAssistant, false},
		{"middle chunk", &providers.StreamChunk{Delta: "lo"}, false, "", false},
		{"final chunk", &providers.StreamChunk{FinishReason: "stop"}, false, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := FormatStreamChunk(tt.chunk, "ralf", "chatcmpl-1", tt.first)

			if out.Object != "chat.completion.chunk" {
				t.Errorf("object = %q", out.Object)
			}
			delta := out.Choices[0].Delta
			if delta.Role != tt.wantRole {
				t.Errorf("role = %q, want %q", delta.Role, tt.wantRole)
			}
			if delta.Content != tt.chunk.Delta {
				t.Errorf("content = %q", delta.Content)
			}
			if (out.Choices[0].FinishReason != nil) != tt.wantFinish {
				t.Errorf("finish_reason = %v", out.Choices[0].FinishReason)
			}
		})
	}
}

func TestWriteJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteJSONResponse(w, http.StatusCreated, map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("WriteJSONResponse() error = %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Errorf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		resp       *types.ErrorResponse
		wantStatus int
	}{
		{"invalid request", types.NewInvalidRequestError("bad", "messages", types.CodeMissingField), http.StatusBadRequest},
		{"bad gateway", types.NewBadGatewayError("upstream", "openrouter"), http.StatusBadGateway},
		{"not found", types.NewNotFoundError("gone", types.CodeBackendNotFound), http.StatusNotFound},
		{"unavailable", types.NewServiceUnavailableError("off", types.CodeJournalDisabled), http.StatusServiceUnavailable},
		{"method", types.NewMethodNotAllowedError(http.MethodPut), http.StatusMethodNotAllowed},
		{"server", types.NewServerError("oops"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteErrorResponse(w, tt.resp); err != nil {
				t.Fatalf("WriteErrorResponse() error = %v", err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var got types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Error.Type != tt.resp.Error.Type || got.Error.Message != tt.resp.Error.Message {
				t.Errorf("got %+v, want %+v", got.Error, tt.resp.Error)
			}
		})
	}
}

func TestSSEWriters(t *testing.T) {
	w := httptest.NewRecorder()
	SetSSEHeaders(w)

	if err := WriteSSEChunk(w, FormatStreamChunk(&providers.StreamChunk{Delta: "hi"}, "m", "id-1", true)); err != nil {
		t.Fatal(err)
	}
	if err := WriteSSEError(w, types.NewBadGatewayError("boom", "gemini")); err != nil {
		t.Fatal(err)
	}
	if err := WriteSSEDone(w); err != nil {
		t.Fatal(err)
	}

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !w.Flushed {
		t.Error("writer not flushed")
	}

	frames := strings.Split(strings.TrimSuffix(w.Body.String(), "\n\n"), "\n\n")
	if len(frames) != 3 {
		t.Fatalf("got %d frames: %q", len(frames), w.Body.String())
	}
	if !strings.HasPrefix(frames[0], "data: {") || !strings.Contains(frames[0], `"content":"hi"`) {
		t.Errorf("chunk frame = %q", frames[0])
	}
	if !strings.HasPrefix(frames[1], "event: error\ndata: {") || !strings.Contains(frames[1], `"backend":"gemini"`) {
		t.Errorf("error frame = %q", frames[1])
	}
	if frames[2] != "data: [DONE]" {
		t.Errorf("done frame = %q", frames[2])
	}
}
