package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

// BackendHeader names the backend that served a response.
const BackendHeader = "X-RALF-Backend"

// FormatCompletion builds the collected response for stream=false.
func FormatCompletion(id, model, backend, content, finishReason string) *types.ChatCompletionResponse {
	if finishReason == "" {
		finishReason = providers.FinishReasonStop
	}
	return &types.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
		Backend: backend,
		Choices: []types.Choice{
			{
				Index: 0,
				Message: types.Message{
					Role:    providers.RoleAssistant,
					Content: content,
				},
				FinishReason: finishReason,
			},
		},
	}
}

// FormatStreamChunk converts a backend chunk to an SSE chunk. first marks the
// opening chunk, which carries the assistant role.
func FormatStreamChunk(chunk *providers.StreamChunk, model, id string, first bool) *types.ChatCompletionStreamChunk {
	out := &types.ChatCompletionStreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []types.StreamChoice{
			{
				Index: 0,
				Delta: types.Delta{Content: chunk.Delta},
			},
		},
	}
	if first {
		out.Choices[0].Delta.Role = providers.RoleAssistant
	}

	// Include finish_reason only in final chunk
	if chunk.FinishReason != "" {
		finishReason := chunk.FinishReason
		out.Choices[0].FinishReason = &finishReason
	}

	return out
}

// WriteJSONResponse writes v as a JSON response.
func WriteJSONResponse(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON response: %w", err)
	}
	return nil
}

// WriteErrorResponse writes errResp with the status its type maps to.
func WriteErrorResponse(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	return WriteJSONResponse(w, errResp.Error.HTTPStatusCode(), errResp)
}

// WriteSSEChunk writes a single chunk in Server-Sent Events format:
//
//	data: {"id":"chatcmpl-123","object":"chat.completion.chunk",...}
//
// followed by a blank line, and flushes it.
func WriteSSEChunk(w http.ResponseWriter, chunk *types.ChatCompletionStreamChunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE chunk: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE chunk: %w", err)
	}
	flush(w)
	return nil
}

// WriteSSEDone writes the final "[DONE]" marker.
func WriteSSEDone(w http.ResponseWriter) error {
	if _, err := fmt.Fprint(w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write SSE done marker: %w", err)
	}
	flush(w)
	return nil
}

// WriteSSEError writes an error event. It ends a stream that failed after
// it started.
func WriteSSEError(w http.ResponseWriter, errResp *types.ErrorResponse) error {
	data, err := json.Marshal(errResp)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE error: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE error: %w", err)
	}
	flush(w)
	return nil
}

// SetSSEHeaders sets the headers for Server-Sent Events streaming.
func SetSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
}

// SetTextStreamHeaders sets the headers for the plain chunked text stream.
func SetTextStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}
