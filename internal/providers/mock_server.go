package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a mock HTTP server for testing backend adapters.
// It simulates upstream chat APIs including errors and SSE streams.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requests     []RecordedRequest
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a mock response configuration.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are written as "data: <chunk>" events
	StreamChunks []string

	// RawStream writes StreamChunks verbatim, for APIs that use "event:" lines
	RawStream bool

	// OmitDone suppresses the trailing "data: [DONE]" event
	OmitDone bool

	// ChunkDelay is the pause between stream events
	ChunkDelay time.Duration
}

// RecordedRequest is a request observed by the mock server.
type RecordedRequest struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))

	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.requestCount
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// LastRequestJSON decodes the most recent request body into v.
func (ms *MockServer) LastRequestJSON(v any) error {
	req, ok := ms.LastRequest()
	if !ok {
		return fmt.Errorf("no request received")
	}
	return json.Unmarshal(req.Body, v)
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.requests = append(ms.requests, RecordedRequest{
		Method:   r.Method,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header.Clone(),
		Body:     body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 {
		ms.handleStream(w, r, response)
		return
	}

	if response.StatusCode == 0 {
		response.StatusCode = http.StatusOK
	}
	w.WriteHeader(response.StatusCode)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// handleStream writes Server-Sent Events.
func (ms *MockServer) handleStream(w http.ResponseWriter, r *http.Request, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	delay := response.ChunkDelay
	if delay == 0 {
		delay = 5 * time.Millisecond
	}

	for _, chunk := range response.StreamChunks {
		if response.RawStream {
			fmt.Fprintf(w, "%s\n\n", chunk)
		} else {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		flusher.Flush()

		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if !response.OmitDone {
		fmt.Fprintf(w, "data: [DONE]\n\n")
		flusher.Flush()
	}
}

// MockOpenAIStreamChunk creates an OpenAI-compatible streaming chunk, as sent
// by OpenRouter.
func MockOpenAIStreamChunk(delta string, finishReason string) string {
	choice := map[string]any{
		"index": 0,
		"delta": map[string]any{
			"content": delta,
		},
	}
	if finishReason != "" {
		choice["finish_reason"] = finishReason
	}

	chunk := map[string]any{
		"id":      "gen-123",
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   "google/gemini-2.0-flash-exp:free",
		"choices": []map[string]any{choice},
	}

	bytes, _ := json.Marshal(chunk)
	return string(bytes)
}

// MockOpenAIStreamError creates an in-stream error event in the shape
// OpenRouter uses after headers have been sent.
func MockOpenAIStreamError(code int, message string) string {
	bytes, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
	return string(bytes)
}

// MockGeminiStreamChunk creates a streamGenerateContent SSE payload.
func MockGeminiStreamChunk(text string, finishReason string) string {
	candidate := map[string]any{
		"content": map[string]any{
			"role": "model",
			"parts": []map[string]any{
				{"text": text},
			},
		},
		"index": 0,
	}
	if finishReason != "" {
		candidate["finishReason"] = finishReason
	}

	bytes, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{candidate},
	})
	return string(bytes)
}

// MockAnthropicStreamEvent creates an Anthropic stream event with its
// "event:" line. Use with RawStream.
func MockAnthropicStreamEvent(eventType string, data any) string {
	var eventData string

	if data != nil {
		bytes, _ := json.Marshal(data)
		eventData = string(bytes)
	}

	return fmt.Sprintf("event: %s\ndata: %s", eventType, eventData)
}

// MockAnthropicContentBlockDelta creates a content_block_delta event payload.
func MockAnthropicContentBlockDelta(text string) map[string]any {
	return map[string]any{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]any{
			"type": "text_delta",
			"text": text,
		},
	}
}

// MockErrorResponse creates a JSON error response in the
// {"error":{"message":...}} shape shared by OpenAI, OpenRouter and Google.
func MockErrorResponse(statusCode int, message string) MockResponse {
	body := map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    statusCode,
		},
	}

	return MockResponse{
		StatusCode: statusCode,
		Body:       body,
	}
}

// MockAuthError creates a 401 authentication error response.
func MockAuthError() MockResponse {
	return MockErrorResponse(http.StatusUnauthorized, "Invalid API key")
}

// MockRateLimitError creates a 429 rate limit error response.
func MockRateLimitError(retryAfter int) MockResponse {
	response := MockErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	response.Headers = map[string]string{
		"Retry-After": fmt.Sprintf("%d", retryAfter),
	}
	return response
}

// MockServerError creates a 500 internal server error response.
func MockServerError() MockResponse {
	return MockErrorResponse(http.StatusInternalServerError, "Internal server error")
}
