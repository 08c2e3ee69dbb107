package types

// ChatCompletionResponse is the collected completion returned for
// stream=false.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`

	// Backend names the backend that produced the completion. Empty for the
	// exhaustion fallback.
	Backend string `json:"backend,omitempty"`
}

// Choice is a single completion choice.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// ChatCompletionStreamChunk is one SSE chunk for stream=true.
type ChatCompletionStreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"` // "chat.completion.chunk"
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice is a single choice in a streaming response.
type StreamChoice struct {
	Index int   `json:"index"`
	Delta Delta `json:"delta"`

	// FinishReason is only set on the final chunk.
	FinishReason *string `json:"finish_reason"`
}

// Delta contains incremental content in a streaming response.
type Delta struct {
	// Role is only set on the first chunk.
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// ResetResponse is the body of POST /backends/{name}/reset.
type ResetResponse struct {
	Backend string `json:"backend"`
	Status  string `json:"status"`
}

