// Package types defines the request and response bodies of the HTTP API.
//
// Request types:
//   - ChatRequest: body of POST /chat, {"messages": [...]}
//   - ChatCompletionRequest: OpenAI-compatible body of POST /v1/chat/completions
//   - Message: one conversation turn
//
// Response types:
//   - ChatCompletionResponse: collected completion for stream=false
//   - ChatCompletionStreamChunk: one SSE chunk for stream=true
//   - ResetResponse: result of POST /backends/{name}/reset
//   - ErrorResponse: {"error": {"message", "type", "code", "backend"}}
//
// Validation lives on the request types so that a malformed conversation is
// rejected with 400 before any backend is contacted.
package types
