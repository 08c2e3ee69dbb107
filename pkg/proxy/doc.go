// Package proxy contains the HTTP plumbing shared by the gateway handlers:
// request parsing, error mapping, response formatting and the stream relay.
//
// # Request Parsing
//
// ParseChatRequest and ParseChatCompletionRequest read at most the
// configured number of bytes, decode the JSON body and validate the
// conversation. Every failure is a *RequestError, which HandleError maps to
// a 400 invalid_request_error:
//
//	{
//	  "error": {
//	    "message": "invalid role \"tool\", expected one of system, user, assistant",
//	    "type": "invalid_request_error",
//	    "param": "messages[1].role",
//	    "code": "invalid_value"
//	  }
//	}
//
// # Relay
//
// Relay forwards a dispatch's chunks to the caller as they arrive, flushing
// after each one. Two formats are supported:
//
//   - text: the raw fragments, as served by POST /chat
//   - SSE: OpenAI chat.completion.chunk frames terminated by "data: [DONE]"
//
// The status line is committed before the first chunk, so a backend
// failure after that point cannot become an error status. The relay ends
// the stream instead and, for SSE, writes an "event: error" frame. Nothing
// is retried once streaming started.
//
// Collect drains a stream into one string for stream=false completions.
//
// # Error Mapping
//
// HandleError translates errors into the OpenAI-style error body:
//
//   - *RequestError: 400
//   - *routing.BackendError: 502 with the backend named, 504 on timeout
//   - *routing.BackendNotFoundError: 404
//   - anything else: 500 with a generic message
package proxy
