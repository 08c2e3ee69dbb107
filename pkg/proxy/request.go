package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ForLess01/API-RALF/pkg/proxy/types"
)

// DefaultMaxBodyBytes is the request body limit used when none is configured.
const DefaultMaxBodyBytes = 1 << 20

// ParseChatRequest parses and validates the body of POST /chat.
func ParseChatRequest(r *http.Request, maxBody int64) (*types.ChatRequest, error) {
	var req types.ChatRequest
	if err := decodeBody(r, maxBody, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// ParseChatCompletionRequest parses and validates the body of
// POST /v1/chat/completions.
func ParseChatCompletionRequest(r *http.Request, maxBody int64) (*types.ChatCompletionRequest, error) {
	var req types.ChatCompletionRequest
	if err := decodeBody(r, maxBody, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// decodeBody reads at most maxBody bytes and unmarshals them into v. A body
// over the limit is rejected rather than truncated.
func decodeBody(r *http.Request, maxBody int64, v any) error {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if int64(len(body)) > maxBody {
		return &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", maxBody),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}
	if len(body) == 0 {
		return &RequestError{
			Message: "request body is empty",
			Code:    types.CodeMissingField,
			Param:   "body",
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}
	return nil
}

func validationError(err error) error {
	if valErr, ok := err.(*types.ValidationError); ok {
		code := valErr.Code
		if code == "" {
			code = types.CodeInvalidValue
		}
		return &RequestError{
			Message: valErr.Message,
			Code:    code,
			Param:   valErr.Field,
		}
	}
	return err
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
