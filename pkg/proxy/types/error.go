package types

import "net/http"

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error, e.g. "invalid_request_error" or "bad_gateway".
	Type string `json:"type"`

	// Param names the request field that caused the error, if any.
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`

	// Backend names the backend whose failure is reported.
	Backend string `json:"backend,omitempty"`
}

// Error type constants, compatible with the OpenAI error format.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeMethodNotAllowed   = "method_not_allowed"
	ErrorTypeServerError        = "server_error"
	ErrorTypeBadGateway         = "bad_gateway"
	ErrorTypeServiceUnavailable = "service_unavailable"
	ErrorTypeGatewayTimeout     = "gateway_timeout"
)

// Error code constants.
const (
	CodeMissingField     = "missing_field"
	CodeInvalidValue     = "invalid_value"
	CodeInvalidJSON      = "invalid_json"
	CodeRequestTooLarge  = "request_too_large"
	CodeBackendError     = "backend_error"
	CodeBackendTimeout   = "backend_timeout"
	CodeBackendNotFound  = "backend_not_found"
	CodeJournalDisabled  = "journal_disabled"
	CodeMethodNotAllowed = "method_not_allowed"
	CodeInternalError    = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewBadGatewayError creates an error response for a failed backend (502).
func NewBadGatewayError(message, backend string) *ErrorResponse {
	resp := NewErrorResponse(message, ErrorTypeBadGateway, "", CodeBackendError)
	resp.Error.Backend = backend
	return resp
}

// NewGatewayTimeoutError creates an error response for a backend timeout (504).
func NewGatewayTimeoutError(message, backend string) *ErrorResponse {
	resp := NewErrorResponse(message, ErrorTypeGatewayTimeout, "", CodeBackendTimeout)
	resp.Error.Backend = backend
	return resp
}

// NewNotFoundError creates an error response for an unknown resource (404).
func NewNotFoundError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeNotFound, "", code)
}

// NewMethodNotAllowedError creates an error response for a wrong method (405).
func NewMethodNotAllowedError(method string) *ErrorResponse {
	return NewErrorResponse("method "+method+" not allowed", ErrorTypeMethodNotAllowed, "method", CodeMethodNotAllowed)
}

// NewServiceUnavailableError creates an error response for a disabled
// feature or an unavailable dependency (503).
func NewServiceUnavailableError(message, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", code)
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case ErrorTypeBadGateway:
		return http.StatusBadGateway
	case ErrorTypeServiceUnavailable:
		return http.StatusServiceUnavailable
	case ErrorTypeGatewayTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
