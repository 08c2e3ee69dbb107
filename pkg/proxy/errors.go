package proxy

import (
	"context"
	"errors"

	"github.com/ForLess01/API-RALF/pkg/providers"
	"github.com/ForLess01/API-RALF/pkg/proxy/types"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

const internalErrorMessage = "An internal error occurred. Please try again later."

// HandleError maps an error to the response sent to the caller.
//
//   - *RequestError: 400 invalid_request_error
//   - *routing.BackendError: 502 bad_gateway with the backend named, or 504
//     when the backend timed out
//   - *routing.BackendNotFoundError: 404 not_found
//   - anything else: 500 server_error with a generic message
//
// Rate limits never reach this function: the dispatcher recovers from them
// and reports exhaustion as a normal response.
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var backendErr *routing.BackendError
	if errors.As(err, &backendErr) {
		if errors.Is(backendErr, context.DeadlineExceeded) {
			return types.NewGatewayTimeoutError(backendErr.Message, backendErr.Backend)
		}
		return types.NewBadGatewayError(backendErr.Message, backendErr.Backend)
	}

	var notFound *routing.BackendNotFoundError
	if errors.As(err, &notFound) {
		return types.NewNotFoundError(notFound.Error(), types.CodeBackendNotFound)
	}

	return types.NewServerError(internalErrorMessage)
}

// StreamError maps a failure that happened after a backend started
// streaming. Such failures are always attributed to the backend.
func StreamError(backend string, err error) *types.ErrorResponse {
	var backendErr *routing.BackendError
	if errors.As(err, &backendErr) {
		return types.NewBadGatewayError(backendErr.Message, backendErr.Backend)
	}
	return types.NewBadGatewayError(providers.ErrorMessage(err), backend)
}
