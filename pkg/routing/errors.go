package routing

import (
	"errors"
	"fmt"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoBackends is returned when a registry is built with no backends.
	ErrNoBackends = errors.New("no backends configured")

	// ErrDuplicateBackend is returned when two backends share a name.
	ErrDuplicateBackend = errors.New("duplicate backend name")

	// ErrBackendFailed is returned when a backend fails with anything other
	// than a rate limit. No other backend is tried.
	ErrBackendFailed = errors.New("backend failed")

	// ErrBackendNotFound is returned when a backend name is not registered.
	ErrBackendNotFound = errors.New("backend not found")
)

// DuplicateBackendError is returned by NewRegistry when a name repeats.
type DuplicateBackendError struct {
	// Name is the repeated backend name.
	Name string
}

// Error implements the error interface.
func (e *DuplicateBackendError) Error() string {
	return fmt.Sprintf("duplicate backend name %q", e.Name)
}

// Is implements error matching for errors.Is().
func (e *DuplicateBackendError) Is(target error) bool {
	return target == ErrDuplicateBackend
}

// BackendError is the fatal outcome of a dispatch: the chosen backend failed
// with a non-rate-limit error.
type BackendError struct {
	// Backend is the name of the backend that failed.
	Backend string

	// Message is the backend's failure message.
	Message string

	// StatusCode is the upstream HTTP status, or 0 if none was reported.
	StatusCode int

	// Err is the underlying adapter error.
	Err error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend %q failed (status %d): %s", e.Backend, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %q failed: %s", e.Backend, e.Message)
}

// Is implements error matching for errors.Is().
func (e *BackendError) Is(target error) bool {
	return target == ErrBackendFailed
}

// Unwrap returns the adapter error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// BackendNotFoundError is returned for operator actions on unknown names.
type BackendNotFoundError struct {
	// Name is the requested backend.
	Name string

	// Available lists the registered backend names.
	Available []string
}

// Error implements the error interface.
func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("backend %q not found (available backends: %v)", e.Name, e.Available)
}

// Is implements error matching for errors.Is().
func (e *BackendNotFoundError) Is(target error) bool {
	return target == ErrBackendNotFound
}
