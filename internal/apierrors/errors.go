// Package apierrors defines the client's error taxonomy. Callers distinguish
// four cases: rejected credentials, a locally recovered token refresh
// (invisible to them), a terminated session, and plain transport or server
// errors.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuthentication indicates the backend rejected a login or
	// registration attempt. Local state is untouched.
	ErrAuthentication = errors.New("authentication failed")

	// ErrSessionTerminated indicates a token refresh failed (or no refresh
	// token existed) after a 401. Stored credentials have been cleared and
	// the user must log in again.
	ErrSessionTerminated = errors.New("session terminated")

	// ErrUnauthenticated indicates an operation that requires a session was
	// attempted without one.
	ErrUnauthenticated = errors.New("not authenticated")
)

// APIError is a non-2xx response from the backend, carrying the status code
// and the backend's error message when one was decodable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

// NewAPIError builds an APIError from a response status and decoded message.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{StatusCode: statusCode, Message: message}
}

// StatusCode returns the backend status code carried by err, or 0 when err is
// not (and does not wrap) an APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsStatus reports whether err carries the given backend status code.
func IsStatus(err error, statusCode int) bool {
	return StatusCode(err) == statusCode
}
