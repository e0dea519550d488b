package loyverse

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRemoteUnavailable wraps every transport failure and non-2xx answer.
	ErrRemoteUnavailable = errors.New("remote catalog unavailable")
	// ErrNotFound is returned for 404 answers.
	ErrNotFound = errors.New("remote resource not found")
	// ErrInvalidRemoteData marks payloads we cannot interpret.
	ErrInvalidRemoteData = errors.New("invalid remote data")
)

// APIError is a non-2xx answer of the remote API.
type APIError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	return ErrRemoteUnavailable
}

// Temporary reports whether repeating the call may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}
