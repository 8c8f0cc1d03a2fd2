package rover

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidDirection is returned for a direction outside the supported set.
	ErrInvalidDirection = errors.New("rover: invalid direction")

	// ErrMalformedStatus is returned when coordinates are present but not an [x, y] pair.
	ErrMalformedStatus = errors.New("rover: malformed status coordinates")
)

// APIError represents a non-2xx response from the rover API.
type APIError struct {
	// Endpoint is the request path, e.g. /api/rover/status.
	Endpoint string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the (truncated) response body.
	Body string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("rover: %s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("rover: %s returned %d", e.Endpoint, e.StatusCode)
}

// IsNotFound returns true if the resource was not found (HTTP 404).
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsAPIError reports whether err wraps an *APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
