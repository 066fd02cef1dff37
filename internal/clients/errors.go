package clients

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned by a client whose backing service has no key or URL
var ErrNotConfigured = errors.New("client not configured")

// APIError represents a non-success response from an external service
type APIError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error (status %d)", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

// NewAPIError creates a new API error
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{
		Service:    service,
		StatusCode: statusCode,
		Message:    message,
	}
}

// StatusCodeOf extracts the HTTP status from an APIError chain, or 0
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
