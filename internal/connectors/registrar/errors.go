package registrar

import (
	"errors"
	"fmt"
	"time"
)

// APIError represents a registrar API error response.
type APIError struct {
	StatusCode int
	Message    string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registrar: API error %d: %s (URL: %s)", e.StatusCode, e.Message, e.URL)
}

// RateLimitError represents an upstream "too many requests" rejection.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("registrar: rate limit exceeded, retry after %s", e.ResetAt.Format(time.RFC3339))
}

// IsUnauthorized checks if the error indicates a session rejection.
// The registrar answers 401 for missing sessions and 419 for expired ones.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 419
	}
	return false
}

// IsRateLimited checks if the error indicates upstream rate limiting.
func IsRateLimited(err error) bool {
	var rateLimitErr *RateLimitError
	return errors.As(err, &rateLimitErr)
}
