package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by the API client.
var (
	// ErrAuthorNotFound is returned when the author graph lookup answers with anything but 200.
	ErrAuthorNotFound = errors.New("author not found")

	// ErrMalformedResponse indicates a body that does not have the documented shape.
	ErrMalformedResponse = errors.New("malformed API response")

	// ErrRateLimited indicates the server (or our own limiter) refused the call.
	ErrRateLimited = errors.New("API rate limit exceeded")

	// ErrNetwork indicates the server could not be reached.
	ErrNetwork = errors.New("network error communicating with the API")
)

// APIError is a non-2xx answer from the remote API.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d, endpoint %s): %s", e.StatusCode, e.Endpoint, e.Message)
}

// IsNotFound returns true if the error indicates a missing author or resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrAuthorNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// checkStatus turns a non-2xx response into an error
func checkStatus(resp *http.Response, endpoint string) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    http.StatusText(resp.StatusCode),
		}
	}
	return nil
}
