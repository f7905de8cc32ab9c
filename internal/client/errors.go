package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the directory backend.
type APIError struct {
	StatusCode int
	Message    string // value of the {"error": ...} body, if any
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

type errorBody struct {
	Error string `json:"error"`
}

func newAPIError(statusCode int, body string) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var parsed errorBody
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		apiErr.Message = parsed.Error
	}
	return apiErr
}

// Message returns the backend's error message verbatim when err carries one,
// and fallback otherwise.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
