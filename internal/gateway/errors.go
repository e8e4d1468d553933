package gateway

import (
	"errors"
	"fmt"
)

// ErrTransport wraps failures that happen before a response arrives.
var ErrTransport = errors.New("ticketing api unreachable")

// APIError is a non-2xx answer from the ticketing API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func newAPIError(status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("HTTP %d", status)
	}
	return &APIError{StatusCode: status, Message: message}
}
