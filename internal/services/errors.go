package services

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the remote API rejects the credential.
var ErrUnauthorized = errors.New("Authentication failed. Please check your API key.")

// ErrUnavailable indicates the remote API could not be reached.
var ErrUnavailable = errors.New("resemble unavailable")

// ErrTimeout indicates the remote API took too long to respond.
var ErrTimeout = errors.New("resemble timeout")

// ErrAudioTooLarge is returned when a synthesized clip exceeds the configured cap.
var ErrAudioTooLarge = errors.New("audio response too large")

// APIError is a non-2xx response from the remote API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resemble returned status %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the status of the APIError in err's chain, or 0 when
// the remote API never answered with one.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	if errors.Is(err, ErrUnauthorized) {
		return 401
	}
	return 0
}
