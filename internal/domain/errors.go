package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals an unusable topic table or retriever configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrShape signals a mismatch between requested features and the result shape.
	ErrShape = errors.New("shape error")
	// ErrUnknownFeature signals a feature flag outside the closed vocabulary.
	ErrUnknownFeature = errors.New("unknown feature")
	// ErrUnknownIndex signals an index identifier outside the closed vocabulary.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrTransport signals a search backend failure after retries were exhausted.
	ErrTransport = errors.New("transport error")
	// ErrUnauthorized signals a rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError wraps ErrTransport with the HTTP status returned by the backend.
type StatusError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Err.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Err.Error(), e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return e.Err }

// NewStatusError creates a transport status error. Auth failures unwrap to
// both ErrUnauthorized and ErrTransport.
func NewStatusError(status int, message string) error {
	err := ErrTransport
	if status == 401 || status == 403 {
		err = fmt.Errorf("%w: %w", ErrTransport, ErrUnauthorized)
	}
	return &StatusError{StatusCode: status, Message: message, Err: err}
}
