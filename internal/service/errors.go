package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNoToken is returned before any network call when no session exists.
	ErrNoToken = errors.New("no token found, please log in again")

	// ErrExpired is returned before any network call when the stored token's
	// exp claim has passed.
	ErrExpired = errors.New("session expired (run: taskmgr login)")

	// ErrUnauthorized marks a 401-class rejection; the session has been cleared.
	ErrUnauthorized = errors.New("session expired or revoked (run: taskmgr login)")

	// ErrNotFound marks a 404 response.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks a request that exceeded the configured timeout.
	ErrTimeout = errors.New("request timed out")
)

// APIError is a non-2xx response. Message is the server-provided message,
// or the operation's fallback text when the server sent none.
type APIError struct {
	Status  int
	Message string
	err     error
}

// NewAPIError builds an APIError. kind, when non-nil, is matched by errors.Is
// (ErrUnauthorized for 401, ErrNotFound for 404).
func NewAPIError(status int, message string, kind error) *APIError {
	return &APIError{Status: status, Message: message, err: kind}
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.err
}

// IsAuthError reports whether err means the user must log in (again).
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNoToken) || errors.Is(err, ErrExpired) || errors.Is(err, ErrUnauthorized)
}

// Message returns the text to show for err: the API message when err is an
// APIError, otherwise err's own text, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// NetworkError wraps a transport failure.
func NetworkError(err error) error {
	return fmt.Errorf("network error: %w", err)
}
