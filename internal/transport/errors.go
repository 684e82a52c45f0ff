package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenExpired indicates the bearer token is no longer accepted (HTTP 403).
	ErrTokenExpired = errors.New("token expired")
	// ErrForbidden indicates valid credentials without the required scope.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates a rejected login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResponse matches any *StatusError.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrNetwork matches any *NetworkError.
	ErrNetwork = errors.New("network error")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("invalid response: status %d", e.StatusCode)
	}
	return fmt.Sprintf("invalid response: status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidResponse
}

// NetworkError wraps a connectivity or transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}
