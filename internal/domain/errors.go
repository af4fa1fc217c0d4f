package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuizID is returned when a quiz session is initialized without an id.
	ErrEmptyQuizID = errors.New("quiz id is empty")
	// ErrSessionBound is returned when a quiz session is re-initialized with a different id.
	ErrSessionBound = errors.New("quiz session already bound to another quiz")
	// ErrNoCredentials indicates nothing is stored in the credential store.
	ErrNoCredentials = errors.New("no stored credentials")
	// ErrCorruptCredentials indicates stored credentials could not be unsealed or parsed.
	ErrCorruptCredentials = errors.New("stored credentials are corrupt")
)

// APIError means the server answered with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// TransportError means no response reached the client.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError means a 2xx response body did not match the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode returns the status carried by an APIError anywhere in err's chain.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, true
	}
	return 0, false
}
