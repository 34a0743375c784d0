package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrCancelled is returned when an upload is aborted by the caller.
var ErrCancelled = errors.New("upload cancelled")

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response, or a 2xx envelope whose status field
// reports failure.
type ServerError struct {
	StatusCode int
	Status     string // e.g. "500 Internal Server Error"
	Message    string // server-provided message, may be empty
}

func (e *ServerError) Error() string {
	switch {
	case e.Message == "":
		return e.Status
	case e.Status == "":
		return e.Message
	}
	return e.Status + ": " + e.Message
}

// DecodeError is a response body that could not be parsed, even though the
// transport reported success.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "invalid response from server" }
func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError is an upload that exceeded its fixed deadline.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upload timed out after %s", e.After)
}
