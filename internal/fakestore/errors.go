package fakestore

import (
	"errors"
	"fmt"
)

// ErrNoResponse means the request was sent but no HTTP response came back
// (connection refused, DNS failure, timeout).
var ErrNoResponse = errors.New("no response from server")

// StatusError is a non-2xx HTTP response from the store API.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.StatusCode, e.Status)
}

// FetchError wraps any failure of a client operation with a message fit
// for display.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	var se *StatusError
	switch {
	case errors.As(e.Err, &se):
		return fmt.Sprintf("Failed to fetch %s: %d %s", e.Op, se.StatusCode, se.Status)
	case errors.Is(e.Err, ErrNoResponse):
		return fmt.Sprintf("Failed to load %s. No response from server.", e.Op)
	default:
		return fmt.Sprintf("Failed to load %s. Please try again later.", e.Op)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }
