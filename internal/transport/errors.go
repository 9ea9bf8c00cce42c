package transport

import (
	"errors"
	"fmt"
)

// Payload is the structured error body some servers return.
type Payload struct {
	Detail  string `json:"detail"`
	Message string `json:"message,omitempty"`
}

// Error describes a failed retrieval. Status is zero when no response was
// received.
type Error struct {
	Method  string
	URL     string
	Status  int
	Message string
	Payload *Payload
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Message)
	}
	return fmt.Sprintf("%s %s: request failed", e.Method, e.URL)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the server-supplied detail, if any.
func (e *Error) Detail() string {
	if e.Payload == nil {
		return ""
	}
	if e.Payload.Detail != "" {
		return e.Payload.Detail
	}
	return e.Payload.Message
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var te *Error
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}
