package models

import (
	"errors"
	"fmt"
)

// ErrOrderNotFound is returned when an order lookup finds nothing
var ErrOrderNotFound = errors.New("order not found")

// ValidationError reports input that was rejected before or during a
// unit of work. Token carries the offending value when there is one.
type ValidationError struct {
	Field   string
	Token   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Token)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError reports that a request could not be delivered or that
// the response could not be read. It is the only retryable failure.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is a failure reported by the remote service
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return "unknown error"
	}
	return e.Message
}

// PersistenceError wraps a store failure
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err carries a TransportError
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
