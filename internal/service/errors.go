package service

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Concrete errors wrap exactly one of these so the transport
// layer can pick a status code with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrStore        = errors.New("store failure")
)

// ValidationError names the offending input field. For client id lists,
// InvalidIDs holds every id that was malformed or unknown.
type ValidationError struct {
	Field      string
	Message    string
	InvalidIDs []string
}

func (e *ValidationError) Error() string {
	msg := e.Field + ": " + e.Message
	if len(e.InvalidIDs) > 0 {
		msg += " (" + strings.Join(e.InvalidIDs, ", ") + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a persistence failure with the operation that hit it.
// It matches both ErrStore and the underlying driver error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func invalidState(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, msg)
}
