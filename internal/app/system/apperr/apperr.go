// Package apperr defines the error taxonomy shared by stores, handlers and
// the realtime relay.
//
// Stores return NotFound and Duplicate errors; request validation returns
// Validation errors and access checks return Forbidden. Each matches its
// sentinel under errors.Is and carries a message that is safe to show a
// client. Anything else is a store failure
// and surfaces as a 500 or a relay error event with a generic message.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Is matches the error's Kind sentinel.
func (e *Error) Is(target error) bool { return target == e.Kind }

// Validation reports malformed or missing input.
func Validation(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// NotFound reports a referenced record that does not exist.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

// Duplicate reports a unique-constraint conflict.
func Duplicate(msg string) error { return &Error{Kind: ErrDuplicate, Msg: msg} }

// Forbidden reports a caller reaching for something that is not theirs.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

// Status maps err onto an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the text safe to show a client for err. Unclassified
// errors get fallback rather than their internal detail.
func Message(err error, fallback string) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return fallback
}
