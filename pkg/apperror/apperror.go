// Package apperror defines the error taxonomy shared by the services and the
// HTTP layer. Provider errors are translated into one of these kinds at the
// gateway boundary; the wrapped cause is for logs only.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	InvalidArgument     Kind = "INVALID_ARGUMENT"
	Unauthenticated     Kind = "UNAUTHENTICATED"
	Forbidden           Kind = "FORBIDDEN"
	NotFound            Kind = "NOT_FOUND"
	InsufficientFunds   Kind = "INSUFFICIENT_FUNDS"
	Conflict            Kind = "CONFLICT"
	UpstreamUnavailable Kind = "UPSTREAM_UNAVAILABLE"
	Internal            Kind = "INTERNAL"
)

// Error carries a kind, a message safe to show to the caller and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the caller-safe message of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}
