// Package apperr carries structured errors out of the till core so the caller
// decides how to present them.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unexpected is anything that was not classified.
	Unexpected Kind = iota
	// Validation errors are caught before any backend call.
	Validation
	// Backend errors are business-rule rejections returned by the backend.
	Backend
	// Connection errors mean the backend could not be reached.
	Connection
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Backend:
		return "backend"
	case Connection:
		return "connection"
	default:
		return "unexpected"
	}
}

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Message != "":
		return e.Op + ": " + e.Message
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": " + e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Invalid builds a validation error wrapping a sentinel.
func Invalid(op string, err error, message string) error {
	return &Error{Kind: Validation, Op: op, Message: message, Err: err}
}

// Wrap classifies err under kind. Errors that already carry a kind keep it.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return &Error{Kind: ae.Kind, Op: op, Err: err}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost structured error in err's chain.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Unexpected
}
