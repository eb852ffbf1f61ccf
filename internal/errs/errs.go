// Package errs defines the structured compile-error type shared by
// every internal package, so a *Error built deep inside the resolver or
// function catalog carries the same §7 error-kind taxonomy the public
// API returns.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates the structured error categories from §7.
type Kind string

const (
	Config       Kind = "ConfigError"
	Schema       Kind = "SchemaError"
	Shape        Kind = "ShapeError"
	Type         Kind = "TypeError"
	Arity        Kind = "ArityError"
	Domain       Kind = "DomainError"
	Relationship Kind = "RelationshipError"
	UpdateCond   Kind = "UpdateConditionError"
)

// Error is the sole error type produced anywhere in the compiler.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a generic description to cause, for errors surfaced at a
// package boundary (e.g. a JSON syntax error from encoding/json). If cause
// is already a *Error, it was raised by validation that already classified
// and templated its own message (an $and/$or arity check, an unknown
// operator, a $func arity error) — that message is the one a caller needs
// to see, so it is preserved as-is rather than buried behind the generic
// wrapper text.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	if e, ok := cause.(*Error); ok {
		return e
	}
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: kind, Message: msg, cause: errors.WithMessage(cause, msg)}
}
