package sqlqc

import "github.com/vellum-sql/sqlqc/internal/errs"

// ErrorKind enumerates the structured error categories from §7 of the
// specification. Every compilation failure is tagged with exactly one.
type ErrorKind = errs.Kind

const (
	ErrConfig       = errs.Config
	ErrSchema       = errs.Schema
	ErrShape        = errs.Shape
	ErrType         = errs.Type
	ErrArity        = errs.Arity
	ErrDomain       = errs.Domain
	ErrRelationship = errs.Relationship
	ErrUpdateCond   = errs.UpdateCond
)

// CompileError is the sole error type returned by every public entry
// point. It carries a structured Kind alongside the human-readable
// Message pinned by the templates in §4, and wraps an underlying cause
// (when there is one) so callers can recover a stack trace via
// errors.As against the github.com/pkg/errors chain underneath.
type CompileError = errs.Error
