// Package enginerr is the single error carrier used across bulletdb's core.
//
// Every recoverable failure in the array model, compute kernels, broadcast
// channel, scan contract, and planner is returned as an *Error: a message, an
// optional wrapped source, a taxonomy Kind, and a captured stack (via
// github.com/pkg/errors) so a failing query produces one message chain at the
// driver boundary instead of a bare string.
package enginerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the cause of an Error, per the taxonomy in the error
// handling design: NotImplemented, InvalidArgument, TypeMismatch,
// SchemaMismatch, Lookup, Io, Conversion.
type Kind string

const (
	NotImplemented  Kind = "not_implemented"
	InvalidArgument Kind = "invalid_argument"
	TypeMismatch    Kind = "type_mismatch"
	SchemaMismatch  Kind = "schema_mismatch"
	Lookup          Kind = "lookup"
	Io              Kind = "io"
	Conversion      Kind = "conversion"
	Internal        Kind = "internal"
)

// Error is the carrier. It is never constructed with a bare string error -
// always through the New/Wrap helpers below so the stack is captured at the
// point of failure rather than at some later %w-wrapping site.
type Error struct {
	Kind    Kind
	msg     string
	source  error
	stacked error // github.com/pkg/errors wrapped value, carries the stack
}

func (e *Error) Error() string {
	if e.source != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.source)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.source
}

// StackTrace exposes the pkg/errors-captured stack for top-level reporting.
func (e *Error) StackTrace() errors.StackTrace {
	type stackTracer interface {
		StackTrace() errors.StackTrace
	}
	if st, ok := e.stacked.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

func newf(kind Kind, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		msg:     msg,
		stacked: errors.New(msg),
	}
}

func wrapf(kind Kind, source error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    kind,
		msg:     msg,
		source:  source,
		stacked: errors.WithStack(source),
	}
}

// NotImplementedf returns a NotImplemented error for a known-unsupported
// branch (struct concat, an unhandled AST form, ...).
func NotImplementedf(format string, args ...any) *Error {
	return newf(NotImplemented, "not yet implemented: "+format, args...)
}

// InvalidArgumentf returns an InvalidArgument error (empty concat input,
// zero-row VALUES, too many column aliases, ...).
func InvalidArgumentf(format string, args ...any) *Error {
	return newf(InvalidArgument, format, args...)
}

// TypeMismatchf returns a TypeMismatch error naming the expected and
// offending variants.
func TypeMismatchf(format string, args ...any) *Error {
	return newf(TypeMismatch, format, args...)
}

// SchemaMismatchf returns a SchemaMismatch error (differing batch widths,
// column length disagreement).
func SchemaMismatchf(format string, args ...any) *Error {
	return newf(SchemaMismatch, format, args...)
}

// Lookupf returns a Lookup error (missing column reference, missing catalog
// entry).
func Lookupf(format string, args ...any) *Error {
	return newf(Lookup, format, args...)
}

// WrapIo wraps a source/sink failure surfaced from an external decoder.
func WrapIo(source error, context string) *Error {
	return wrapf(Io, source, "%s", context)
}

// WrapConversion wraps a numeric or format conversion failure from a
// boundary (e.g. decoding a Postgres or Parquet value).
func WrapConversion(source error, context string) *Error {
	return wrapf(Conversion, source, "%s", context)
}

// Wrap adds context to any error as it bubbles toward the driver, preserving
// the original as Unwrap()-able source. If err is already an *Error its Kind
// is preserved; otherwise it is classified Internal.
func Wrap(err error, context string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return wrapf(e.Kind, err, "%s", context)
	}
	return wrapf(Internal, err, "%s", context)
}

// Is reports whether err (or any error in its chain) is an *Error of the
// given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
