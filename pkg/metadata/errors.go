package metadata

import "fmt"

// ErrorKind enumerates the error kinds this service's metadata layer can
// produce. It intentionally carries only the kinds the wire protocol
// names (see the error table in SPEC_FULL.md §7), not a general-purpose
// filesystem error taxonomy.
type ErrorKind string

const (
	ErrBadRequest ErrorKind = "bad_request"
	ErrAuthFail   ErrorKind = "auth_fail"
	ErrForbidden  ErrorKind = "forbidden"
	ErrNotFound   ErrorKind = "not_found"
	ErrExists       ErrorKind = "exists"
	ErrIOError      ErrorKind = "io_error"
	ErrSizeMismatch ErrorKind = "size_mismatch"
)

// Error is the error type returned by every Store operation that fails
// for a reason the caller is expected to react to (as opposed to an
// unexpected underlying driver error, which is wrapped with ErrIOError).
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewBadRequestError(format string, args ...any) *Error {
	return newError(ErrBadRequest, format, args...)
}

func NewAuthFailError(format string, args ...any) *Error {
	return newError(ErrAuthFail, format, args...)
}

func NewForbiddenError(format string, args ...any) *Error {
	return newError(ErrForbidden, format, args...)
}

func NewNotFoundError(format string, args ...any) *Error {
	return newError(ErrNotFound, format, args...)
}

func NewExistsError(format string, args ...any) *Error {
	return newError(ErrExists, format, args...)
}

func NewIOError(format string, args ...any) *Error {
	return newError(ErrIOError, format, args...)
}

func NewSizeMismatchError(format string, args ...any) *Error {
	return newError(ErrSizeMismatch, format, args...)
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
