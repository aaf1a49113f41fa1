package query

import (
	"errors"
	"fmt"
)

// ErrorKind classifies execution failures into the shared taxonomy both
// backend adapters normalize into. Application code switches on the kind
// (or uses the Is* helpers) instead of inspecting driver errors.
type ErrorKind int

const (
	// BackendError is any native backend failure not covered by a more
	// specific kind. The original message and code are preserved.
	BackendError ErrorKind = iota

	// NotFound means a single-row operation matched zero rows where exactly
	// one was expected.
	NotFound

	// ConstraintViolation means a uniqueness, foreign-key, check, or
	// not-null constraint rejected the write.
	ConstraintViolation

	// ConnectionFailure means the database could not be reached: network,
	// authentication, or pool exhaustion/timeout.
	ConnectionFailure

	// TranslationError means the descriptor could not be turned into a valid
	// operation. Always a caller programming error, never transient.
	TranslationError

	// UnsafeMutation means an Update/Delete had no filters and no explicit
	// override; it was rejected before reaching the database.
	UnsafeMutation
)

// String returns the kind name used in error messages and metric labels.
func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case ConstraintViolation:
		return "constraint_violation"
	case ConnectionFailure:
		return "connection_failure"
	case TranslationError:
		return "translation_error"
	case UnsafeMutation:
		return "unsafe_mutation"
	default:
		return "backend_error"
	}
}

// Error is the uniform execution error. Code carries the backend-native
// error code (a Postgres SQLSTATE or a hosted-API code) when one exists.
type Error struct {
	Kind    ErrorKind
	Message string
	Code    string
	cause   error
}

// Errorf builds an Error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds an Error around a native backend error, preserving it for
// errors.Is/As inspection.
func WrapError(kind ErrorKind, code string, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Message: msg, Code: code, cause: cause}
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("dbridge: %s: %s (code=%s)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("dbridge: %s: %s", e.Kind, e.Message)
}

// Unwrap exposes the native backend error, if any.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the ErrorKind from any error produced by this layer.
// Errors from elsewhere report BackendError.
func KindOf(err error) ErrorKind {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return BackendError
}

func isKind(err error, kind ErrorKind) bool {
	var qe *Error
	return errors.As(err, &qe) && qe.Kind == kind
}

// IsNotFound reports whether err is a zero-rows-where-one-expected failure.
func IsNotFound(err error) bool { return isKind(err, NotFound) }

// IsConstraintViolation reports whether err is a constraint rejection.
func IsConstraintViolation(err error) bool { return isKind(err, ConstraintViolation) }

// IsConnectionFailure reports whether err is a connectivity failure,
// including pool exhaustion.
func IsConnectionFailure(err error) bool { return isKind(err, ConnectionFailure) }

// IsTranslationError reports whether err is a descriptor construction or
// translation failure.
func IsTranslationError(err error) bool { return isKind(err, TranslationError) }

// IsUnsafeMutation reports whether err is a rejected unfiltered mutation.
func IsUnsafeMutation(err error) bool { return isKind(err, UnsafeMutation) }
