// Package apperr defines the error kinds surfaced to API callers.
//
// Every recoverable failure is an *Error carrying one of the four kinds below
// and a machine-readable Code. Anything that is not an *Error is treated as an
// internal failure by the transport layer.
package apperr

import "errors"

// Kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
)

// Code is a machine-readable error code.
type Code string

const (
	CodeInvalidISBN         Code = "INVALID_ISBN"
	CodeSameISBN            Code = "SAME_ISBN"
	CodeSelfBarter          Code = "SELF_BARTER"
	CodeInvalidStatusFilter Code = "INVALID_STATUS_FILTER"
	CodeInvalidRoleFilter   Code = "INVALID_ROLE_FILTER"

	CodeBookNotFound     Code = "BOOK_NOT_FOUND"
	CodeExchangeNotFound Code = "EXCHANGE_NOT_FOUND"
	CodeNotInCollection  Code = "NOT_IN_COLLECTION"

	CodeNotCounterparty Code = "NOT_COUNTERPARTY"
	CodeNotInitiator    Code = "NOT_INITIATOR"

	CodeOfferedBookNotHeld       Code = "OFFERED_BOOK_NOT_HELD"
	CodeExchangeNotPending       Code = "EXCHANGE_NOT_PENDING"
	CodeOfferedBookUnavailable   Code = "OFFERED_BOOK_UNAVAILABLE"
	CodeRequestedBookUnavailable Code = "REQUESTED_BOOK_UNAVAILABLE"
	CodeConcurrentUpdate         Code = "CONCURRENT_UPDATE"
	CodeAlreadyHeld              Code = "ALREADY_HELD"
)

// Error is a classified, caller-recoverable failure.
type Error struct {
	Kind    error  // one of the Err* kinds
	Code    Code   // machine-readable code
	Message string // safe to show to API callers
	Cause   error  // optional underlying error, never shown to callers
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(code Code, message string) *Error {
	return &Error{Kind: ErrValidation, Code: code, Message: message}
}

func NotFound(code Code, message string) *Error {
	return &Error{Kind: ErrNotFound, Code: code, Message: message}
}

func Forbidden(code Code, message string) *Error {
	return &Error{Kind: ErrForbidden, Code: code, Message: message}
}

func Conflict(code Code, message string) *Error {
	return &Error{Kind: ErrConflict, Code: code, Message: message}
}

// Wrap attaches a cause to a classified error.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
