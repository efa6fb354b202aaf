package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so the transport layer can map it to exactly one
// HTTP status.
type Kind int

const (
	KindValidation Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindInternal
	KindTimeout
	KindCache
	KindRateLimited
)

// FieldError points at a specific input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error type returned by every core operation.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// StatusCode maps the kind to its HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Wrap attaches a cause without changing what the client sees.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validation(msg string, fields ...FieldError) *Error {
	e := newError(KindValidation, msg)
	e.Fields = fields
	return e
}

func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return newError(KindForbidden, msg) }
func Internal(msg string) *Error     { return newError(KindInternal, msg) }
func Timeout(msg string) *Error      { return newError(KindTimeout, msg) }
func RateLimited(msg string) *Error  { return newError(KindRateLimited, msg) }

// CacheError marks cache failures distinctly; callers must treat them as
// best-effort and never block the underlying operation on one.
func CacheError(msg string) *Error {
	return newError(KindCache, "Cache Error : "+msg)
}

// From converts any error into an *Error, passing through ones that already
// are and wrapping the rest as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("Internal server error").Wrap(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
