package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure; controllers map kinds to HTTP codes.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindAuthentication Kind = "authentication"
	KindNotFound       Kind = "not_found"
	KindDependency     Kind = "dependency"
	KindInternal       Kind = "internal"
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Errs    []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// WithCause attaches the underlying error for logs; the cause is never
// serialized to clients.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

func (e *Error) WithDetails(details ...string) *Error {
	c := *e
	c.Errs = append(append([]string(nil), e.Errs...), details...)
	return &c
}

func newError(kind Kind, status int, msg string) *Error {
	return &Error{Kind: kind, Status: status, Message: msg}
}

func Validation(msg string) *Error { return newError(KindValidation, http.StatusBadRequest, msg) }
func Conflict(msg string) *Error   { return newError(KindConflict, http.StatusBadRequest, msg) }
func NotFound(msg string) *Error   { return newError(KindNotFound, http.StatusNotFound, msg) }

func Unauthorized(msg string) *Error {
	return newError(KindAuthentication, http.StatusUnauthorized, msg)
}

// Dependency is for upstream failures (blob store and the like); upload
// rejections surface as 400, infrastructure faults as 500.
func Dependency(msg string, status int) *Error { return newError(KindDependency, status, msg) }

func Internal(msg string) *Error {
	return newError(KindInternal, http.StatusInternalServerError, msg)
}

// From extracts an *Error, or wraps err as an internal one.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal("something went wrong").WithCause(err)
}
