// Package fault defines the error taxonomy shared by every layer of the
// service and the translator that turns any error into the JSON envelope
// returned to API callers.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for translation into a response.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindDenied
	KindValidation
	KindConflict
	KindBadRequest
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindDenied:
		return "denied"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad request"
	default:
		return "internal"
	}
}

// Violation is a single failed constraint on an input field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified error.
//
// Msg is safe to show to API callers. Err, when set, is the underlying cause
// and is only ever logged.
type Error struct {
	Kind       Kind
	Msg        string
	Violations []Violation
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Msg != "" {
		b.WriteString(e.Msg)
	} else {
		b.WriteString(e.Kind.String())
	}
	for i, v := range e.Violations {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(v.Field)
		b.WriteString(" ")
		b.WriteString(v.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind, so that
// errors.Is(fault.NotFound("user"), fault.ErrNotFound) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil && t.Violations == nil
}

// Sentinels for errors.Is checks. They carry no message.
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrDenied     = &Error{Kind: KindDenied}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrBadRequest = &Error{Kind: KindBadRequest}
)

// NotFound returns a NotFound error with a caller-visible message.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Denied returns an authorization error with a caller-visible message.
func Denied(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDenied, Msg: fmt.Sprintf(format, args...)}
}

// BadRequest returns an error for malformed client input.
func BadRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBadRequest, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns an error carrying the failed constraints.
func Validation(violations ...Violation) *Error {
	return &Error{Kind: KindValidation, Violations: violations}
}

// Conflict wraps a storage uniqueness violation. The cause is kept for logs.
func Conflict(cause error) *Error {
	return &Error{Kind: KindConflict, Err: cause}
}

// KindOf returns the kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}
