package fault

import (
	"errors"
	"net/http"
)

// ConflictMessage is returned for every uniqueness violation instead of the
// storage engine's text.
const ConflictMessage = "a resource with the same unique value already exists"

const (
	validationMessage = "validation failed"
	internalMessage   = "internal server error"
)

// StatusCoder is implemented by errors that carry their own HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Envelope is the JSON body of every error response.
type Envelope struct {
	Status     int         `json:"status"`
	Message    string      `json:"message"`
	Violations []Violation `json:"violations,omitempty"`
}

// statusByKind maps a kind to the response status.
var statusByKind = map[Kind]int{
	KindNotFound:   http.StatusNotFound,
	KindDenied:     http.StatusUnauthorized,
	KindValidation: http.StatusBadRequest,
	KindConflict:   http.StatusBadRequest,
	KindBadRequest: http.StatusBadRequest,
	KindInternal:   http.StatusInternalServerError,
}

// Translate maps err to a response envelope. It never fails.
func Translate(err error) Envelope {
	if err == nil {
		return Envelope{Status: http.StatusInternalServerError, Message: internalMessage}
	}

	var fe *Error
	if errors.As(err, &fe) {
		env := Envelope{Status: statusByKind[fe.Kind], Message: fe.Msg}
		switch fe.Kind {
		case KindValidation:
			env.Message = validationMessage
			env.Violations = fe.Violations
		case KindConflict:
			env.Message = ConflictMessage
		case KindInternal:
			env.Message = internalMessage
		case KindNotFound, KindDenied, KindBadRequest:
			if env.Message == "" {
				env.Message = http.StatusText(env.Status)
			}
		}
		return env
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		if status >= http.StatusBadRequest && status < 600 {
			msg := err.Error()
			if status >= http.StatusInternalServerError {
				msg = internalMessage
			}
			return Envelope{Status: status, Message: msg}
		}
	}

	return Envelope{Status: http.StatusInternalServerError, Message: internalMessage}
}
