// Package apperr defines the error taxonomy shared by the domain services.
// Every operation returns either its payload or one of these kinds; the HTTP
// layer maps kinds to status codes and nothing is retried internally.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure.
type Kind int

const (
	// NotFound: a referenced doctor, clinic, patient, affiliation or
	// appointment does not exist.
	NotFound Kind = iota + 1
	// Conflict: duplicate affiliation, slot at capacity, double booking,
	// or an optimistic-version mismatch on write.
	Conflict
	// InvalidState: the operation is valid but the record is not in a state
	// that permits it (not approved, outside working hours, self-accept).
	InvalidState
	// Unauthorized: the acting party is not a party to the record.
	Unauthorized
	// Validation: malformed input (unknown action, bad shift range).
	Validation
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InvalidState:
		return "invalid_state"
	case Unauthorized:
		return "unauthorized"
	case Validation:
		return "validation"
	}
	return "unknown"
}

// HTTPStatus returns the status code a handler should respond with.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case InvalidState:
		return http.StatusUnprocessableEntity
	case Unauthorized:
		return http.StatusForbidden
	case Validation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error is a classified domain failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two apperr values by kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }
