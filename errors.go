package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error returned by the store matches exactly one of them
// through errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage failure")
)

// Error carries a message that is safe to show to API callers together with
// its kind and the underlying cause, if any.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func validationError(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func notFoundError(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflictError(msg string, err error) error {
	return &Error{Kind: ErrConflict, Message: msg, Err: err}
}

// storageError wraps a driver error. sql.ErrNoRows becomes ErrNotFound.
func storageError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: ErrNotFound, Message: op + ": not found", Err: err}
	}
	return &Error{Kind: ErrStorage, Message: op, Err: err}
}

// errorStatus maps an error to its HTTP status and the message sent to the
// caller. Storage failures never expose the cause.
func errorStatus(err error) (int, string) {
	var e *Error
	msg := ""
	if errors.As(err, &e) {
		msg = e.Message
	}
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, msg
	case errors.Is(err, ErrNotFound):
		if msg == "" {
			msg = "Not found"
		}
		return http.StatusNotFound, msg
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, msg
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
