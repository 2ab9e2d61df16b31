package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status and a short machine readable code along with the cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("app error (%d)", e.Status)
	}
	return "app error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same status and code, so that wrapped sentinels compare
// equal to the sentinel itself.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Status == t.Status && e.Code == t.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

var (
	ErrNotFound  = New(http.StatusNotFound, "not_found", errors.New("contact not found"))
	ErrNoChanges = New(http.StatusBadRequest, "no_changes", errors.New("no values to be updated"))
	ErrInvalid   = New(http.StatusBadRequest, "invalid", errors.New("invalid request"))
)

// Invalid returns a bad request error with the given message.
func Invalid(msg string) *Error {
	return New(http.StatusBadRequest, "invalid", errors.New(msg))
}

// StatusOf returns the HTTP status for err. Errors that are not an *Error map to 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
