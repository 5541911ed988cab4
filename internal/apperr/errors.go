package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can pick a status code.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence"
)

// Error is the single error type returned by services.
// Msg is safe to show to clients; Err carries the internal cause.
type Error struct {
	Kind  Kind
	Code  string
	Msg   string
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation  = &Error{Kind: KindValidation}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrNotFound    = &Error{Kind: KindNotFound}
	ErrPersistence = &Error{Kind: KindPersistence}
)

func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Code: "validation_failed", Field: field, Msg: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Msg: msg}
}

// NotFound reports a missing entity, e.g. NotFound("customer", 7).
func NotFound(entity string, id int64) *Error {
	return &Error{
		Kind: KindNotFound,
		Code: entity + "_not_found",
		Msg:  fmt.Sprintf("%s %d not found", entity, id),
	}
}

// Persistence wraps a storage failure. The message never includes the cause.
func Persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Code: "persistence_fault", Msg: op + " failed", Err: err}
}

// KindOf returns the Kind of err, or KindPersistence for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
