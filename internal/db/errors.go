package db

import (
	"errors"
	"fmt"
)

// Kind sentinels. Callers match with errors.Is; the concrete *Error carries
// the message and an optional wrapped cause.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrConfiguration = errors.New("configuration")
)

// Error is a classified database error with an optional cause.
type Error struct {
	Kind    error // one of the sentinels above
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches on the kind, so errors.Is(err, ErrNotFound) works regardless
// of message or cause.
func (e *Error) Is(target error) bool { return target == e.Kind }

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func configError(msg string) error {
	return &Error{Kind: ErrConfiguration, Message: msg}
}
