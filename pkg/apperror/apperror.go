// Package apperror carries typed failure codes from the store up to the
// transports, so REST and websocket can map them without string matching.
package apperror

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeValidation        Code = "VALIDATION"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeConflict          Code = "CONFLICT"
	CodeInternal          Code = "INTERNAL"
	CodeRateLimited       Code = "RATE_LIMITED"
)

var (
	ErrNotFound = New(CodeNotFound, "record not found")
	ErrConflict = New(CodeConflict, "concurrent modification")
)

type Error struct {
	Code    Code
	Message string
	Err     error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code so that wrapped sentinels compare equal to fresh errors
// of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NotFound(format string, args ...any) *Error {
	return Wrap(CodeNotFound, fmt.Sprintf(format, args...), nil)
}

func Validation(format string, args ...any) *Error {
	return Wrap(CodeValidation, fmt.Sprintf(format, args...), nil)
}

func InvalidTransition(format string, args ...any) *Error {
	return Wrap(CodeInvalidTransition, fmt.Sprintf(format, args...), nil)
}

func Conflict(format string, args ...any) *Error {
	return Wrap(CodeConflict, fmt.Sprintf(format, args...), nil)
}

func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
