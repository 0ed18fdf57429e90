package errorx

import (
	"errors"
	"fmt"
)

type Error struct {
	Code    Code
	Message string

	cause error
	quiet bool // cause is already part of Message
}

// New creates an error with the given code. If the last argument is an error it becomes the
// cause and stays reachable through errors.Is and errors.As.
func New(code Code, format string, a ...any) Error {
	e := Error{Code: code, Message: fmt.Sprintf(format, a...)}
	if len(a) > 0 {
		if cause, ok := a[len(a)-1].(error); ok {
			e.cause = cause
			e.quiet = true
		}
	}

	return e
}

// Wrap attaches a cause to a predefined error, keeping its code and message.
func Wrap(base Error, cause error) Error {
	base.cause = cause
	return base
}

func (e Error) Error() string {
	if e.cause != nil && !e.quiet {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}

	return e.Message
}

// ErrorCode exposes the code to json-rpc clients.
func (e Error) ErrorCode() int {
	return int(e.Code)
}

func (e Error) Unwrap() error {
	return e.cause
}

// Is matches any errorx.Error with the same code.
func (e Error) Is(target error) bool {
	var t Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Code == e.Code
}

// CodeOf returns the code of the first errorx.Error in err's chain, or Unknown's code.
func CodeOf(err error) Code {
	var e Error
	if errors.As(err, &e) {
		return e.Code
	}

	return Unknown.Code
}
