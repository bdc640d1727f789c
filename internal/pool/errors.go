package pool

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a short machine-readable pool failure classification.
type Code string

const (
	CodeCapacityExceeded  Code = "POOL_CAPACITY_EXCEEDED"
	CodeSdkCreationFailed Code = "SDK_CREATION_FAILED"
)

// Error is a typed pool failure.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapError(cause error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// IsCode reports whether err is (or wraps) a pool Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
