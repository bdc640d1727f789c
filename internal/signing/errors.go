package signing

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a short machine-readable failure classification.
type Code string

const (
	CodeAlreadySigned                 Code = "ALREADY_SIGNED"
	CodeInvalidPlaceholder            Code = "INVALID_PLACEHOLDER"
	CodePlaceholderExpired            Code = "PLACEHOLDER_EXPIRED"
	CodeNoSignature                   Code = "NO_SIGNATURE"
	CodeSignatureRequestFailed        Code = "SIGNATURE_REQUEST_FAILED"
	CodeSerializationValidationFailed Code = "SERIALIZATION_VALIDATION_FAILED"
	CodeDEREncodingFailed             Code = "DER_ENCODING_FAILED"
)

// Error is a typed signing failure. Collaborator errors are wrapped into the
// nearest matching code rather than leaking raw.
type Error struct {
	Code    Code
	Message string

	// CustodyTxID and SubStatus carry remote diagnostics when the custody
	// service reported a terminal failure.
	CustodyTxID string
	SubStatus   string

	cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.CustodyTxID != "" {
		msg += fmt.Sprintf(" (custody tx %s, sub-status %q)", e.CustodyTxID, e.SubStatus)
	}
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

// IsCode reports whether err is (or wraps) a signing Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
