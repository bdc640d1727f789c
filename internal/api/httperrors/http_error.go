package httperrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/kashguard/go-xrpl-custody/internal/pool"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
	"github.com/kashguard/go-xrpl-custody/internal/types"
)

// HTTPError is the error type handlers return; the central error handler
// renders it as a types.PublicHTTPError.
type HTTPError struct {
	Code     int
	Type     string
	Title    string
	Detail   string
	Internal error
}

func NewHTTPError(code int, errType, title string) *HTTPError {
	return &HTTPError{Code: code, Type: errType, Title: title}
}

func NewHTTPErrorWithInternal(code int, errType, title string, internal error) *HTTPError {
	return &HTTPError{Code: code, Type: errType, Title: title, Internal: internal}
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("HTTPError %d (%s): %s", e.Code, e.Type, e.Title)
	if e.Internal != nil {
		msg += ", " + e.Internal.Error()
	}
	return msg
}

func (e *HTTPError) Unwrap() error {
	return e.Internal
}

// Payload converts the error to its wire shape.
func (e *HTTPError) Payload() *types.PublicHTTPError {
	p := types.NewPublicHTTPError(e.Code, e.Type, e.Title)
	p.Detail = e.Detail
	return p
}

// statusForSigningCode maps the signing error taxonomy onto HTTP statuses.
func statusForSigningCode(code signing.Code) int {
	switch code {
	case signing.CodeAlreadySigned:
		return http.StatusConflict
	case signing.CodeInvalidPlaceholder:
		return http.StatusBadRequest
	case signing.CodePlaceholderExpired:
		return http.StatusGone
	case signing.CodeNoSignature, signing.CodeSignatureRequestFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromTypedError maps typed signing and pool errors to HTTP errors carrying
// the machine code; anything else becomes an opaque 500.
func FromTypedError(err error) *HTTPError {
	var sigErr *signing.Error
	if errors.As(err, &sigErr) {
		return &HTTPError{
			Code:     statusForSigningCode(sigErr.Code),
			Type:     types.PublicHTTPErrorTypeGeneric,
			Title:    sigErr.Message,
			Detail:   string(sigErr.Code),
			Internal: err,
		}
	}

	var poolErr *pool.Error
	if errors.As(err, &poolErr) {
		code := http.StatusBadGateway
		if poolErr.Code == pool.CodeCapacityExceeded {
			code = http.StatusServiceUnavailable
		}
		return &HTTPError{
			Code:     code,
			Type:     types.PublicHTTPErrorTypeGeneric,
			Title:    poolErr.Message,
			Detail:   string(poolErr.Code),
			Internal: err,
		}
	}

	return &HTTPError{
		Code:     http.StatusInternalServerError,
		Type:     types.PublicHTTPErrorTypeGeneric,
		Title:    "Internal server error",
		Internal: err,
	}
}
