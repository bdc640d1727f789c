package types

import (
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// Public error type discriminators.
const (
	PublicHTTPErrorTypeGeneric = "generic"
)

// PublicHTTPError is the wire shape of every error response.
type PublicHTTPError struct {
	Code  *int64  `json:"code"`
	Type  *string `json:"type"`
	Title *string `json:"title"`

	// Detail carries the machine-readable failure code of typed signing
	// and pool errors, when one exists.
	Detail string `json:"detail,omitempty"`
}

func (e *PublicHTTPError) Validate(_ strfmt.Registry) error {
	return nil
}

// NewPublicHTTPError builds the wire error payload.
func NewPublicHTTPError(code int, errType, title string) *PublicHTTPError {
	return &PublicHTTPError{
		Code:  swag.Int64(int64(code)),
		Type:  swag.String(errType),
		Title: swag.String(title),
	}
}
