package util

import (
	"encoding/json"
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/labstack/echo/v4"
)

// Validatable is implemented by payload types that can validate themselves
// against the strfmt registry.
type Validatable interface {
	Validate(strfmt.Registry) error
}

// BindAndValidateBody decodes the JSON request body into v and validates it.
// Failures map to 400.
func BindAndValidateBody(c echo.Context, v Validatable) error {
	req := c.Request()
	if req.Body == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is required")
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is not valid JSON").SetInternal(err)
	}
	if err := v.Validate(strfmt.Default); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}

// ValidateAndReturn validates a response payload before writing it, so a
// malformed response is a server error instead of silent bad output.
func ValidateAndReturn(c echo.Context, code int, v Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "response payload validation failed").SetInternal(err)
	}
	return c.JSON(code, v)
}
