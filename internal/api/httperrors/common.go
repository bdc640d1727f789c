package httperrors

import (
	"net/http"

	"github.com/kashguard/go-xrpl-custody/internal/types"
)

var (
	ErrBadRequestMissingAccountID = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "accountId is required.")
	ErrInternalUnexpectedResult   = NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Operation returned an unexpected result.")
)
