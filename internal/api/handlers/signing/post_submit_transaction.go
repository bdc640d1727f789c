package signing

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/httperrors"
	"github.com/kashguard/go-xrpl-custody/internal/dispatcher"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/types"
	"github.com/kashguard/go-xrpl-custody/internal/util"
)

func PostSubmitTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Accounts.POST("/:accountId/submit", postSubmitTransactionHandler(s))
}

// postSubmitTransactionHandler pushes a signed blob to the ledger and waits
// for the validation verdict.
func postSubmitTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromEchoContext(c)

		accountID := c.Param("accountId")
		if accountID == "" {
			return httperrors.ErrBadRequestMissingAccountID
		}

		var body types.PostSubmitTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		result, err := s.Dispatcher.Dispatch(ctx, dispatcher.OpSubmit, accountID, map[string]any{
			"tx_blob": body.TxBlob,
		})
		if err != nil {
			log.Error().Err(err).Str("account_id", accountID).Msg("Submit failed")
			return err
		}

		submitted, ok := result.(*ledger.SubmitResult)
		if !ok {
			return httperrors.ErrInternalUnexpectedResult
		}

		response := &types.SubmitTransactionResponse{
			Validated:    swag.Bool(submitted.Validated),
			Hash:         submitted.Hash,
			EngineResult: submitted.EngineResult,
			Meta:         submitted.Meta,
		}
		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
