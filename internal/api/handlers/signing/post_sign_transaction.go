package signing

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/httperrors"
	"github.com/kashguard/go-xrpl-custody/internal/dispatcher"
	"github.com/kashguard/go-xrpl-custody/internal/ledger"
	"github.com/kashguard/go-xrpl-custody/internal/signing"
	"github.com/kashguard/go-xrpl-custody/internal/types"
	"github.com/kashguard/go-xrpl-custody/internal/util"
)

func PostSignTransactionRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Accounts.POST("/:accountId/sign", postSignTransactionHandler(s))
}

// postSignTransactionHandler runs the full remote signing flow for one
// account: optional autofill, then prepare/complete through the dispatcher.
func postSignTransactionHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromEchoContext(c)

		accountID := c.Param("accountId")
		if accountID == "" {
			return httperrors.ErrBadRequestMissingAccountID
		}

		var body types.PostSignTransactionPayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		tx := body.Transaction
		if body.Autofill {
			result, err := s.Dispatcher.Dispatch(ctx, dispatcher.OpAutofill, accountID, map[string]any{
				"transaction": tx,
			})
			if err != nil {
				log.Error().Err(err).Str("account_id", accountID).Msg("Autofill failed")
				return err
			}
			filled, ok := result.(ledger.Transaction)
			if !ok {
				return httperrors.ErrInternalUnexpectedResult
			}
			tx = filled
		}

		result, err := s.Dispatcher.Dispatch(ctx, dispatcher.OpSign, accountID, map[string]any{
			"transaction": map[string]any(tx),
			"note":        body.Note,
			"multisign":   body.Multisign,
		})
		if err != nil {
			log.Error().Err(err).Str("account_id", accountID).Msg("Signing failed")
			return err
		}

		signed, ok := result.(*signing.SignedTransaction)
		if !ok {
			return httperrors.ErrInternalUnexpectedResult
		}

		response := &types.SignTransactionResponse{
			TxBlob: swag.String(signed.TxBlob),
			Hash:   swag.String(signed.Hash),
		}
		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
