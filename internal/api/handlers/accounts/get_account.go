package accounts

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/httperrors"
	"github.com/kashguard/go-xrpl-custody/internal/dispatcher"
	"github.com/kashguard/go-xrpl-custody/internal/types"
	"github.com/kashguard/go-xrpl-custody/internal/util"
)

func GetAccountRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Accounts.GET("/:accountId", getAccountHandler(s))
}

// getAccountHandler resolves (and pools) an account's handle and reports
// its ledger identity and connection state.
func getAccountHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromEchoContext(c)

		accountID := c.Param("accountId")
		if accountID == "" {
			return httperrors.ErrBadRequestMissingAccountID
		}

		result, err := s.Dispatcher.Dispatch(ctx, dispatcher.OpAccountInfo, accountID, nil)
		if err != nil {
			log.Error().Err(err).Str("account_id", accountID).Msg("Account lookup failed")
			return err
		}

		info, ok := result.(*dispatcher.AccountInfo)
		if !ok {
			return httperrors.ErrInternalUnexpectedResult
		}

		response := &types.AccountInfoResponse{
			AccountID: swag.String(info.AccountID),
			Address:   swag.String(info.Address),
			PublicKey: swag.String(info.PublicKey),
			Connected: info.Connected,
			Pending:   int64(info.Pending),
		}
		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
