package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/handlers/accounts"
	"github.com/kashguard/go-xrpl-custody/internal/api/handlers/poolinfo"
	"github.com/kashguard/go-xrpl-custody/internal/api/handlers/signing"
)

// AttachAllRoutes registers every handler route on the server's groups.
func AttachAllRoutes(s *api.Server) []*echo.Route {
	return []*echo.Route{
		accounts.GetAccountRoute(s),
		signing.PostSignTransactionRoute(s),
		signing.PostSubmitTransactionRoute(s),
		poolinfo.GetPoolMetricsRoute(s),
	}
}
