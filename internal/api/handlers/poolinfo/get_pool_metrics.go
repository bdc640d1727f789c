package poolinfo

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/types"
	"github.com/kashguard/go-xrpl-custody/internal/util"
)

func GetPoolMetricsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Pool.GET("/metrics", getPoolMetricsHandler(s))
}

func getPoolMetricsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		snap := s.Pool.Metrics()

		response := &types.PoolMetricsResponse{
			Total:           swag.Int64(int64(snap.Total)),
			InUse:           swag.Int64(int64(snap.InUse)),
			Idle:            swag.Int64(int64(snap.Idle)),
			InUsePerAccount: snap.InUsePerAccount,
		}
		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
