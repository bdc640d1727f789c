package router

import (
	"net/http"
	"time"

	echoprometheus "github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-xrpl-custody/internal/api"
	"github.com/kashguard/go-xrpl-custody/internal/api/handlers"
	"github.com/kashguard/go-xrpl-custody/internal/api/httperrors"
)

// Init builds the echo instance, middleware stack and route groups, then
// attaches all handler routes.
func Init(s *api.Server) {
	s.Echo = echo.New()
	s.Echo.Debug = false
	s.Echo.HideBanner = true
	s.Echo.HTTPErrorHandler = errorHandler(s)

	if s.Config.Echo.EnableRecoverMiddleware {
		s.Echo.Use(middleware.Recover())
	}
	if s.Config.Echo.EnableRequestLoggerMiddleware {
		s.Echo.Use(requestLogger())
	}
	if s.Config.Echo.EnablePrometheusMiddleware {
		s.Echo.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Registerer: s.Registry,
			Subsystem:  "http",
		}))
	}

	s.Router = &api.Router{
		Management:    s.Echo.Group("/-"),
		APIV1Accounts: s.Echo.Group("/api/v1/accounts"),
		APIV1Pool:     s.Echo.Group("/api/v1/pool"),
	}

	s.Echo.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.Registry,
	}))

	s.Router.Management.GET("/healthy", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	s.Router.Management.GET("/ready", func(c echo.Context) error {
		if !s.Ready() {
			return c.String(http.StatusServiceUnavailable, "Not ready")
		}
		return c.String(http.StatusOK, "Ready")
	})

	s.Router.Routes = handlers.AttachAllRoutes(s)
}

// requestLogger emits one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error()
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency.Round(time.Microsecond)).
				Err(v.Error).
				Msg("Handled request")
			return nil
		},
	})
}

// errorHandler renders every error as a PublicHTTPError payload. Typed
// signing and pool errors keep their machine codes; internals are hidden
// when configured.
func errorHandler(s *api.Server) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var httpErr *httperrors.HTTPError
		switch e := err.(type) {
		case *httperrors.HTTPError:
			httpErr = e
		case *echo.HTTPError:
			title := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok {
				title = msg
			}
			httpErr = httperrors.NewHTTPErrorWithInternal(e.Code, "generic", title, e.Internal)
		default:
			httpErr = httperrors.FromTypedError(err)
		}

		if httpErr.Code >= http.StatusInternalServerError && s.Config.Echo.HideInternalServerErrorDetails {
			httpErr.Title = http.StatusText(httpErr.Code)
		}
		if httpErr.Internal != nil {
			log.Debug().Err(httpErr.Internal).Int("status", httpErr.Code).Msg("Request failed")
		}

		if writeErr := c.JSON(httpErr.Code, httpErr.Payload()); writeErr != nil {
			log.Error().Err(writeErr).Msg("Failed to write error response")
		}
	}
}
