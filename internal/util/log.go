package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// LogFromContext returns the request-scoped logger stored in ctx, falling
// back to the global logger.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// LogFromEchoContext returns the request-scoped logger of an echo request.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}
