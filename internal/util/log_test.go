package util_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-xrpl-custody/internal/util"
)

func TestLogFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	ctx := logger.WithContext(context.Background())

	util.LogFromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}

func TestLogFromEchoContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	req := httptest.NewRequest(echo.GET, "/", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	c := e.NewContext(req, httptest.NewRecorder())

	util.LogFromEchoContext(c).Info().Str("key", "value").Msg("scoped")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "scoped")
	assert.Contains(t, out, `"key":"value"`)
}
