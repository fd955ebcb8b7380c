package loggingmw

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/quota_portal/internal/logging"
)

func serve(t *testing.T, h echo.HandlerFunc) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(logging.NewWithWriter(&buf, "info")))
	e.GET("/things/:id", h)

	req := httptest.NewRequest(http.MethodGet, "/things/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	return line, rec
}

func TestRequestLogger_Success(t *testing.T) {
	line, rec := serve(t, func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Debug("inside")
		return c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "/things/:id", line["path"])
	assert.Equal(t, "/things/7", line["url"])
	assert.Equal(t, "rid-1", line["request_id"])
	assert.EqualValues(t, 200, line["status"])
}

func TestRequestLogger_ClientError(t *testing.T) {
	line, rec := serve(t, func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "missing")
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ERROR", line["level"])
	assert.EqualValues(t, 404, line["status"])
}

func TestRequestLogger_ServerError(t *testing.T) {
	line, rec := serve(t, func(c echo.Context) error {
		return errors.New("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "boom", line["error"])
}
