package loggingmw

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shophub/storefront/pkg/logging"
)

func TestRequestLogger_LogsStatusAndInjectsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "info")

	e := echo.New()
	e.Use(RequestLogger(base))
	e.GET("/ping", func(c echo.Context) error {
		logging.FromContext(c.Request().Context()).Info("inside_handler")
		c.Set("user_id", int64(11))
		return echo.NewHTTPError(http.StatusConflict, "busy")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var inside, done map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &inside))
	require.NoError(t, json.Unmarshal(lines[1], &done))

	assert.Equal(t, "inside_handler", inside["msg"])
	assert.Equal(t, "rid-1", inside["request_id"])

	assert.Equal(t, "request completed", done["msg"])
	assert.Equal(t, "WARN", done["level"])
	assert.EqualValues(t, http.StatusConflict, done["status"])
	assert.EqualValues(t, 11, done["user_id"])
}
