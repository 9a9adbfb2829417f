package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, e *echo.Echo, ip string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimiter(1, 3).Middleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doRequest(t, e, "10.0.0.1"))
	}
	assert.Equal(t, http.StatusTooManyRequests, doRequest(t, e, "10.0.0.1"))
}

func TestRateLimiterIsPerIP(t *testing.T) {
	e := echo.New()
	e.Use(NewRateLimiter(1, 1).Middleware())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	require.Equal(t, http.StatusOK, doRequest(t, e, "10.0.0.1"))
	require.Equal(t, http.StatusTooManyRequests, doRequest(t, e, "10.0.0.1"))

	// A different client is unaffected
	assert.Equal(t, http.StatusOK, doRequest(t, e, "10.0.0.2"))
}
