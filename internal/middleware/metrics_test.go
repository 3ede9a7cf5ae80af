package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"clinicore/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	metrics.Init("clinicore_middleware_test")
	os.Exit(m.Run())
}

func TestMetricsMiddleware_RecordsSuccessStatus(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/ok", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/ok", "200"))
	assert.Equal(t, float64(1), count)
}

func TestMetricsMiddleware_RecordsErrorStatus(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/missing/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/missing/42", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/missing/:id", "404"))
	assert.Equal(t, float64(1), count)
	zero := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/missing/:id", "200"))
	assert.Equal(t, float64(0), zero)
}

func TestMetricsMiddleware_PlainErrorCountsAsServerError(t *testing.T) {
	e := echo.New()
	e.Use(MetricsMiddleware)
	e.GET("/boom", func(c echo.Context) error {
		return assert.AnError
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/boom", "500"))
	assert.Equal(t, float64(1), count)
}
