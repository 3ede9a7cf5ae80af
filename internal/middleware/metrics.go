package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"clinicore/internal/metrics"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request counts and latencies for Prometheus.
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)

		duration := time.Since(start).Seconds()
		method := c.Request().Method
		path := c.Path()

		// Errors have not passed through echo's error handler yet, so the
		// response status still reads 200 here; take the status from the
		// error itself.
		status := c.Response().Status
		if err != nil {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				status = httpErr.Code
			} else {
				status = http.StatusInternalServerError
			}
		}
		code := strconv.Itoa(status)

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, code).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path, code).Observe(duration)

		return err
	}
}
