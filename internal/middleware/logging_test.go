package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tours/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMiddleware_PropagatesRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(requestid.New())
	app.Use(ContextMiddleware())
	app.Use(StructuredLogger())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(observability.ExtractRequestID(c.UserContext()) + "|" +
			observability.ExtractCorrelationID(c.UserContext()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderXRequestID, "rid-123")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "rid-123|rid-123", string(body))
}

func TestTracingMiddleware_SetsTraceHeader(t *testing.T) {
	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
}

func TestMetricsHandler_ExposesRequestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom := InitMetrics(reg)

	app := fiber.New()
	app.Use(MetricsMiddleware(prom))
	app.Get("/metrics", MetricsHandler(reg))
	app.Get("/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// A second registry must not collide with the first.
	assert.NotPanics(t, func() { InitMetrics(prometheus.NewRegistry()) })
}
