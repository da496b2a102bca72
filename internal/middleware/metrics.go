package middleware

import (
	"tours/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitMetrics builds the HTTP request metrics middleware on reg.
func InitMetrics(reg *prometheus.Registry) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.NewWithRegistry(reg, observability.ServiceName, "tours", "http", nil)
}

// MetricsMiddleware returns the request instrumentation handler.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}

// MetricsHandler serves the collectors registered on reg in the Prometheus
// text format.
func MetricsHandler(reg *prometheus.Registry) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}
