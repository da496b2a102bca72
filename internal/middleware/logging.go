// Package middleware provides the Fiber middleware shared by every route:
// request context propagation, structured logging, tracing, metrics, and
// the bearer-token access gate.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"tours/internal/observability"

	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware injects request ID and user ID from Fiber locals into the request context.
// This allows these values to be picked up by the context-aware logger even in deep service layers.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, observability.RequestIDKey, rid)
			ctx = observability.WithCorrelationID(ctx, rid)
		}

		if uid, ok := c.Locals(UserIDLocal).(uint); ok {
			ctx = context.WithValue(ctx, observability.UserIDKey, uid)
		}

		if tid, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, observability.TraceIDKey, tid)
		}

		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger returns a Fiber middleware for logging requests using slog
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		fields := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
			slog.String("user_agent", c.Get("User-Agent")),
		}

		// InfoContext/ErrorContext let the ctx handler pick up request and user IDs.
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.GlobalLogger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.GlobalLogger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}
