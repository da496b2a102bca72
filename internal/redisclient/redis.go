// Package redisclient connects to Redis and instruments the client.
package redisclient

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tours/internal/observability"

	"github.com/redis/go-redis/v9"
)

type metricsHook struct {
	metrics *observability.Metrics
}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.metrics.RecordRedisError(cmd.Name())
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			h.metrics.RecordRedisError("pipeline")
		}
		return err
	}
}

// Options parses addr, which is either a redis:// URL or a host:port pair.
func Options(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect dials Redis at addr and pings it. Redis is optional for this
// service, so an unreachable server yields a nil client and a logged warning.
func Connect(addr string) *redis.Client {
	opts, err := Options(addr)
	if err != nil {
		observability.GlobalLogger.Warn("Redis connection warning: invalid REDIS_URL (continuing without Redis)",
			slog.String("addr", addr), slog.String("error", err.Error()))
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		observability.GlobalLogger.Warn("Redis connection warning (continuing without Redis)",
			slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}

	observability.GlobalLogger.Info("Redis connected successfully")
	return client
}

// Instrument counts failed commands on client in metrics.
func Instrument(client *redis.Client, metrics *observability.Metrics) {
	if client == nil || metrics == nil {
		return
	}
	client.AddHook(metricsHook{metrics: metrics})
}
