// Command server is the entry point for the tours API server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tours/internal/config"
	"tours/internal/observability"
	"tours/internal/server"
)

// @title Tours API
// @version 1.0
// @description Community board for travel write-ups: listing, search, views, comments and likes

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8375
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.SetGlobalLogger(observability.NewLogger(cfg.Env))
	logger := observability.GlobalLogger

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    observability.ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		logger.Error("Failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Error("Failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("Tracer shutdown error", slog.String("error", err.Error()))
		}
	}()

	if err := srv.Start(); err != nil {
		logger.Error("Server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
