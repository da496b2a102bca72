// Package server contains the HTTP handlers and wiring for the tours API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "tours/docs" // swagger docs
	"tours/internal/config"
	"tours/internal/database"
	"tours/internal/middleware"
	"tours/internal/models"
	"tours/internal/notifications"
	"tours/internal/observability"
	"tours/internal/redisclient"
	"tours/internal/repository"
	"tours/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	registry          *prometheus.Registry
	metrics           *observability.Metrics
	promMiddleware    *fiberprometheus.FiberPrometheus
	gate              *middleware.AccessGate
	notifier          *notifications.Notifier
	postRepo          repository.PostRepository
	commentRepo       repository.CommentRepository
	postService       *service.PostService
	engagementService *service.EngagementService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis is optional: events, revocation, and its readiness check are
	// skipped without it.
	redisClient := redisclient.Connect(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	redisclient.Instrument(redisClient, metrics)

	postRepo := repository.NewPostRepository(db, repository.WithMetrics(metrics))
	commentRepo := repository.NewCommentRepository(db, repository.WithMetrics(metrics))

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		registry:       registry,
		metrics:        metrics,
		promMiddleware: middleware.InitMetrics(registry),
		gate:           middleware.NewAccessGate(cfg.JWTSecret, redisClient, metrics),
		notifier:       notifications.NewNotifier(redisClient),
		postRepo:       postRepo,
		commentRepo:    commentRepo,
	}
	server.postService = service.NewPostService(postRepo, service.PostSettings{
		EditPolicy:       cfg.PostEditPolicy,
		DefaultPageLimit: cfg.DefaultPageLimit,
		Metrics:          metrics,
	})
	server.engagementService = service.NewEngagementService(postRepo, commentRepo, metrics)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	app.Get("/metrics", middleware.MetricsHandler(s.registry))
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Tours API Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	listGate := s.gate.Optional()
	if s.config.RequireAuthForList {
		listGate = s.gate.Required()
	}

	tours := api.Group("/tours")
	tours.Get("/", listGate, s.ListTours)
	tours.Post("/", s.gate.Required(), s.CreateTour)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	tours.Get("/:id/edit", s.gate.Required(), s.GetTourForEdit)
	tours.Get("/:id/comments", s.gate.Optional(), s.GetComments)
	tours.Post("/:id/comments", s.gate.Required(), s.CreateComment)
	tours.Post("/:id/like", s.gate.Required(), s.LikeTour)
	tours.Get("/:id", s.gate.Optional(), s.GetTour)
	tours.Put("/:id", s.gate.Required(), s.UpdateTour)
	tours.Delete("/:id", s.gate.Required(), s.DeleteTour)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Only the database gates
// readiness; Redis is reported but optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": observability.ServiceName,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App returns the Fiber app, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Tours API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			observability.GlobalLogger.ErrorContext(c.UserContext(), "Unhandled error",
				slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	observability.GlobalLogger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.GlobalLogger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := database.Close(s.db); err != nil {
		observability.GlobalLogger.Error("error closing sql DB", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.GlobalLogger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	observability.GlobalLogger.Info("Server shutdown complete")
	return nil
}
