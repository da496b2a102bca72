// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	RequestIDKey  LogContextKey = "request_id"
	UserIDKey     LogContextKey = "user_id"
	TraceIDKey    LogContextKey = "trace_id"
	CorrelationID LogContextKey = "correlation_id"
)

// ctxHandler is a slog.Handler that adds context values to the log record.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if rid, ok := ctx.Value(RequestIDKey).(string); ok {
		r.AddAttrs(slog.String("request_id", rid))
	}
	if uid, ok := ctx.Value(UserIDKey).(uint); ok {
		r.AddAttrs(slog.Any("user_id", uid))
	}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", tid))
	}
	return h.Handler.Handle(ctx, r)
}

// WithAttrs keeps the context handler in the chain for derived loggers.
func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

// WithGroup keeps the context handler in the chain for grouped loggers.
func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}

func init() {
	GlobalLogger = NewLogger(os.Getenv("APP_ENV"))
}

// NewLogger builds a context-aware logger. Production uses JSON output, every
// other environment uses text.
func NewLogger(env string) *Logger {
	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return &Logger{Logger: slog.New(&ctxHandler{handler})}
}

// SetGlobalLogger replaces the logger used by package helpers.
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// ExtractRequestID returns the request ID from the context if set.
func ExtractRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// RepoLogger provides structured logging for repository operations.
type RepoLogger struct {
	tableName string
	logger    *Logger
}

// NewRepoLogger creates a new RepoLogger for the given table.
func NewRepoLogger(tableName string) *RepoLogger {
	return &RepoLogger{
		tableName: tableName,
		logger:    GlobalLogger,
	}
}

func (l *RepoLogger) attrs(ctx context.Context, operation string, fields map[string]any) []any {
	attrs := []any{
		slog.String("table", l.tableName),
		slog.String("operation", operation),
	}
	if cid := ExtractCorrelationID(ctx); cid != "" {
		attrs = append(attrs, slog.String("correlation_id", cid))
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// LogCreate logs a repository create operation.
func (l *RepoLogger) LogCreate(ctx context.Context, fields map[string]any) {
	l.logger.InfoContext(ctx, "repository create", l.attrs(ctx, "create", fields)...)
}

// LogRead logs a repository read operation at debug level.
func (l *RepoLogger) LogRead(ctx context.Context, fields map[string]any) {
	l.logger.DebugContext(ctx, "repository read", l.attrs(ctx, "read", fields)...)
}

// LogUpdate logs a repository update operation.
func (l *RepoLogger) LogUpdate(ctx context.Context, fields map[string]any) {
	l.logger.InfoContext(ctx, "repository update", l.attrs(ctx, "update", fields)...)
}

// LogDelete logs a repository delete operation.
func (l *RepoLogger) LogDelete(ctx context.Context, fields map[string]any) {
	l.logger.InfoContext(ctx, "repository delete", l.attrs(ctx, "delete", fields)...)
}

// LogError logs a failed repository operation.
func (l *RepoLogger) LogError(ctx context.Context, operation string, err error, fields map[string]any) {
	attrs := l.attrs(ctx, operation, fields)
	attrs = append(attrs, slog.String("error", err.Error()))
	l.logger.ErrorContext(ctx, "repository error", attrs...)
}
