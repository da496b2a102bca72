// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"tours/internal/models"
	"tours/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	metrics *observability.Metrics
}

// WithMetrics records query latency on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// translateError maps driver and GORM errors onto AppError codes. Missing
// rows become NOT_FOUND, integrity and data violations become VALIDATION_ERROR,
// everything else is STORE_UNAVAILABLE.
func translateError(err error, resource string, id any) error {
	if err == nil {
		return nil
	}

	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505":
			return &models.AppError{Code: models.CodeValidation, Message: resource + " already exists", Err: err}
		case strings.HasPrefix(pgErr.Code, "23"), strings.HasPrefix(pgErr.Code, "22"):
			return &models.AppError{Code: models.CodeValidation, Message: "Invalid " + strings.ToLower(resource) + " data", Err: err}
		}
	}

	return models.NewStoreUnavailableError(err)
}

// escapeLike escapes LIKE wildcards so the term matches literally.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}
