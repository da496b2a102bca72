package server

import (
	"bytes"
	"errors"
	"net/http"
	"testing"

	"tours/internal/config"
	"tours/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenID reads the jti of a token without verifying it.
func tokenID(t *testing.T, tok string) string {
	t.Helper()
	claims := &jwt.RegisteredClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)
	return claims.ID
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(&config.Config{}, nil, nil)
	assert.Error(t, err)
}

func TestHealthProbes(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(raw), `"up"`)

	status, raw = env.do(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, status, string(raw))
	body := decode[map[string]any](t, raw)
	assert.Equal(t, "healthy", body["status"])

	env.redis.Close()
	status, raw = env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	body = decode[map[string]any](t, raw)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"])
}

func TestReadiness_DatabaseDown(t *testing.T) {
	env := newTestEnv(t, nil)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	status, _ := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestReadiness_WithoutRedis(t *testing.T) {
	env := newTestEnv(t, nil)
	srv, err := NewServerWithDeps(env.srv.config, env.db, nil)
	require.NoError(t, err)

	resp, err := srv.App().Test(httpRequest(http.MethodGet, "/health/ready"), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	tour := env.seedTour(t, env.alice, "Counted", baseTime)
	env.do(t, http.MethodGet, "/api/tours/"+itoa(tour.ID), nil, "")
	env.do(t, http.MethodGet, "/api/tours?term=count", nil, "")

	status, raw := env.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, status)
	text := string(raw)
	assert.Contains(t, text, `tours_engagement_events_total{kind="view"} 1`)
	assert.Contains(t, text, `tours_search_queries_total{mode="search"} 1`)
	assert.Contains(t, text, "tours_database_query_latency_seconds")
	assert.Contains(t, text, "tours_http_requests_total")
}

func TestUnknownRouteKeepsStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	status, _ := env.do(t, http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.NewNotFoundError("Tour", 1), fiber.StatusNotFound},
		{models.NewValidationError("bad"), fiber.StatusBadRequest},
		{models.NewStoreUnavailableError(errors.New("down")), fiber.StatusServiceUnavailable},
		{models.NewUnauthorizedError("no"), fiber.StatusUnauthorized},
		{models.NewForbiddenError("no"), fiber.StatusForbidden},
		{errors.New("plain"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestStoreUnavailableHidesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondWithAppError(c, models.NewStoreUnavailableError(errors.New("dial tcp 10.0.0.1:5432")))
	})

	resp, err := app.Test(httpRequest(http.MethodGet, "/"), -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "10.0.0.1")
	assert.Contains(t, buf.String(), models.CodeStoreUnavailable)
}
