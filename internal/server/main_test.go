package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"tours/internal/config"
	"tours/internal/database"
	"tours/internal/middleware"
	"tours/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-for-tours-handlers-0123456789"

type testEnv struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	redis *miniredis.Miniredis
	alice *models.User
	bob   *models.User
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	db, err := database.OpenInMemory()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:      testSecret,
		Env:            "test",
		PostEditPolicy: config.EditPolicyAny,
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = rdb.Close()
		_ = database.Close(db)
	})

	alice := &models.User{Username: "alice", Email: "alice@example.com", Password: "x"}
	bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	return &testEnv{srv: srv, app: srv.App(), db: db, redis: mr, alice: alice, bob: bob}
}

func (e *testEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	tok, err := middleware.IssueToken(testSecret, user.ID, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends a request with an optional JSON body and bearer token and
// returns the status and raw body.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (int, []byte) {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) seedTour(t *testing.T, author *models.User, title string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:       author.ID,
		Title:        title,
		Content:      "body of " + title,
		Destinations: models.StringSlice{"Seoul"},
		Course:       "course",
		Cost:         "100",
		CreatedAt:    at,
	}
	require.NoError(t, e.db.Omit("Author").Create(p).Error)
	return p
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func httpRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
