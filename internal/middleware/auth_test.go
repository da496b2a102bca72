package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func newGateApp(gate *AccessGate, handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/test", handler, func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"userID": userID, "authenticated": ok})
	})
	return app
}

func signClaims(t *testing.T, secret string, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAccessGate_Required(t *testing.T) {
	gate := NewAccessGate(testSecret, nil, nil)
	app := newGateApp(gate, gate.Required())

	valid, err := IssueToken(testSecret, 123, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken(testSecret, 123, -time.Hour)
	require.NoError(t, err)
	wrongSecret, err := IssueToken("another-secret-another-secret-1234", 123, time.Hour)
	require.NoError(t, err)

	wrongIssuer := signClaims(t, testSecret, jwt.RegisteredClaims{
		Subject:   "123",
		Issuer:    "someone-else",
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noExpiry := signClaims(t, testSecret, jwt.RegisteredClaims{
		Subject:  "123",
		Issuer:   TokenIssuer,
		Audience: jwt.ClaimStrings{TokenAudience},
	})
	badSubject := signClaims(t, testSecret, jwt.RegisteredClaims{
		Subject:   "abc",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedUserID uint
	}{
		{"Happy Path", "Bearer " + valid, http.StatusOK, 123},
		{"Missing Header", "", http.StatusUnauthorized, 0},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, 0},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized, 0},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, 0},
		{"Wrong Secret", "Bearer " + wrongSecret, http.StatusUnauthorized, 0},
		{"Wrong Issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized, 0},
		{"Missing Expiry", "Bearer " + noExpiry, http.StatusUnauthorized, 0},
		{"Non-numeric Subject", "Bearer " + badSubject, http.StatusUnauthorized, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(tt.expectedUserID), body["userID"])
			}
		})
	}
}

func TestAccessGate_Optional(t *testing.T) {
	gate := NewAccessGate(testSecret, nil, nil)
	app := newGateApp(gate, gate.Optional())

	valid, err := IssueToken(testSecret, 7, time.Hour)
	require.NoError(t, err)

	for _, tc := range []struct {
		name   string
		header string
		authed bool
	}{
		{"anonymous", "", false},
		{"invalid token passes through", "Bearer nope", false},
		{"valid token resolves user", "Bearer " + valid, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.authed, body["authenticated"])
		})
	}
}

func TestAccessGate_Revocation(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	gate := NewAccessGate(testSecret, rdb, nil)

	token, err := IssueToken(testSecret, 9, time.Hour)
	require.NoError(t, err)

	userID, err := gate.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), userID)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	require.NoError(t, RevokeToken(context.Background(), rdb, claims.ID, time.Hour))

	_, err = gate.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Redis outage fails open.
	mr.Close()
	userID, err = gate.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), userID)
}

func TestRevokeSignedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	gate := NewAccessGate(testSecret, rdb, nil)

	token, err := IssueToken(testSecret, 4, 30*time.Minute)
	require.NoError(t, err)

	jti, err := RevokeSignedToken(context.Background(), rdb, testSecret, token)
	require.NoError(t, err)
	assert.True(t, mr.Exists(revokedKeyPrefix+jti))
	ttl := mr.TTL(revokedKeyPrefix + jti)
	assert.True(t, ttl > 0 && ttl <= 30*time.Minute, "ttl %s", ttl)

	_, err = gate.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = RevokeSignedToken(context.Background(), rdb, "another-secret-another-secret-1234", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = RevokeSignedToken(context.Background(), nil, testSecret, token)
	assert.Error(t, err)
}

func TestIssueToken_Subject(t *testing.T) {
	token, err := IssueToken(testSecret, 55, time.Minute)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(55), claims.Subject)
	assert.Equal(t, TokenIssuer, claims.Issuer)
}
