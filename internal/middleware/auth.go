package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tours/internal/models"
	"tours/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Token claims issued and accepted by the gate.
const (
	TokenIssuer   = "tours-api"
	TokenAudience = "tours-client"
)

// UserIDLocal is the Fiber locals key holding the authenticated user ID.
const UserIDLocal = "userID"

const revokedKeyPrefix = "revoked:"

// ErrInvalidToken is returned when a bearer token cannot be accepted.
var ErrInvalidToken = errors.New("invalid or expired token")

// ErrTokenRevoked is returned when a token's ID is on the revocation list.
var ErrTokenRevoked = errors.New("token has been revoked")

// AccessGate authenticates bearer tokens and resolves the acting user.
type AccessGate struct {
	secret  []byte
	redis   *redis.Client
	metrics *observability.Metrics
}

// NewAccessGate creates a gate that verifies HS256 tokens signed with secret.
// The redis client is optional and only used for revocation lookups.
func NewAccessGate(secret string, rdb *redis.Client, metrics *observability.Metrics) *AccessGate {
	return &AccessGate{
		secret:  []byte(secret),
		redis:   rdb,
		metrics: metrics,
	}
}

// Required rejects requests without a valid bearer token.
func (g *AccessGate) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, ok := bearerToken(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := g.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, ErrTokenRevoked) {
				msg = "Token has been revoked"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(msg))
		}

		setUser(c, userID)
		return c.Next()
	}
}

// Optional resolves the user when a valid token is present and otherwise
// lets the request through anonymously.
func (g *AccessGate) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString, ok := bearerToken(c); ok {
			if userID, err := g.Authenticate(c.UserContext(), tokenString); err == nil {
				setUser(c, userID)
			}
		}
		return c.Next()
	}
}

// Authenticate verifies tokenString and returns the user ID in its subject.
func (g *AccessGate) Authenticate(ctx context.Context, tokenString string) (uint, error) {
	claims, err := parseClaims(g.secret, tokenString)
	if err != nil {
		return 0, err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, ErrInvalidToken
	}

	if claims.ID != "" && g.isRevoked(ctx, claims.ID) {
		return 0, ErrTokenRevoked
	}

	return uint(userID), nil
}

func parseClaims(secret []byte, tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// isRevoked fails open when Redis is unavailable.
func (g *AccessGate) isRevoked(ctx context.Context, jti string) bool {
	if g.redis == nil {
		return false
	}
	n, err := g.redis.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		g.metrics.RecordRedisError("revocation_check")
		observability.GlobalLogger.WarnContext(ctx, "token revocation check failed", "error", err)
		return false
	}
	return n > 0
}

// IssueToken signs a token for userID that the gate accepts until ttl elapses.
func IssueToken(secret string, userID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RevokeToken adds jti to the revocation list for ttl.
func RevokeToken(ctx context.Context, rdb *redis.Client, jti string, ttl time.Duration) error {
	if rdb == nil {
		return errors.New("redis client is not configured")
	}
	return rdb.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// RevokeSignedToken verifies tokenString and revokes its ID until the token
// would have expired anyway. It returns the revoked ID.
func RevokeSignedToken(ctx context.Context, rdb *redis.Client, secret, tokenString string) (string, error) {
	claims, err := parseClaims([]byte(secret), tokenString)
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", fmt.Errorf("token has no ID: %w", ErrInvalidToken)
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return "", ErrInvalidToken
	}
	if err := RevokeToken(ctx, rdb, claims.ID, ttl); err != nil {
		return "", err
	}
	return claims.ID, nil
}

// UserID returns the authenticated user ID stored by the gate.
func UserID(c *fiber.Ctx) (uint, bool) {
	uid, ok := c.Locals(UserIDLocal).(uint)
	return uid, ok && uid != 0
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *fiber.Ctx, userID uint) {
	c.Locals(UserIDLocal, userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(context.WithValue(c.UserContext(), observability.UserIDKey, userID))
}
