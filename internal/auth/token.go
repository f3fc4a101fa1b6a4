package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yukikurage/task-tracker/internal/models"
)

// ErrMissingSecret is returned by NewManager when no signing secret is supplied.
var ErrMissingSecret = errors.New("auth: signing secret is required")

// Claims carry identity only. Authorization decisions use the user row
// re-fetched from the store, never these values.
type Claims struct {
	jwt.RegisteredClaims

	UserID   uint64      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}

	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

// TTL is the validity window of issued tokens.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for user valid from now until now+TTL.
func (m *Manager) Issue(user *models.User, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry as of now.
func (m *Manager) Verify(tokenString string, now time.Time) (*Claims, error) {
	var claims Claims

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	if _, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return nil, err
	}

	if claims.UserID == 0 {
		return nil, errors.New("auth: user id missing")
	}

	return &claims, nil
}
