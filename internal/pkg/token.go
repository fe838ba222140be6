package pkg

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prasit-dev/pharmadmin/internal/domain"
)

// TokenManager issues and parses the HS256 bearer tokens that carry the
// caller identity and role consumed by the auth middleware.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// TokenClaims is the decoded identity a valid token carries.
type TokenClaims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// NewTokenManager creates a TokenManager signing with the given secret.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry}
}

// Generate signs a token for the given user and role and returns it with
// its expiry time.
func (m *TokenManager) Generate(userID, role string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.expiry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Parse validates a raw token and extracts its claims. Any failure,
// including an unexpected signing method, reports as unauthorized without
// detail.
func (m *TokenManager) Parse(raw string) (*TokenClaims, error) {
	token, err := jwt.Parse(strings.TrimSpace(raw), func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrUnauthorized
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	role, _ := claims["role"].(string)

	out := &TokenClaims{UserID: userID, Role: role}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
