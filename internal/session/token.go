package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eduassign/eduassign-gateway/internal/models"
)

// ErrTokenInvalid indicates a malformed, expired, or badly signed token.
var ErrTokenInvalid = errors.New("invalid session token")

// Claims is the identity state carried by a gateway session token.
type Claims struct {
	UserID    string
	Role      string
	Name      string
	TokenID   string
	ExpiresAt time.Time
}

type tokenClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// IssueToken mints a signed session token for the user.
func IssueToken(secret string, user models.User, ttl time.Duration, now time.Time) (string, Claims, error) {
	claims := Claims{
		UserID:    user.ID,
		Role:      user.Role,
		Name:      user.Name,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Role: claims.Role,
		Name: claims.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID,
			ID:        claims.TokenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, claims, nil
}

// ParseToken validates the signature and expiry and returns the claims.
func ParseToken(secret, tokenString string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return Claims{}, ErrTokenInvalid
	}

	result := Claims{
		UserID:  claims.Subject,
		Role:    claims.Role,
		Name:    claims.Name,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
