// Package auth validates session credentials for HTTP requests and websocket
// handshakes.
//
// The core does not own session issuance; it only verifies tokens minted by
// the auth collaborator and resolves the user they belong to.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors returned by credential verification.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingUser  = errors.New("token carries no user id")
)

// Claims is the payload of a HealthIQ session token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies HMAC-signed session tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with the given secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns the user id it carries.
func (v *JWTVerifier) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		slog.Debug("JWTVerifier.Verify: token rejected", "error", err)
		return "", ErrInvalidToken
	}
	if claims.UserID == "" {
		return "", ErrMissingUser
	}
	return claims.UserID, nil
}

// Sign mints a session token for the user. Used by tests and the local
// development login stub; production tokens come from the auth collaborator.
func (v *JWTVerifier) Sign(userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
