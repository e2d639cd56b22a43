package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token, err := v.Sign("user-42", "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("Expected signing to succeed, got %v", err)
	}

	userID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Expected verification to succeed, got %v", err)
	}
	if userID != "user-42" {
		t.Errorf("Expected user-42, got %s", userID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTVerifier("secret-a").Sign("user-42", "", time.Hour)
	if err != nil {
		t.Fatalf("Expected signing to succeed, got %v", err)
	}

	if _, err := NewJWTVerifier("secret-b").Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	token, err := v.Sign("user-42", "", -time.Minute)
	if err != nil {
		t.Fatalf("Expected signing to succeed, got %v", err)
	}

	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewJWTVerifier("test-secret")
	if _, err := v.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsMissingUserID(t *testing.T) {
	secret := "test-secret"
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "user@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Expected signing to succeed, got %v", err)
	}

	if _, err := NewJWTVerifier(secret).Verify(signed); !errors.Is(err, ErrMissingUser) {
		t.Errorf("Expected ErrMissingUser, got %v", err)
	}
}

func TestVerifyRejectsUnsignedAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userId": "user-42"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Expected signing to succeed, got %v", err)
	}

	if _, err := NewJWTVerifier("test-secret").Verify(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for alg=none, got %v", err)
	}
}
