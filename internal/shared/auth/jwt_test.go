package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	token, err := SignJWT(Claims{Sub: "user-1", OrgID: "org-9"})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Sub != "user-1" || claims.OrgID != "org-9" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	expired, err := SignJWT(Claims{Sub: "u", Exp: time.Now().Add(-time.Minute).Unix()})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := VerifyJWT(expired); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}

	valid, _ := SignJWT(Claims{Sub: "u"})
	t.Setenv("JWT_SECRET", "other")
	if _, err := VerifyJWT(valid); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := VerifyJWT("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}

func TestSecretRequiredInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "production")
	if _, err := SignJWT(Claims{Sub: "u"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestSecretRequiredForUnknownEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ENV", "prod-eu")
	if _, err := SignJWT(Claims{Sub: "u"}); err == nil {
		t.Fatalf("expected missing secret error")
	}
	t.Setenv("ENV", "local")
	if _, err := SignJWT(Claims{Sub: "u"}); err != nil {
		t.Fatalf("SignJWT in local: %v", err)
	}
}
