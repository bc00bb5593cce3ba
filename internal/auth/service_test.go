package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/fdg312/mealplan-hub/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "test-secret",
		JWTIssuer:     "mealplan-hub",
		JWTTTLMinutes: 60,
	}
}

func TestJWT_RoundTrip(t *testing.T) {
	s := NewService(testConfig())

	token, err := s.GenerateJWT("user1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	userID, err := s.VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "user1" {
		t.Errorf("expected subject user1, got %q", userID)
	}
}

func TestJWT_WrongSecretRejected(t *testing.T) {
	issuer := NewService(testConfig())

	otherCfg := testConfig()
	otherCfg.JWTSecret = "other-secret"
	verifier := NewService(otherCfg)

	token, err := issuer.GenerateJWT("user1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := verifier.VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWT_WrongIssuerRejected(t *testing.T) {
	issuerCfg := testConfig()
	issuerCfg.JWTIssuer = "someone-else"
	issuer := NewService(issuerCfg)

	verifier := NewService(testConfig())

	token, err := issuer.GenerateJWT("user1")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := verifier.VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	s := NewService(testConfig())

	token, err := s.generateJWTWithTTL("user1", -time.Minute)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if _, err := s.VerifyJWT(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestJWT_GarbageToken(t *testing.T) {
	s := NewService(testConfig())

	if _, err := s.VerifyJWT("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignInDev_DefaultUser(t *testing.T) {
	s := NewService(testConfig())

	resp, err := s.SignInDev("")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("expected token_type Bearer, got %s", resp.TokenType)
	}

	userID, err := s.VerifyJWT(resp.AccessToken)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != "dev-user" {
		t.Errorf("expected dev-user subject, got %q", userID)
	}
}
