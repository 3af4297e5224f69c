package jwt

import (
	"testing"
	"time"

	"campus-portal/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		VerificationTTL: 48 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("user-1", "asha@campus.edu")
	if err != nil {
		t.Fatalf("GenerateAccessToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("expected UserID=user-1, got %s", claims.UserID)
	}
	if claims.Email != "asha@campus.edu" {
		t.Errorf("expected Email=asha@campus.edu, got %s", claims.Email)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("expected TokenType=access, got %s", claims.TokenType)
	}
	if claims.Issuer != "campus-portal" {
		t.Errorf("expected Issuer=campus-portal, got %s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("jti must not be empty")
	}
}

func TestGenerateRefreshToken_TTL(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("user-1", "asha@campus.edu")
	if err != nil {
		t.Fatalf("GenerateRefreshToken failed: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.TokenType != TokenTypeRefresh {
		t.Errorf("expected TokenType=refresh, got %s", claims.TokenType)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 6*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("refresh ttl expected about 7 days, got %v", ttl)
	}
}

func TestParseTokenOfType(t *testing.T) {
	m := newTestManager()

	verify, _ := m.GenerateVerificationToken("user-1", "asha@campus.edu")
	if _, err := m.ParseTokenOfType(verify, TokenTypeVerification); err != nil {
		t.Fatalf("verification token should parse as verification: %v", err)
	}
	if _, err := m.ParseTokenOfType(verify, TokenTypeAccess); err != ErrTokenInvalid {
		t.Errorf("verification token must not pass as access token, got %v", err)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	if _, err := m.ParseToken("invalid.token.string"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _ := m1.GenerateAccessToken("user-1", "asha@campus.edu")
	if _, err := m2.ParseToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: 1 * time.Millisecond,
	})

	token, _ := m.GenerateAccessToken("user-1", "asha@campus.edu")
	time.Sleep(1100 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err != ErrTokenExpired {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}
