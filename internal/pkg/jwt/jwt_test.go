package jwt

import (
	"errors"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "a@b.com", "Ann", "admin", "secret", 5)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := ValidateAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "a@b.com" || claims.Name != "Ann" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "42" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestValidateRejects(t *testing.T) {
	token, _ := GenerateAccessToken(1, "a@b.com", "Ann", "user", "secret", 5)
	if _, err := ValidateAccessToken(token, "other"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret err = %v", err)
	}
	if _, err := ValidateAccessToken("not-a-token", "secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage err = %v", err)
	}

	expired, _ := GenerateAccessToken(1, "a@b.com", "Ann", "user", "secret", -1)
	if _, err := ValidateAccessToken(expired, "secret"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired err = %v", err)
	}
}

func TestRefreshToken(t *testing.T) {
	token, err := GenerateRefreshToken(9, "tid-1", "refresh", 7)
	if err != nil {
		t.Fatalf("GenerateRefreshToken: %v", err)
	}
	claims, err := ValidateRefreshToken(token, "refresh")
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if claims.UserID != 9 || claims.TokenID != "tid-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// signed with the access secret
	access, _ := GenerateAccessToken(9, "a@b.com", "Ann", "user", "secret", 5)
	if _, err := ValidateRefreshToken(access, "refresh"); err == nil {
		t.Fatal("access token accepted as refresh token")
	}
}
