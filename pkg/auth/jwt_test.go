package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/neeravgigglesandgrins/giggles/pkg/auth"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "user", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := auth.Parse(token, "secret")
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 7 || claims.Email != "asha@example.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsUnsignedToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": 7})
	unsigned, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := auth.Parse(unsigned, "secret"); err == nil {
		t.Fatal("expected token with alg none to be rejected")
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "user", "secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := auth.Parse(token, "other-secret"); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := auth.NewAccessToken(7, "asha@example.com", "user", "secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := auth.Parse(token, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
