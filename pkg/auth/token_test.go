package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "storefront"}

func TestTokenValidatorAcceptsIssuedToken(t *testing.T) {
	t.Parallel()

	validator, err := NewTokenValidator(testJWT)
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	token, err := IssueForTests(testJWT, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := validator.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("user id %q", claims.UserID)
	}
}

func TestTokenValidatorRejectsExpired(t *testing.T) {
	t.Parallel()

	validator, _ := NewTokenValidator(testJWT)
	token, err := IssueForTests(testJWT, "user-1", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := validator.Validate(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestTokenValidatorRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	validator, _ := NewTokenValidator(testJWT)
	other := config.JWTConfig{Secret: testJWT.Secret, Issuer: "someone-else"}
	token, err := IssueForTests(other, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := validator.Validate(token); err == nil {
		t.Error("foreign issuer accepted")
	}
}

func TestTokenValidatorRejectsWrongSecret(t *testing.T) {
	t.Parallel()

	validator, _ := NewTokenValidator(testJWT)
	other := config.JWTConfig{Secret: "different", Issuer: testJWT.Issuer}
	token, err := IssueForTests(other, "user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := validator.Validate(token); err == nil {
		t.Error("bad signature accepted")
	}
}

func TestTokenValidatorRejectsGarbage(t *testing.T) {
	t.Parallel()

	validator, _ := NewTokenValidator(testJWT)
	for _, token := range []string{"", "  ", "not.a.jwt"} {
		if _, err := validator.Validate(token); err == nil {
			t.Errorf("accepted %q", token)
		}
	}
}

func TestNewTokenValidatorRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenValidator(config.JWTConfig{Issuer: "x"}); err == nil {
		t.Error("missing secret accepted")
	}
	if _, err := NewTokenValidator(config.JWTConfig{Secret: "x"}); err == nil {
		t.Error("missing issuer accepted")
	}
}
