package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var tokenSigningMethod = jwt.SigningMethodHS256

// Claims carries the subset of token claims the cart service cares about.
type Claims struct {
	UserID string
	jwt.RegisteredClaims
}

// TokenValidator verifies upstream-issued bearer tokens. An invalid or expired
// token is not an error condition for the cart: the caller is simply treated
// as a guest.
type TokenValidator struct {
	cfg config.JWTConfig
}

// NewTokenValidator builds a validator that verifies JWT signature, issuer and
// expiry.
func NewTokenValidator(cfg config.JWTConfig) (*TokenValidator, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret required for token validator")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("jwt issuer required for token validator")
	}
	return &TokenValidator{cfg: cfg}, nil
}

// Validate parses and verifies the token, returning its claims.
func (v *TokenValidator) Validate(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("empty token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != tokenSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(v.cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{tokenSigningMethod.Alg()}),
		jwt.WithIssuer(v.cfg.Issuer),
	)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// IssueForTests mints a signed token; test helper only.
func IssueForTests(cfg config.JWTConfig, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(tokenSigningMethod, claims).SignedString([]byte(cfg.Secret))
}
