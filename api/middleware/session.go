package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

const sessionIDHeader = "X-Session-Id"

type sessionIDKey struct{}
type bearerTokenKey struct{}

// TokenChecker reports whether a session's token was previously discarded
// after an upstream 401.
type TokenChecker interface {
	IsRevoked(ctx context.Context, sessionID string) bool
}

// Session resolves the storefront session for every request: the durable
// session id keying the guest snapshot, and the bearer token when one is
// present and still valid. An invalid, expired or revoked token is dropped
// here so downstream code only ever sees a usable token or none.
func Session(validator *auth.TokenValidator, checker TokenChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionIDHeader))
			if sessionID == "" {
				sessionID = uuid.NewString()
			}
			w.Header().Set(sessionIDHeader, sessionID)

			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			ctx = context.WithValue(ctx, sessionIDKey{}, sessionID)

			if token := bearerFromHeader(r); token != "" {
				usable := true
				if validator != nil {
					if _, err := validator.Validate(token); err != nil {
						usable = false
					}
				}
				if usable && checker != nil && checker.IsRevoked(ctx, sessionID) {
					usable = false
				}
				if usable {
					ctx = context.WithValue(ctx, bearerTokenKey{}, token)
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerFromHeader(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// SessionIDFromContext returns the resolved session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}

// BearerTokenFromContext returns the usable bearer token, or "".
func BearerTokenFromContext(ctx context.Context) string {
	if token, ok := ctx.Value(bearerTokenKey{}).(string); ok {
		return token
	}
	return ""
}
