package auth

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	redisclient "github.com/angelmondragon/storefront-cart/pkg/redis"
)

// Tokens the upstream rejected with a 401 stay discarded long enough to
// outlive any plausible access token lifetime.
const revokedTokenTTL = 24 * time.Hour

// Revoker marks a session's bearer token as discarded so subsequent requests
// degrade to guest behavior until the client re-authenticates.
type Revoker struct {
	client *redisclient.Client
	logg   *logger.Logger
}

func NewRevoker(client *redisclient.Client, logg *logger.Logger) *Revoker {
	return &Revoker{client: client, logg: logg}
}

// Revoke flags the session's token. Failures are logged and swallowed: losing
// the flag only means one extra upstream 401 on the next request.
func (r *Revoker) Revoke(ctx context.Context, sessionID string) {
	if r == nil || r.client == nil || sessionID == "" {
		return
	}
	if err := r.client.Set(ctx, r.client.RevokedTokenKey(sessionID), "1", revokedTokenTTL); err != nil && r.logg != nil {
		r.logg.Error(ctx, "token revoke flag write failed", err)
	}
}

// IsRevoked reports whether the session's token was previously discarded.
func (r *Revoker) IsRevoked(ctx context.Context, sessionID string) bool {
	if r == nil || r.client == nil || sessionID == "" {
		return false
	}
	revoked, err := r.client.Exists(ctx, r.client.RevokedTokenKey(sessionID))
	if err != nil {
		if r.logg != nil {
			r.logg.Error(ctx, "token revoke flag read failed", err)
		}
		return false
	}
	return revoked
}
