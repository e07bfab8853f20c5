package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
)

// snapshotMaxAge is the guest cart retention window. Snapshots older than this
// are treated as absent and deleted on read.
const snapshotMaxAge = 7 * 24 * time.Hour

// LocalStore persists per-session guest cart snapshots. Failures never
// propagate: a broken snapshot store degrades durability, not the operation
// in flight.
type LocalStore interface {
	Save(ctx context.Context, sessionID string, items []Line)
	Load(ctx context.Context, sessionID string) []Line
	Clear(ctx context.Context, sessionID string)
}

// guestCartSnapshot is the stored shape; it mirrors the upstream cart
// envelope so snapshots and gateway payloads stay interchangeable.
type guestCartSnapshot struct {
	Cart struct {
		Items []Line `json:"items"`
	} `json:"cart"`
	Timestamp int64 `json:"timestamp"`
}

type snapshotKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	GuestCartKey(sessionID string) string
}

// RedisStore keeps snapshots in Redis under a per-session key. The key also
// carries the retention window as a TTL, but the embedded timestamp stays
// authoritative for expiry.
type RedisStore struct {
	kv   snapshotKV
	logg *logger.Logger
	now  func() time.Time
}

func NewRedisStore(kv snapshotKV, logg *logger.Logger) *RedisStore {
	return &RedisStore{kv: kv, logg: logg, now: time.Now}
}

// Save wraps items in a timestamped snapshot and writes it. Write failures are
// logged and swallowed.
func (s *RedisStore) Save(ctx context.Context, sessionID string, items []Line) {
	if s.kv == nil || sessionID == "" {
		return
	}
	snapshot := guestCartSnapshot{Timestamp: s.now().UnixMilli()}
	snapshot.Cart.Items = items

	payload, err := json.Marshal(snapshot)
	if err != nil {
		s.logError(ctx, "cart snapshot marshal failed", err)
		return
	}
	if err := s.kv.Set(ctx, s.kv.GuestCartKey(sessionID), payload, snapshotMaxAge); err != nil {
		s.logError(ctx, "cart snapshot write failed", err)
	}
}

// Load returns the stored lines with normalized product ids, or nil when the
// snapshot is absent, unparsable or expired. Expired snapshots are deleted.
func (s *RedisStore) Load(ctx context.Context, sessionID string) []Line {
	if s.kv == nil || sessionID == "" {
		return nil
	}
	key := s.kv.GuestCartKey(sessionID)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			s.logError(ctx, "cart snapshot read failed", err)
		}
		return nil
	}

	var snapshot guestCartSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		s.logError(ctx, "cart snapshot unparsable", err)
		return nil
	}

	age := s.now().UnixMilli() - snapshot.Timestamp
	if age > snapshotMaxAge.Milliseconds() {
		if err := s.kv.Del(ctx, key); err != nil {
			s.logError(ctx, "expired cart snapshot delete failed", err)
		}
		return nil
	}

	items := snapshot.Cart.Items
	for i := range items {
		items[i].ProductID = FlexID(NormalizeID(items[i].ProductID))
	}
	return items
}

// Clear deletes the snapshot. Idempotent.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) {
	if s.kv == nil || sessionID == "" {
		return
	}
	if err := s.kv.Del(ctx, s.kv.GuestCartKey(sessionID)); err != nil {
		s.logError(ctx, "cart snapshot delete failed", err)
	}
}

func (s *RedisStore) logError(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.Error(ctx, msg, err)
	}
}
