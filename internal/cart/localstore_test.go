package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type stubKV struct {
	data    map[string]string
	ttls    map[string]time.Duration
	setErr  error
	getErr  error
	delErr  error
	deleted []string
}

func newStubKV() *stubKV {
	return &stubKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	s.ttls[key] = ttl
	return nil
}

func (s *stubKV) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *stubKV) Del(_ context.Context, keys ...string) error {
	if s.delErr != nil {
		return s.delErr
	}
	for _, key := range keys {
		delete(s.data, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubKV) GuestCartKey(sessionID string) string {
	return "sfc:guest_cart:" + sessionID
}

func storeAt(kv *stubKV, now time.Time) *RedisStore {
	store := NewRedisStore(kv, nil)
	store.now = func() time.Time { return now }
	return store
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	store := storeAt(kv, time.Now())
	ctx := context.Background()

	items := []Line{{ProductID: "prod-1", VariantSKU: "sku-1", Quantity: 2}}
	store.Save(ctx, "sess-1", items)

	loaded := store.Load(ctx, "sess-1")
	if len(loaded) != 1 || loaded[0].ProductID != "prod-1" || loaded[0].Quantity != 2 {
		t.Fatalf("round trip lost data: %+v", loaded)
	}
	if kv.ttls[kv.GuestCartKey("sess-1")] != snapshotMaxAge {
		t.Errorf("snapshot ttl %v", kv.ttls[kv.GuestCartKey("sess-1")])
	}
}

func TestRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := storeAt(newStubKV(), time.Now())
	if got := store.Load(context.Background(), "nope"); got != nil {
		t.Errorf("missing snapshot should load as nil, got %+v", got)
	}
}

func TestRedisStoreLoadUnparsable(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	kv.data[kv.GuestCartKey("sess-1")] = "{not json"
	store := storeAt(kv, time.Now())

	if got := store.Load(context.Background(), "sess-1"); got != nil {
		t.Errorf("unparsable snapshot should load as nil, got %+v", got)
	}
}

func TestRedisStoreExpiredSnapshotDeleted(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	now := time.Now()

	stale := guestCartSnapshot{Timestamp: now.Add(-snapshotMaxAge - time.Hour).UnixMilli()}
	stale.Cart.Items = []Line{{ProductID: "prod-1", VariantSKU: "sku-1", Quantity: 1}}
	payload, _ := json.Marshal(stale)
	key := kv.GuestCartKey("sess-1")
	kv.data[key] = string(payload)

	store := storeAt(kv, now)
	if got := store.Load(context.Background(), "sess-1"); got != nil {
		t.Errorf("expired snapshot should load as nil, got %+v", got)
	}
	if len(kv.deleted) != 1 || kv.deleted[0] != key {
		t.Errorf("expired snapshot not deleted: %v", kv.deleted)
	}
}

func TestRedisStoreSnapshotJustInsideWindow(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	now := time.Now()

	fresh := guestCartSnapshot{Timestamp: now.Add(-snapshotMaxAge + time.Minute).UnixMilli()}
	fresh.Cart.Items = []Line{{ProductID: "prod-1", VariantSKU: "sku-1", Quantity: 1}}
	payload, _ := json.Marshal(fresh)
	kv.data[kv.GuestCartKey("sess-1")] = string(payload)

	store := storeAt(kv, now)
	if got := store.Load(context.Background(), "sess-1"); len(got) != 1 {
		t.Errorf("snapshot inside retention window should load, got %+v", got)
	}
}

func TestRedisStoreLoadNormalizesLegacyIDs(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	now := time.Now()
	raw := `{"cart":{"items":[{"productId":{"_id":" prod-9 "},"variantSku":"sku-1","quantity":1}]},"timestamp":` +
		jsonInt(now.UnixMilli()) + `}`
	kv.data[kv.GuestCartKey("sess-1")] = raw

	store := storeAt(kv, now)
	got := store.Load(context.Background(), "sess-1")
	if len(got) != 1 || got[0].ProductID != "prod-9" {
		t.Fatalf("legacy id not normalized: %+v", got)
	}
}

func TestRedisStoreFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	kv.setErr = errors.New("redis down")
	kv.getErr = errors.New("redis down")
	kv.delErr = errors.New("redis down")
	store := storeAt(kv, time.Now())
	ctx := context.Background()

	store.Save(ctx, "sess-1", []Line{{ProductID: "prod-1", Quantity: 1}})
	if got := store.Load(ctx, "sess-1"); got != nil {
		t.Errorf("load should degrade to nil, got %+v", got)
	}
	store.Clear(ctx, "sess-1")
}

func TestRedisStoreClearIdempotent(t *testing.T) {
	t.Parallel()

	kv := newStubKV()
	store := storeAt(kv, time.Now())
	ctx := context.Background()

	store.Clear(ctx, "sess-1")
	store.Clear(ctx, "sess-1")
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}
