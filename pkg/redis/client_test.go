package redis

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

type fakeCmdable struct {
	data map[string]string
}

func newFakeCmdable() *fakeCmdable {
	return &fakeCmdable{data: map[string]string{}}
}

func (f *fakeCmdable) Ping(ctx context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (f *fakeCmdable) Set(ctx context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeCmdable) Get(ctx context.Context, key string) *goredis.StringCmd {
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeCmdable) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeCmdable) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func TestClientSetGetDel(t *testing.T) {
	t.Parallel()

	client := &Client{store: newFakeCmdable()}
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := client.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("get: %q %v", got, err)
	}

	exists, err := client.Exists(ctx, "k")
	if err != nil || !exists {
		t.Fatalf("exists: %v %v", exists, err)
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if exists, _ := client.Exists(ctx, "k"); exists {
		t.Error("key survived delete")
	}
}

func TestClientUninitialized(t *testing.T) {
	t.Parallel()

	client := &Client{}
	ctx := context.Background()

	if err := client.Set(ctx, "k", "v", 0); err == nil {
		t.Error("expected error")
	}
	if _, err := client.Get(ctx, "k"); err == nil {
		t.Error("expected error")
	}
	if err := client.Ping(ctx); err == nil {
		t.Error("expected error")
	}
	if err := client.Close(); err != nil {
		t.Errorf("close on empty client: %v", err)
	}
}

func TestKeyBuilders(t *testing.T) {
	t.Parallel()

	client := &Client{}
	if got := client.GuestCartKey("sess-1"); got != "sfc:guest_cart:sess-1" {
		t.Errorf("guest cart key %q", got)
	}
	if got := client.RevokedTokenKey(" sess-1 "); got != "sfc:revoked_token:sess-1" {
		t.Errorf("revoked token key %q", got)
	}
	if got := client.GuestCartKey(""); got != "sfc:guest_cart" {
		t.Errorf("empty session key %q", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("url wins", func(t *testing.T) {
		t.Parallel()
		opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
		if err != nil {
			t.Fatalf("options: %v", err)
		}
		if opts.Addr != "localhost:6379" || opts.DB != 2 {
			t.Errorf("opts %+v", opts)
		}
	})

	t.Run("address fallback", func(t *testing.T) {
		t.Parallel()
		opts, err := optionsFromConfig(config.RedisConfig{Address: "localhost:6380", DB: 1, PoolSize: 5})
		if err != nil {
			t.Fatalf("options: %v", err)
		}
		if opts.Addr != "localhost:6380" || opts.DB != 1 || opts.PoolSize != 5 {
			t.Errorf("opts %+v", opts)
		}
	})

	t.Run("neither set", func(t *testing.T) {
		t.Parallel()
		if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("bad url", func(t *testing.T) {
		t.Parallel()
		if _, err := optionsFromConfig(config.RedisConfig{URL: "::bad::"}); err == nil {
			t.Error("expected error")
		}
	})
}
