package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("STOREFRONT_APP_ENV", "development")
	t.Setenv("STOREFRONT_APP_PORT", "8080")
	t.Setenv("STOREFRONT_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("STOREFRONT_CATALOG_DB_DSN", "postgres://localhost:5432/catalog")
	t.Setenv("STOREFRONT_JWT_SECRET", "secret")
	t.Setenv("STOREFRONT_JWT_ISSUER", "storefront")
	t.Setenv("STOREFRONT_UPSTREAM_CART_BASE_URL", "http://cart.internal")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("log level %q", cfg.App.LogLevel)
	}
	if !cfg.App.IsDev() || cfg.App.IsProd() {
		t.Errorf("env flags wrong for %q", cfg.App.Env)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("upstream timeout %v", cfg.Upstream.Timeout)
	}
	if cfg.Eventing.Enabled {
		t.Error("eventing must default off")
	}
	if cfg.Eventing.CartTopic != "cart-events" {
		t.Errorf("cart topic %q", cfg.Eventing.CartTopic)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STOREFRONT_APP_PORT", "placeholder")
	os.Unsetenv("STOREFRONT_APP_PORT")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing port")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STOREFRONT_APP_ENV", "production")
	t.Setenv("STOREFRONT_UPSTREAM_CART_TIMEOUT", "3s")
	t.Setenv("STOREFRONT_EVENTING_ENABLED", "true")
	t.Setenv("STOREFRONT_GCP_PROJECT_ID", "proj-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.App.IsProd() {
		t.Error("prod flag not set")
	}
	if cfg.Upstream.Timeout != 3*time.Second {
		t.Errorf("timeout %v", cfg.Upstream.Timeout)
	}
	if !cfg.Eventing.Enabled || cfg.Eventing.ProjectID != "proj-1" {
		t.Errorf("eventing %+v", cfg.Eventing)
	}
}
