package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	"github.com/angelmondragon/storefront-cart/api/routes"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/internal/catalog"
	"github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/config"
	"github.com/angelmondragon/storefront-cart/pkg/db"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"github.com/angelmondragon/storefront-cart/pkg/pubsub"
	redisclient "github.com/angelmondragon/storefront-cart/pkg/redis"
)

const catalogRefreshInterval = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-cart: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront-cart",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redis, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redis.Close()

	catalogDB, err := db.New(ctx, cfg.Catalog, logg)
	if err != nil {
		return fmt.Errorf("catalog db: %w", err)
	}
	defer catalogDB.Close()

	lookup := catalog.NewLookup()
	repo := catalog.NewRepository(catalogDB.DB())
	if err := repo.Refresh(ctx, lookup); err != nil {
		return fmt.Errorf("initial catalog load: %w", err)
	}
	logg.Info(logg.WithField(ctx, "products", lookup.Len()), "catalog loaded")

	go refreshCatalog(ctx, repo, lookup, logg)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cartMetrics := metrics.NewCartMetrics(registry)

	gateway, err := cart.NewHTTPGateway(
		cfg.Upstream.CartBaseURL,
		cfg.Upstream.Timeout,
		cart.WithGatewayMetrics(cartMetrics),
	)
	if err != nil {
		return fmt.Errorf("cart gateway: %w", err)
	}

	validator, err := auth.NewTokenValidator(cfg.JWT)
	if err != nil {
		return fmt.Errorf("token validator: %w", err)
	}
	revoker := auth.NewRevoker(redis, logg)

	health := map[string]controllers.Pinger{
		"redis":      redis,
		"catalog_db": catalogDB,
	}

	var events *cart.Events
	if cfg.Eventing.Enabled {
		psClient, err := pubsub.NewClient(ctx, cfg.Eventing, logg)
		if err != nil {
			return fmt.Errorf("pubsub: %w", err)
		}
		defer psClient.Close()
		events = cart.NewEvents(psClient, logg)
		health["pubsub"] = psClient
	}

	service, err := cart.NewService(cart.ServiceParams{
		Store:   cart.NewRedisStore(redis, logg),
		Gateway: gateway,
		Lookup:  lookup,
		States:  cart.NewStates(),
		Revoker: revoker,
		Logger:  logg,
		Metrics: cartMetrics,
		Events:  events,
	})
	if err != nil {
		return fmt.Errorf("cart service: %w", err)
	}

	handler := routes.New(routes.Deps{
		Logger:    logg,
		Service:   service,
		Validator: validator,
		Revoker:   revoker,
		Registry:  registry,
		Health:    health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "server listening")
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logg.Info(ctx, "server stopped")
	return nil
}

// refreshCatalog reloads the lookup periodically so cart enrichment tracks
// catalog edits without a restart.
func refreshCatalog(ctx context.Context, repo *catalog.Repository, lookup *catalog.Lookup, logg *logger.Logger) {
	ticker := time.NewTicker(catalogRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.Refresh(ctx, lookup); err != nil {
				logg.Error(ctx, "catalog refresh failed", err)
				continue
			}
			logg.Info(logg.WithField(ctx, "products", lookup.Len()), "catalog refreshed")
		}
	}
}
