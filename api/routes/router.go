package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-cart/api/controllers"
	cartcontroller "github.com/angelmondragon/storefront-cart/api/controllers/cart"
	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/angelmondragon/storefront-cart/pkg/auth"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Deps carries everything the router needs wired in.
type Deps struct {
	Logger    *logger.Logger
	Service   cart.Service
	Validator *auth.TokenValidator
	Revoker   *auth.Revoker
	Registry  *prometheus.Registry
	Health    map[string]controllers.Pinger
}

func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.Logging(deps.Logger))

	health := controllers.NewHealthController(deps.Health)
	r.Get("/healthz", health.Live)
	r.Get("/readyz", health.Ready)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	cartCtrl := cartcontroller.NewController(deps.Service, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Validator, deps.Revoker, deps.Logger))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartCtrl.Get)
			r.Delete("/", cartCtrl.Clear)
			r.Post("/items", cartCtrl.AddItem)
			r.Put("/items/{productId}", cartCtrl.UpdateItem)
			r.Delete("/items", cartCtrl.RemoveItem)
			r.Post("/merge", cartCtrl.Merge)
			r.Post("/reset", cartCtrl.ResetError)
			r.Post("/reenrich", cartCtrl.Reenrich)
		})
	})

	return r
}
