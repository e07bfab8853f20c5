package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/middleware"
	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Controller exposes the cart engine over HTTP. All handlers resolve the
// session from the request context; guest vs authenticated routing happens
// inside the engine, not here.
type Controller struct {
	service cart.Service
	logg    *logger.Logger
}

func NewController(service cart.Service, logg *logger.Logger) *Controller {
	return &Controller{service: service, logg: logg}
}

func (c *Controller) session(r *http.Request) cart.Session {
	ctx := r.Context()
	return cart.Session{
		ID:    middleware.SessionIDFromContext(ctx),
		Token: middleware.BearerTokenFromContext(ctx),
	}
}

// Get handles GET /cart.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	state, err := c.service.FetchCart(r.Context(), c.session(r))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// AddItem handles POST /cart/items.
func (c *Controller) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	state, err := c.service.AddToCart(r.Context(), c.session(r), string(body.ProductID), body.VariantSKU, body.Quantity)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// UpdateItem handles PUT /cart/items/{productId}.
func (c *Controller) UpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var body updateItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	state, err := c.service.UpdateCartQuantity(r.Context(), c.session(r), productID, body.VariantSKU, body.Quantity)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// RemoveItem handles DELETE /cart/items?productId=&variantSku=.
func (c *Controller) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := strings.TrimSpace(r.URL.Query().Get("productId"))
	variantSKU := strings.TrimSpace(r.URL.Query().Get("variantSku"))
	if productID == "" {
		responses.WriteError(r.Context(), c.logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId query parameter is required"))
		return
	}

	state, err := c.service.RemoveFromCart(r.Context(), c.session(r), productID, variantSKU)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// Clear handles DELETE /cart.
func (c *Controller) Clear(w http.ResponseWriter, r *http.Request) {
	state, err := c.service.ClearCart(r.Context(), c.session(r))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// Merge handles POST /cart/merge.
func (c *Controller) Merge(w http.ResponseWriter, r *http.Request) {
	state, err := c.service.MergeGuestCart(r.Context(), c.session(r))
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, toCartResponse(state))
}

// ResetError handles POST /cart/reset.
func (c *Controller) ResetError(w http.ResponseWriter, r *http.Request) {
	state := c.service.ResetError(c.session(r))
	responses.WriteSuccess(w, toCartResponse(state))
}

// Reenrich handles POST /cart/reenrich.
func (c *Controller) Reenrich(w http.ResponseWriter, r *http.Request) {
	state := c.service.Reenrich(c.session(r))
	responses.WriteSuccess(w, toCartResponse(state))
}
