package cart

import (
	"github.com/angelmondragon/storefront-cart/internal/cart"
)

// addItemRequest accepts the product id as either a plain string or a legacy
// `{"_id": "..."}` object.
type addItemRequest struct {
	ProductID  cart.FlexID `json:"productId" validate:"required"`
	VariantSKU string      `json:"variantSku" validate:"required"`
	Quantity   int         `json:"quantity" validate:"min=0,max=999"`
}

type updateItemRequest struct {
	VariantSKU string `json:"variantSku" validate:"required"`
	Quantity   int    `json:"quantity" validate:"min=0,max=999"`
}

type cartResponse struct {
	Items         []cart.EnrichedLine `json:"items"`
	TotalPrice    float64             `json:"totalPrice"`
	TotalQuantity int                 `json:"totalQuantity"`
	Status        string              `json:"status"`
	Error         string              `json:"error,omitempty"`
	IsGuestCart   bool                `json:"isGuestCart"`
	LastUpdated   *int64              `json:"lastUpdated,omitempty"`
}

func toCartResponse(state cart.State) cartResponse {
	resp := cartResponse{
		Items:         state.Items,
		TotalPrice:    state.TotalPrice,
		TotalQuantity: state.TotalQuantity,
		Status:        string(state.Status),
		Error:         state.Error,
		IsGuestCart:   state.IsGuestCart,
	}
	if resp.Items == nil {
		resp.Items = []cart.EnrichedLine{}
	}
	if state.LastUpdated != nil {
		ms := state.LastUpdated.UnixMilli()
		resp.LastUpdated = &ms
	}
	return resp
}
