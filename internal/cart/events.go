package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/google/uuid"
)

// EventPublisher is the outbound eventing surface; pkg/pubsub satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) error
}

const (
	EventCartUpdated = "cart.updated"
	EventCartMerged  = "cart.merged"
)

type cartEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	TotalQuantity int       `json:"total_quantity"`
	TotalPrice    float64   `json:"total_price"`
	IsGuestCart   bool      `json:"is_guest_cart"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Events emits cart domain events best-effort: publish failures are logged
// and never affect the cart operation that produced them.
type Events struct {
	pub  EventPublisher
	logg *logger.Logger
}

func NewEvents(pub EventPublisher, logg *logger.Logger) *Events {
	return &Events{pub: pub, logg: logg}
}

func (e *Events) publish(ctx context.Context, eventType, sessionID string, state State) {
	if e == nil || e.pub == nil {
		return
	}
	payload, err := json.Marshal(cartEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		SessionID:     sessionID,
		TotalQuantity: state.TotalQuantity,
		TotalPrice:    state.TotalPrice,
		IsGuestCart:   state.IsGuestCart,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		e.logError(ctx, "cart event marshal failed", err)
		return
	}
	if err := e.pub.Publish(ctx, payload, map[string]string{"type": eventType}); err != nil {
		e.logError(ctx, "cart event publish failed", err)
	}
}

func (e *Events) logError(ctx context.Context, msg string, err error) {
	if e.logg != nil {
		e.logg.Error(ctx, msg, err)
	}
}
