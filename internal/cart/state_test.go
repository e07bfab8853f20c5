package cart

import (
	"math"
	"testing"
)

func TestRecomputeTotals(t *testing.T) {
	t.Parallel()

	state := newState()
	state.Items = []EnrichedLine{
		{ProductID: "a", Quantity: 2, Price: 0.1},
		{ProductID: "b", Quantity: 3, Price: 0.2},
	}
	state.recomputeTotals()

	if state.TotalQuantity != 5 {
		t.Errorf("quantity %d want 5", state.TotalQuantity)
	}
	// 2*0.1 + 3*0.2 must come out exactly 0.8 despite float inputs.
	if math.Abs(state.TotalPrice-0.8) > 1e-12 {
		t.Errorf("price %v want 0.8", state.TotalPrice)
	}
}

func TestRecomputeTotalsEmpty(t *testing.T) {
	t.Parallel()

	state := newState()
	state.recomputeTotals()
	if state.TotalPrice != 0 || state.TotalQuantity != 0 {
		t.Errorf("empty cart totals %v/%d", state.TotalPrice, state.TotalQuantity)
	}
}

func TestStatesSnapshotStartsIdleGuest(t *testing.T) {
	t.Parallel()

	states := NewStates()
	state := states.Snapshot("sess-1")

	if state.Status != StatusIdle {
		t.Errorf("status %q", state.Status)
	}
	if !state.IsGuestCart {
		t.Error("fresh session must start as guest")
	}
	if state.Items == nil || len(state.Items) != 0 {
		t.Errorf("items %+v", state.Items)
	}
}

func TestStatesResetError(t *testing.T) {
	t.Parallel()

	states := NewStates()
	entry := states.session("sess-1")
	entry.mu.Lock()
	entry.state.Status = StatusFailed
	entry.state.Error = "cart is unavailable"
	entry.state.Items = []EnrichedLine{{ProductID: "prod-1", Quantity: 1}}
	entry.mu.Unlock()

	state := states.ResetError("sess-1")
	if state.Status != StatusIdle || state.Error != "" {
		t.Errorf("reset left %q/%q", state.Status, state.Error)
	}
	if len(state.Items) != 1 {
		t.Errorf("reset must not touch items, got %+v", state.Items)
	}
}

func TestStatesReenrich(t *testing.T) {
	t.Parallel()

	states := NewStates()
	entry := states.session("sess-1")
	entry.mu.Lock()
	entry.state.Items = []EnrichedLine{{
		ProductID: "prod-1", VariantSKU: "sku-red", Quantity: 2,
		Name: nameFallback, Images: []string{placeholderImage}, Stock: unknownStock,
	}}
	entry.mu.Unlock()

	state := states.Reenrich("sess-1", widgetLookup())
	if state.Items[0].Name == nameFallback {
		t.Errorf("reenrich did not resolve display fields: %+v", state.Items[0])
	}
	if state.Items[0].Price != 12.5 {
		t.Errorf("price %v", state.Items[0].Price)
	}
	if state.TotalQuantity != 2 {
		t.Errorf("totals not recomputed: %d", state.TotalQuantity)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	states := NewStates()
	entry := states.session("sess-1")
	entry.mu.Lock()
	entry.state.Items = []EnrichedLine{{ProductID: "prod-1", Quantity: 1}}
	entry.mu.Unlock()

	snap := states.Snapshot("sess-1")
	snap.Items[0].Quantity = 99

	if states.Snapshot("sess-1").Items[0].Quantity != 1 {
		t.Error("snapshot aliases internal state")
	}
}
