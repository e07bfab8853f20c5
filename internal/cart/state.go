package cart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the cart aggregate lifecycle: idle until the first operation,
// loading while one runs, then succeeded or failed. The next operation always
// moves back to loading; there is no cancelled state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// State is the canonical in-memory cart representation downstream consumers
// read. Totals are always derived from Items, never stored independently.
type State struct {
	Items         []EnrichedLine `json:"items"`
	TotalPrice    float64        `json:"totalPrice"`
	TotalQuantity int            `json:"totalQuantity"`
	Status        Status         `json:"status"`
	Error         string         `json:"error,omitempty"`
	IsGuestCart   bool           `json:"isGuestCart"`
	LastUpdated   *time.Time     `json:"lastUpdated"`
}

func newState() State {
	return State{Items: []EnrichedLine{}, Status: StatusIdle, IsGuestCart: true}
}

// recomputeTotals re-derives both totals from Items. Decimal arithmetic keeps
// sums exact across fractional prices.
func (s *State) recomputeTotals() {
	price := decimal.Zero
	quantity := 0
	for _, item := range s.Items {
		price = price.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		quantity += item.Quantity
	}
	total, _ := price.Float64()
	s.TotalPrice = total
	s.TotalQuantity = quantity
}

// States holds the per-session cart aggregates. Operations for the same
// session are serialized on the session's own lock; sessions never contend
// with each other.
type States struct {
	mu       sync.Mutex
	sessions map[string]*sessionState
}

type sessionState struct {
	mu    sync.Mutex
	state State
}

func NewStates() *States {
	return &States{sessions: make(map[string]*sessionState)}
}

func (s *States) session(sessionID string) *sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[sessionID]
	if !ok {
		entry = &sessionState{state: newState()}
		s.sessions[sessionID] = entry
	}
	return entry
}

// Snapshot returns a copy of the session's current aggregate.
func (s *States) Snapshot(sessionID string) State {
	entry := s.session(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneState(entry.state)
}

// ResetError clears the error and returns the status to idle without touching
// items; used when the UI dismisses an error banner.
func (s *States) ResetError(sessionID string) State {
	entry := s.session(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.state.Error = ""
	entry.state.Status = StatusIdle
	return cloneState(entry.state)
}

// Reenrich re-derives display fields for the current items against a fresh
// lookup. Needed because the catalog may finish loading after the cart does.
func (s *States) Reenrich(sessionID string, lookup ProductLookup) State {
	entry := s.session(sessionID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	entry.state.Items = Enrich(linesFromEnriched(entry.state.Items), lookup)
	entry.state.recomputeTotals()
	return cloneState(entry.state)
}

func cloneState(state State) State {
	out := state
	out.Items = append([]EnrichedLine{}, state.Items...)
	if state.LastUpdated != nil {
		ts := *state.LastUpdated
		out.LastUpdated = &ts
	}
	return out
}
