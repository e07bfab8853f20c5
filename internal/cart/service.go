package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
	"go.uber.org/multierr"
)

// Session identifies one storefront session: the durable session id keying
// the local snapshot, and the bearer token when the user is authenticated.
// An empty token means guest.
type Session struct {
	ID    string
	Token string
}

// TokenRevoker discards a session's bearer token after the upstream rejects
// it with a 401.
type TokenRevoker interface {
	Revoke(ctx context.Context, sessionID string)
}

// Service is the cart reconciliation engine. Every operation picks local or
// remote based on the session token, applies the optimistic local mutation,
// and degrades remote failures to the local snapshot so the cart stays
// usable. That bias toward availability over server-truth consistency is
// deliberate.
type Service interface {
	FetchCart(ctx context.Context, sess Session) (State, error)
	AddToCart(ctx context.Context, sess Session, productID, variantSKU string, quantity int) (State, error)
	UpdateCartQuantity(ctx context.Context, sess Session, productID, variantSKU string, quantity int) (State, error)
	RemoveFromCart(ctx context.Context, sess Session, productID, variantSKU string) (State, error)
	ClearCart(ctx context.Context, sess Session) (State, error)
	MergeGuestCart(ctx context.Context, sess Session) (State, error)
	ResetError(sess Session) State
	Reenrich(sess Session) State
	Snapshot(sess Session) State
}

// mergeStrategy transfers guest lines into the authenticated cart. Kept as a
// named seam so the sequential per-line transfer can be swapped for a batched
// endpoint without touching the surrounding orchestration.
type mergeStrategy func(ctx context.Context, token string, lines []Line) error

type service struct {
	store   LocalStore
	gateway Gateway
	lookup  ProductLookup
	states  *States
	revoker TokenRevoker
	logg    *logger.Logger
	metrics *metrics.CartMetrics
	events  *Events
	merge   mergeStrategy
}

// ServiceParams carries the engine's collaborators.
type ServiceParams struct {
	Store   LocalStore
	Gateway Gateway
	Lookup  ProductLookup
	States  *States
	Revoker TokenRevoker
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
	Events  *Events
}

// NewService builds the reconciliation engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("local cart store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if params.Lookup == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if params.States == nil {
		return nil, fmt.Errorf("cart states required")
	}
	svc := &service{
		store:   params.Store,
		gateway: params.Gateway,
		lookup:  params.Lookup,
		states:  params.States,
		revoker: params.Revoker,
		logg:    params.Logger,
		metrics: params.Metrics,
		events:  params.Events,
	}
	svc.merge = sequentialMerge(params.Gateway, params.Logger)
	return svc, nil
}

// opResult is what each operation closure hands back on success.
type opResult struct {
	items []EnrichedLine
	guest bool
	event string
}

// run drives the status machine for one operation: loading while the closure
// executes, then succeeded or failed. Operations for the same session are
// serialized on the session lock.
func (s *service) run(ctx context.Context, sess Session, op string, fn func(ctx context.Context) (opResult, error)) (State, error) {
	if s.logg != nil {
		ctx = s.logg.WithSessionID(ctx, sess.ID)
		ctx = s.logg.WithOperation(ctx, op)
	}

	entry := s.states.session(sess.ID)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.state.Status = StatusLoading
	entry.state.Error = ""

	result, err := fn(ctx)
	if err != nil {
		entry.state.Status = StatusFailed
		entry.state.Error = errorMessage(err)
		s.metrics.IncOperation(op, "failed")
		return cloneState(entry.state), err
	}

	now := time.Now()
	entry.state.Items = result.items
	entry.state.Status = StatusSucceeded
	entry.state.Error = ""
	entry.state.IsGuestCart = result.guest
	entry.state.LastUpdated = &now
	entry.state.recomputeTotals()
	s.metrics.IncOperation(op, "succeeded")

	state := cloneState(entry.state)
	if result.event != "" {
		s.events.publish(ctx, result.event, sess.ID, state)
	}
	return state, nil
}

// FetchCart loads the cart from the upstream API when authenticated, falling
// back to (and refreshing) the local snapshot. The snapshot doubles as an
// offline cache for authenticated sessions.
func (s *service) FetchCart(ctx context.Context, sess Session) (State, error) {
	return s.run(ctx, sess, "fetch", func(ctx context.Context) (opResult, error) {
		local := s.store.Load(ctx, sess.ID)

		if sess.Token == "" {
			return opResult{items: Enrich(local, s.lookup), guest: true}, nil
		}

		remote, err := s.gateway.Fetch(ctx, sess.Token)
		if err == nil {
			enriched := Enrich(remote, s.lookup)
			s.store.Save(ctx, sess.ID, linesFromEnriched(enriched))
			return opResult{items: enriched, guest: false}, nil
		}

		authExpired := IsAuthExpired(err)
		if authExpired && s.revoker != nil {
			s.revoker.Revoke(ctx, sess.ID)
		}
		if len(local) > 0 {
			s.noteFallback(ctx, "fetch", err)
			return opResult{items: Enrich(local, s.lookup), guest: authExpired}, nil
		}
		if authExpired {
			// The token is gone and there is nothing local: an empty guest
			// cart, not a failure.
			s.noteFallback(ctx, "fetch", err)
			return opResult{items: []EnrichedLine{}, guest: true}, nil
		}
		return opResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart is unavailable")
	})
}

// AddToCart validates against the catalog, builds the optimistic line, then
// routes to the gateway or the local snapshot per the fallback law.
func (s *service) AddToCart(ctx context.Context, sess Session, productID, variantSKU string, quantity int) (State, error) {
	return s.run(ctx, sess, "add", func(ctx context.Context) (opResult, error) {
		pid := NormalizeID(productID)
		if pid == "" {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		sku := strings.TrimSpace(variantSKU)
		if sku == "" {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
		}
		if quantity < 1 {
			quantity = 1
		}

		product, ok := s.lookup.Product(pid)
		if !ok {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product not found in catalog")
		}
		variant, ok := product.VariantBySKU(sku)
		if !ok {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "variant not found for product")
		}
		if quantity > product.Stock {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}

		line := enrichedFromCatalog(product, variant, pid, quantity)

		if sess.Token == "" {
			return opResult{items: s.mergeIntoLocal(ctx, sess.ID, line), guest: true, event: EventCartUpdated}, nil
		}

		remote, err := s.gateway.Add(ctx, sess.Token, pid, sku, quantity)
		if err != nil {
			authExpired := s.absorbRemoteFailure(ctx, sess, "add", err)
			return opResult{items: s.mergeIntoLocal(ctx, sess.ID, line), guest: authExpired, event: EventCartUpdated}, nil
		}

		enriched := Enrich(remote, s.lookup)
		s.store.Save(ctx, sess.ID, linesFromEnriched(enriched))
		return opResult{items: enriched, guest: false, event: EventCartUpdated}, nil
	})
}

// UpdateCartQuantity sets a line's quantity. Quantity zero delegates to
// RemoveFromCart rather than duplicating its logic.
func (s *service) UpdateCartQuantity(ctx context.Context, sess Session, productID, variantSKU string, quantity int) (State, error) {
	if quantity == 0 {
		return s.RemoveFromCart(ctx, sess, productID, variantSKU)
	}
	return s.run(ctx, sess, "update", func(ctx context.Context) (opResult, error) {
		pid := NormalizeID(productID)
		if pid == "" {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		sku := strings.TrimSpace(variantSKU)
		if sku == "" {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "variant sku is required")
		}
		if quantity < 0 {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
		}
		if product, ok := s.lookup.Product(pid); ok && quantity > product.Stock {
			return opResult{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock")
		}

		if sess.Token == "" {
			return opResult{items: s.updateLocal(ctx, sess.ID, pid, sku, quantity), guest: true, event: EventCartUpdated}, nil
		}

		remote, err := s.gateway.UpdateQuantity(ctx, sess.Token, pid, sku, quantity)
		if err != nil {
			authExpired := s.absorbRemoteFailure(ctx, sess, "update", err)
			return opResult{items: s.updateLocal(ctx, sess.ID, pid, sku, quantity), guest: authExpired, event: EventCartUpdated}, nil
		}

		enriched := Enrich(remote, s.lookup)
		s.store.Save(ctx, sess.ID, linesFromEnriched(enriched))
		return opResult{items: enriched, guest: false, event: EventCartUpdated}, nil
	})
}

// RemoveFromCart filters the matching line out. Removing a line that is not
// present is not an error.
func (s *service) RemoveFromCart(ctx context.Context, sess Session, productID, variantSKU string) (State, error) {
	return s.run(ctx, sess, "remove", func(ctx context.Context) (opResult, error) {
		pid := NormalizeID(productID)
		sku := strings.TrimSpace(variantSKU)

		if sess.Token == "" {
			return opResult{items: s.removeLocal(ctx, sess.ID, pid, sku), guest: true, event: EventCartUpdated}, nil
		}

		remote, err := s.gateway.Remove(ctx, sess.Token, pid, sku)
		if err != nil {
			authExpired := s.absorbRemoteFailure(ctx, sess, "remove", err)
			return opResult{items: s.removeLocal(ctx, sess.ID, pid, sku), guest: authExpired, event: EventCartUpdated}, nil
		}

		enriched := Enrich(remote, s.lookup)
		s.store.Save(ctx, sess.ID, linesFromEnriched(enriched))
		return opResult{items: enriched, guest: false, event: EventCartUpdated}, nil
	})
}

// ClearCart wipes the cart. The upstream clear is best effort; the local
// snapshot is always deleted afterward regardless of the upstream outcome.
func (s *service) ClearCart(ctx context.Context, sess Session) (State, error) {
	return s.run(ctx, sess, "clear", func(ctx context.Context) (opResult, error) {
		guest := sess.Token == ""
		if !guest {
			if _, err := s.gateway.Clear(ctx, sess.Token); err != nil {
				guest = s.absorbRemoteFailure(ctx, sess, "clear", err)
			}
		}
		s.store.Clear(ctx, sess.ID)
		return opResult{items: []EnrichedLine{}, guest: guest, event: EventCartUpdated}, nil
	})
}

// MergeGuestCart transfers the guest snapshot into the authenticated cart
// after login, then re-fetches the authoritative result. The snapshot is
// consumed even when individual line merges fail; only a failed final
// re-fetch fails the operation, because then the merged state is unknown.
func (s *service) MergeGuestCart(ctx context.Context, sess Session) (State, error) {
	return s.run(ctx, sess, "merge", func(ctx context.Context) (opResult, error) {
		if sess.Token == "" {
			return opResult{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required to merge cart")
		}

		local := s.store.Load(ctx, sess.ID)
		if len(local) == 0 {
			return opResult{items: []EnrichedLine{}, guest: false}, nil
		}

		if err := s.merge(ctx, sess.Token, local); err != nil {
			if s.logg != nil {
				s.logg.Error(ctx, "guest cart merge left lines behind", err)
			}
		}
		s.store.Clear(ctx, sess.ID)

		remote, err := s.gateway.Fetch(ctx, sess.Token)
		if err != nil {
			// The one failure that propagates: the caller needs to know the
			// merged state is unknown. A 401 here still discards the token.
			if IsAuthExpired(err) && s.revoker != nil {
				s.revoker.Revoke(ctx, sess.ID)
			}
			return opResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merged cart could not be confirmed")
		}

		enriched := Enrich(remote, s.lookup)
		s.store.Save(ctx, sess.ID, linesFromEnriched(enriched))
		return opResult{items: enriched, guest: false, event: EventCartMerged}, nil
	})
}

// ResetError clears the error banner state.
func (s *service) ResetError(sess Session) State {
	return s.states.ResetError(sess.ID)
}

// Reenrich re-derives display fields against the current lookup.
func (s *service) Reenrich(sess Session) State {
	return s.states.Reenrich(sess.ID, s.lookup)
}

// Snapshot returns the current aggregate without running an operation.
func (s *service) Snapshot(sess Session) State {
	return s.states.Snapshot(sess.ID)
}

// absorbRemoteFailure logs and counts a gateway failure absorbed by the local
// fallback, revoking the token on 401. Returns true when the token was
// discarded, i.e. the session is now effectively guest.
func (s *service) absorbRemoteFailure(ctx context.Context, sess Session, op string, err error) bool {
	s.noteFallback(ctx, op, err)
	if IsAuthExpired(err) {
		if s.revoker != nil {
			s.revoker.Revoke(ctx, sess.ID)
		}
		return true
	}
	return false
}

func (s *service) noteFallback(ctx context.Context, op string, err error) {
	reason := FailureReason(err)
	s.metrics.IncFallback(op, reason)
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"fallback_reason": reason,
			"gateway_error":   err.Error(),
		})
		s.logg.Warn(ctx, "remote cart failure absorbed by local snapshot")
	}
}

// mergeIntoLocal applies the guest add semantics to the snapshot: matching
// lines accumulate quantity, new lines append.
func (s *service) mergeIntoLocal(ctx context.Context, sessionID string, line EnrichedLine) []EnrichedLine {
	lines := s.store.Load(ctx, sessionID)
	found := false
	for i := range lines {
		if sameLine(lines[i], line.ProductID, line.VariantSKU) {
			lines[i].Quantity = lines[i].quantityOrOne() + line.Quantity
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, line.AsLine())
	}
	s.store.Save(ctx, sessionID, lines)
	return Enrich(lines, s.lookup)
}

// updateLocal sets the matching line's quantity, dropping any line that ends
// at or below zero.
func (s *service) updateLocal(ctx context.Context, sessionID, productID, variantSKU string, quantity int) []EnrichedLine {
	lines := s.store.Load(ctx, sessionID)
	next := make([]Line, 0, len(lines))
	for _, line := range lines {
		if sameLine(line, productID, variantSKU) {
			line.Quantity = quantity
		}
		if line.Quantity > 0 {
			next = append(next, line)
		}
	}
	s.store.Save(ctx, sessionID, next)
	return Enrich(next, s.lookup)
}

func (s *service) removeLocal(ctx context.Context, sessionID, productID, variantSKU string) []EnrichedLine {
	lines := s.store.Load(ctx, sessionID)
	next := make([]Line, 0, len(lines))
	for _, line := range lines {
		if !sameLine(line, productID, variantSKU) {
			next = append(next, line)
		}
	}
	s.store.Save(ctx, sessionID, next)
	return Enrich(next, s.lookup)
}

// sequentialMerge transfers guest lines one upstream call per line. A failed
// line is recorded and skipped; the remaining lines still get their chance.
func sequentialMerge(gateway Gateway, logg *logger.Logger) mergeStrategy {
	return func(ctx context.Context, token string, lines []Line) error {
		var merr error
		for _, line := range lines {
			id := NormalizeID(line.ProductID)
			if id == "" {
				continue
			}
			if err := gateway.MergeLine(ctx, token, id, line.VariantSKU, line.quantityOrOne()); err != nil {
				merr = multierr.Append(merr, fmt.Errorf("merge line %s/%s: %w", id, line.VariantSKU, err))
				if logg != nil {
					logg.Error(ctx, "guest cart line merge failed", err)
				}
			}
		}
		return merr
	}
}

func errorMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	if err != nil {
		return err.Error()
	}
	return "unknown error"
}
