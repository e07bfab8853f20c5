package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/metrics"
)

const responseBodyReadLimit int64 = 1024

// Gateway is the contract for the authenticated upstream cart API. Callers
// must not invoke it without a bearer token; routing tokenless operations to
// the local snapshot is the reconciliation engine's job.
type Gateway interface {
	Fetch(ctx context.Context, token string) ([]Line, error)
	Add(ctx context.Context, token, productID, variantSKU string, quantity int) ([]Line, error)
	UpdateQuantity(ctx context.Context, token, productID, variantSKU string, quantity int) ([]Line, error)
	Remove(ctx context.Context, token, productID, variantSKU string) ([]Line, error)
	Clear(ctx context.Context, token string) ([]Line, error)
	MergeLine(ctx context.Context, token, productID, variantSKU string, quantity int) error
}

// HTTPGateway talks to the upstream cart API over HTTP.
type HTTPGateway struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.CartMetrics
}

// GatewayOption configures optional gateway behavior.
type GatewayOption func(*HTTPGateway)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGatewayMetrics wires upstream call duration observation.
func WithGatewayMetrics(m *metrics.CartMetrics) GatewayOption {
	return func(g *HTTPGateway) {
		g.metrics = m
	}
}

// NewHTTPGateway builds the upstream cart client.
func NewHTTPGateway(baseURL string, timeout time.Duration, opts ...GatewayOption) (*HTTPGateway, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("cart gateway base url is required")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	gateway := &HTTPGateway{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(gateway)
		}
	}
	return gateway, nil
}

// cartEnvelope is the upstream response shape for every cart endpoint.
type cartEnvelope struct {
	Cart struct {
		Items []Line `json:"items"`
	} `json:"cart"`
}

type linePayload struct {
	ProductID  string `json:"productId"`
	VariantSKU string `json:"variantSku"`
	Quantity   int    `json:"quantity"`
}

// Fetch returns the authenticated cart.
func (g *HTTPGateway) Fetch(ctx context.Context, token string) ([]Line, error) {
	return g.do(ctx, "fetch", http.MethodGet, "/cart", token, nil)
}

// Add puts one line into the cart and returns the authoritative result.
func (g *HTTPGateway) Add(ctx context.Context, token, productID, variantSKU string, quantity int) ([]Line, error) {
	return g.do(ctx, "add", http.MethodPost, "/cart", token, &linePayload{
		ProductID:  productID,
		VariantSKU: variantSKU,
		Quantity:   quantity,
	})
}

// UpdateQuantity sets the quantity for one line.
func (g *HTTPGateway) UpdateQuantity(ctx context.Context, token, productID, variantSKU string, quantity int) ([]Line, error) {
	path := "/cart/" + url.PathEscape(productID)
	return g.do(ctx, "update", http.MethodPut, path, token, &linePayload{
		ProductID:  productID,
		VariantSKU: variantSKU,
		Quantity:   quantity,
	})
}

// Remove deletes one line.
func (g *HTTPGateway) Remove(ctx context.Context, token, productID, variantSKU string) ([]Line, error) {
	query := url.Values{}
	query.Set("productId", productID)
	query.Set("variantSku", variantSKU)
	return g.do(ctx, "remove", http.MethodDelete, "/cart/item?"+query.Encode(), token, nil)
}

// Clear empties the cart.
func (g *HTTPGateway) Clear(ctx context.Context, token string) ([]Line, error) {
	return g.do(ctx, "clear", http.MethodDelete, "/cart", token, nil)
}

// MergeLine adds one guest line into the authenticated cart during merge.
func (g *HTTPGateway) MergeLine(ctx context.Context, token, productID, variantSKU string, quantity int) error {
	_, err := g.do(ctx, "merge_line", http.MethodPost, "/cart", token, &linePayload{
		ProductID:  productID,
		VariantSKU: variantSKU,
		Quantity:   quantity,
	})
	return err
}

func (g *HTTPGateway) do(ctx context.Context, op, method, path, token string, payload *linePayload) ([]Line, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "bearer token required for cart api")
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal cart request")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build cart request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	g.metrics.ObserveGatewayDuration(op, time.Since(start))
	if err != nil {
		// No response at all: a transport failure, kept distinguishable from
		// HTTP errors for logging and metrics.
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart api unreachable").
			WithDetails(map[string]any{"op": op, "reason": FailureReasonNetwork})
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "cart token rejected").
			WithDetails(map[string]any{"op": op})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(
			pkgerrors.CodeDependency,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))),
			"cart api error",
		).WithDetails(map[string]any{"op": op, "reason": FailureReasonHTTP})
	}

	var envelope cartEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode cart response").
			WithDetails(map[string]any{"op": op, "reason": FailureReasonHTTP})
	}
	return envelope.Cart.Items, nil
}

// Failure reasons used for fallback observability.
const (
	FailureReasonAuth    = "auth"
	FailureReasonHTTP    = "http"
	FailureReasonNetwork = "network"
)

// IsAuthExpired reports whether err is an upstream 401.
func IsAuthExpired(err error) bool {
	return pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized)
}

// FailureReason classifies a gateway error for logs and metrics.
func FailureReason(err error) string {
	if IsAuthExpired(err) {
		return FailureReasonAuth
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return FailureReasonNetwork
	}
	if details, ok := typed.Details().(map[string]any); ok {
		if reason, ok := details["reason"].(string); ok {
			return reason
		}
	}
	return FailureReasonHTTP
}
