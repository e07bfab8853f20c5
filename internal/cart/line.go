package cart

import (
	"encoding/json"
	"strings"
)

const (
	// UnknownProductID marks lines whose identifier could not be normalized.
	UnknownProductID = "unknown"

	nameFallback     = "Product not found"
	placeholderImage = "/images/placeholder.png"

	// unknownStock is the sentinel used when the catalog has no stock figure
	// for a line; callers treat it as "no known ceiling".
	unknownStock = 999999
)

// FlexID is a product identifier as it arrives on the wire: either a plain
// JSON string or a legacy object carrying `_id`. It always decodes to the
// embedded string form so downstream comparisons work on one shape.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(strings.TrimSpace(s))
		return nil
	}
	var obj struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		*f = FlexID(strings.TrimSpace(obj.ID))
		return nil
	}
	// Unrecognized shapes degrade to empty rather than failing the decode;
	// the enricher turns empty ids into a degraded display line.
	*f = ""
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

func (f FlexID) String() string { return string(f) }

// NormalizeID collapses the raw id shapes seen at ingress boundaries (plain
// string, FlexID, or a map carrying `_id`) into the canonical trimmed string.
// Idempotent: normalizing an already-normalized id returns it unchanged.
func NormalizeID(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case FlexID:
		return strings.TrimSpace(string(v))
	case map[string]any:
		if id, ok := v["_id"].(string); ok {
			return strings.TrimSpace(id)
		}
		return ""
	default:
		return ""
	}
}

// Line is the minimal truth unit of a cart as persisted remotely or in the
// guest snapshot: identifiers plus quantity, optionally carrying display
// fields the source already resolved.
type Line struct {
	ProductID   FlexID   `json:"productId"`
	VariantSKU  string   `json:"variantSku"`
	Quantity    int      `json:"quantity"`
	Name        string   `json:"name,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Images      []string `json:"images,omitempty"`
	Description string   `json:"description,omitempty"`
	VariantName string   `json:"variantName,omitempty"`
}

// hasDisplayFields reports whether the line already carries everything needed
// to render it: a name, a usable price and at least one image.
func (l Line) hasDisplayFields() bool {
	return l.Name != "" && l.Price != nil && *l.Price >= 0 && len(l.Images) > 0
}

func (l Line) quantityOrOne() int {
	if l.Quantity >= 1 {
		return l.Quantity
	}
	return 1
}

// EnrichedLine is a display-ready cart line: every field is populated, with
// fallbacks where the catalog had nothing better.
type EnrichedLine struct {
	ProductID   string   `json:"productId"`
	VariantSKU  string   `json:"variantSku"`
	Quantity    int      `json:"quantity"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	VariantName string   `json:"variantName"`
	Stock       int      `json:"stock"`
}

// AsLine converts back to the persisted shape, keeping the resolved display
// fields so re-reads of the snapshot stay display-ready.
func (e EnrichedLine) AsLine() Line {
	price := e.Price
	return Line{
		ProductID:   FlexID(e.ProductID),
		VariantSKU:  e.VariantSKU,
		Quantity:    e.Quantity,
		Name:        e.Name,
		Price:       &price,
		Images:      append([]string(nil), e.Images...),
		Description: e.Description,
		VariantName: e.VariantName,
	}
}

func linesFromEnriched(items []EnrichedLine) []Line {
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, item.AsLine())
	}
	return lines
}

// sameLine matches lines on the normalized (productId, variantSku) pair.
func sameLine(a Line, productID, variantSKU string) bool {
	return NormalizeID(a.ProductID) == productID && a.VariantSKU == variantSKU
}
