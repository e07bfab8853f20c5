package cart

import (
	"encoding/json"
	"testing"
)

func TestFlexIDUnmarshal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain string", raw: `"prod-1"`, want: "prod-1"},
		{name: "padded string", raw: `"  prod-1  "`, want: "prod-1"},
		{name: "legacy object", raw: `{"_id":"prod-2"}`, want: "prod-2"},
		{name: "padded legacy object", raw: `{"_id":" prod-2 "}`, want: "prod-2"},
		{name: "object without _id", raw: `{"id":"prod-3"}`, want: ""},
		{name: "number degrades to empty", raw: `42`, want: ""},
		{name: "null degrades to empty", raw: `null`, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var id FlexID
			if err := json.Unmarshal([]byte(tc.raw), &id); err != nil {
				t.Fatalf("unmarshal %s: %v", tc.raw, err)
			}
			if string(id) != tc.want {
				t.Errorf("got %q want %q", id, tc.want)
			}
		})
	}
}

func TestFlexIDMarshalAsString(t *testing.T) {
	t.Parallel()

	line := Line{ProductID: FlexID("prod-1"), VariantSKU: "sku-1", Quantity: 2}
	data, err := json.Marshal(line)
	if err != nil {
		t.Fatalf("marshal line: %v", err)
	}

	var decoded Line
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if decoded.ProductID != "prod-1" {
		t.Errorf("product id round trip got %q", decoded.ProductID)
	}
}

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  any
		want string
	}{
		{name: "nil", raw: nil, want: ""},
		{name: "string", raw: " prod-1 ", want: "prod-1"},
		{name: "flexid", raw: FlexID(" prod-1 "), want: "prod-1"},
		{name: "legacy map", raw: map[string]any{"_id": "prod-2"}, want: "prod-2"},
		{name: "map without _id", raw: map[string]any{"id": "prod-2"}, want: ""},
		{name: "map with non-string _id", raw: map[string]any{"_id": 7}, want: ""},
		{name: "unsupported type", raw: 42, want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeID(tc.raw); got != tc.want {
				t.Errorf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeIDIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []any{" prod-1 ", map[string]any{"_id": " prod-2 "}, FlexID("prod-3"), nil, 7}
	for _, raw := range inputs {
		once := NormalizeID(raw)
		if twice := NormalizeID(once); twice != once {
			t.Errorf("normalize not idempotent: %q then %q", once, twice)
		}
	}
}

func TestQuantityOrOne(t *testing.T) {
	t.Parallel()

	if got := (Line{Quantity: 0}).quantityOrOne(); got != 1 {
		t.Errorf("zero quantity got %d want 1", got)
	}
	if got := (Line{Quantity: -3}).quantityOrOne(); got != 1 {
		t.Errorf("negative quantity got %d want 1", got)
	}
	if got := (Line{Quantity: 5}).quantityOrOne(); got != 5 {
		t.Errorf("positive quantity got %d want 5", got)
	}
}

func TestAsLineKeepsDisplayFields(t *testing.T) {
	t.Parallel()

	enriched := EnrichedLine{
		ProductID:  "prod-1",
		VariantSKU: "sku-1",
		Quantity:   2,
		Name:       "Widget",
		Price:      9.99,
		Images:     []string{"/a.png"},
		Stock:      10,
	}

	line := enriched.AsLine()
	if !line.hasDisplayFields() {
		t.Fatalf("converted line lost display fields: %+v", line)
	}
	if line.Price == nil || *line.Price != 9.99 {
		t.Errorf("price not carried: %+v", line.Price)
	}
}
