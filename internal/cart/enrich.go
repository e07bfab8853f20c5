package cart

import (
	"github.com/angelmondragon/storefront-cart/internal/catalog"
)

// ProductLookup is the read-only catalog surface enrichment needs.
type ProductLookup interface {
	Product(id string) (catalog.Product, bool)
}

// Enrich turns raw cart lines into display-ready ones against the product
// lookup. Pure: no I/O, no input mutation, never fails, and the result always
// has the same length as the input. A nil lookup (catalog not yet loaded)
// degrades every unresolved field to its fallback.
func Enrich(lines []Line, lookup ProductLookup) []EnrichedLine {
	enriched := make([]EnrichedLine, 0, len(lines))
	for _, line := range lines {
		enriched = append(enriched, enrichLine(line, lookup))
	}
	return enriched
}

func enrichLine(line Line, lookup ProductLookup) EnrichedLine {
	id := NormalizeID(line.ProductID)
	if id == "" {
		return degradedLine(line)
	}

	// Lines the source already resolved pass through untouched apart from id
	// normalization and the quantity default.
	if line.hasDisplayFields() {
		return EnrichedLine{
			ProductID:   id,
			VariantSKU:  line.VariantSKU,
			Quantity:    line.quantityOrOne(),
			Name:        line.Name,
			Price:       *line.Price,
			Images:      append([]string(nil), line.Images...),
			Description: line.Description,
			VariantName: line.VariantName,
			Stock:       unknownStock,
		}
	}

	var product catalog.Product
	found := false
	if lookup != nil {
		product, found = lookup.Product(id)
	}
	if !found {
		out := degradedLine(line)
		out.ProductID = id
		return out
	}

	price := 0.0
	variantName := line.VariantName
	if variant, ok := product.VariantBySKU(line.VariantSKU); ok {
		price = variant.Price
		if variantName == "" {
			variantName = variant.Name
		}
	} else if len(product.Variants) > 0 {
		price = product.Variants[0].Price
	}
	if price < 0 {
		price = 0
	}

	images := product.ImageURLs()
	if len(images) == 0 {
		images = []string{placeholderImage}
	}

	return EnrichedLine{
		ProductID:   id,
		VariantSKU:  line.VariantSKU,
		Quantity:    line.quantityOrOne(),
		Name:        product.Name,
		Price:       price,
		Images:      images,
		Description: product.Description,
		VariantName: variantName,
		Stock:       product.Stock,
	}
}

func degradedLine(line Line) EnrichedLine {
	return EnrichedLine{
		ProductID:   UnknownProductID,
		VariantSKU:  line.VariantSKU,
		Quantity:    line.quantityOrOne(),
		Name:        nameFallback,
		Price:       0,
		Images:      []string{placeholderImage},
		Description: "",
		VariantName: line.VariantName,
		Stock:       unknownStock,
	}
}

// enrichedFromCatalog builds the optimistic line for an add operation straight
// from the catalog, so the local update is correct before any network call.
func enrichedFromCatalog(product catalog.Product, variant catalog.Variant, productID string, quantity int) EnrichedLine {
	images := product.ImageURLs()
	if len(images) == 0 {
		images = []string{placeholderImage}
	}
	price := variant.Price
	if price < 0 {
		price = 0
	}
	return EnrichedLine{
		ProductID:   productID,
		VariantSKU:  variant.SKU,
		Quantity:    quantity,
		Name:        product.Name,
		Price:       price,
		Images:      images,
		Description: product.Description,
		VariantName: variant.Name,
		Stock:       product.Stock,
	}
}
