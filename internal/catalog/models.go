package catalog

import "time"

// Product is the catalog record cart enrichment reads from. IDs are plain
// strings: the storefront predates UUID discipline and some identifiers are
// legacy Mongo object ids.
type Product struct {
	ID          string `gorm:"primaryKey;column:id"`
	Name        string
	Description string
	Stock       int
	Images      []ProductImage `gorm:"foreignKey:ProductID"`
	Variants    []Variant      `gorm:"foreignKey:ProductID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string { return "products" }

// ProductImage holds one ordered display image.
type ProductImage struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID string `gorm:"index"`
	URL       string
	Position  int
}

func (ProductImage) TableName() string { return "product_images" }

// Variant is a purchasable variation of a product.
type Variant struct {
	SKU       string `gorm:"primaryKey;column:sku"`
	ProductID string `gorm:"index"`
	Name      string
	Price     float64
	Position  int
}

func (Variant) TableName() string { return "product_variants" }

// ImageURLs returns the product's image URLs in display order.
func (p Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.URL != "" {
			urls = append(urls, img.URL)
		}
	}
	return urls
}

// VariantBySKU finds the variant matching sku.
func (p Product) VariantBySKU(sku string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.SKU == sku {
			return v, true
		}
	}
	return Variant{}, false
}
