package catalog

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"gorm.io/gorm"
)

// Repository reads catalog rows for the in-memory lookup.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// All loads every product with its images and variants, images and variants
// ordered by position.
func (r *Repository) All(ctx context.Context) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&products).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog")
	}
	return products, nil
}

// Refresh replaces the lookup contents from the database.
func (r *Repository) Refresh(ctx context.Context, lookup *Lookup) error {
	products, err := r.All(ctx)
	if err != nil {
		return err
	}
	lookup.Replace(products)
	return nil
}
