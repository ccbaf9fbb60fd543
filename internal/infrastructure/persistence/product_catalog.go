package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/persistence/models"
)

// GormProductCatalog implements shipping.ProductCatalog using GORM.
type GormProductCatalog struct {
	db *gorm.DB
}

// NewGormProductCatalog creates a new GormProductCatalog
func NewGormProductCatalog(db *gorm.DB) *GormProductCatalog {
	return &GormProductCatalog{db: db}
}

// ProfilesByKeys fetches every profile whose sku, id or title matches
// one of the keys, in a single query. Cart identifiers are ambiguous
// about which facet they name, so all three columns are searched and
// precedence is applied downstream during resolution.
func (r *GormProductCatalog) ProfilesByKeys(ctx context.Context, keys []string) ([]shipping.ProductShippingProfile, error) {
	lookup := shipping.LookupKeys(keys)
	if len(lookup) == 0 {
		return nil, nil
	}

	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("sku IN ? OR id IN ? OR title IN ?", lookup, lookup, lookup).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	profiles := make([]shipping.ProductShippingProfile, 0, len(rows))
	for i := range rows {
		profiles = append(profiles, rows[i].ToDomain())
	}
	return profiles, nil
}
