package models

import (
	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// ProductModel is the persistence model for a product's shipping
// profile. Dimensions live in two generations of columns: structured
// length/width/height, and a legacy free-text "LxWxH" string kept from
// the old catalog import. ToDomain prefers the structured columns.
type ProductModel struct {
	ID               string  `gorm:"type:varchar(64);primary_key"`
	SKU              string  `gorm:"type:varchar(100);index"`
	Title            string  `gorm:"type:varchar(200);not null;index"`
	Weight           float64 `gorm:"not null;default:0"`
	Length           float64 `gorm:"not null;default:0"`
	Width            float64 `gorm:"not null;default:0"`
	Height           float64 `gorm:"not null;default:0"`
	LegacyDimensions string  `gorm:"type:varchar(100)"`
	ShipsAlone       bool    `gorm:"not null;default:false"`
	ShippingClass    string  `gorm:"type:varchar(50)"`
	RequiresShipping bool    `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a shipping profile.
func (m *ProductModel) ToDomain() shipping.ProductShippingProfile {
	profile := shipping.ProductShippingProfile{
		ID:               m.ID,
		Title:            m.Title,
		SKU:              m.SKU,
		Weight:           m.Weight,
		ShipsAlone:       m.ShipsAlone,
		ShippingClass:    m.ShippingClass,
		RequiresShipping: m.RequiresShipping,
	}

	structured := shipping.Dimensions{Length: m.Length, Width: m.Width, Height: m.Height}
	if structured.Positive() {
		profile.Dimensions = &structured
	} else if dims, ok := shipping.ParseLegacyDimensions(m.LegacyDimensions); ok {
		profile.Dimensions = &dims
	}
	return profile
}

// FromDomain populates the persistence model from a shipping profile.
func (m *ProductModel) FromDomain(p shipping.ProductShippingProfile) {
	m.ID = p.ID
	m.SKU = p.SKU
	m.Title = p.Title
	m.Weight = p.Weight
	m.ShipsAlone = p.ShipsAlone
	m.ShippingClass = p.ShippingClass
	m.RequiresShipping = p.RequiresShipping
	if p.Dimensions != nil {
		m.Length = p.Dimensions.Length
		m.Width = p.Dimensions.Width
		m.Height = p.Dimensions.Height
	}
}
