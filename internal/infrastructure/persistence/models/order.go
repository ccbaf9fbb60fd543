package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// OrderModel is the persistence model for the fulfillment slice of an
// order. Cart lines and the purchased-label outcome are stored as JSON
// documents; scalar columns carry the fields the purchase flow guards
// and filters on.
type OrderModel struct {
	ID                string `gorm:"type:varchar(64);primary_key"`
	OrderNumber       string `gorm:"type:varchar(50);not null;index"`
	ItemsJSON         string `gorm:"type:jsonb"`
	ShipName          string `gorm:"type:varchar(200)"`
	ShipPhone         string `gorm:"type:varchar(50)"`
	ShipEmail         string `gorm:"type:varchar(200)"`
	ShipLine1         string `gorm:"type:varchar(200)"`
	ShipLine2         string `gorm:"type:varchar(200)"`
	ShipCity          string `gorm:"type:varchar(100)"`
	ShipState         string `gorm:"type:varchar(50)"`
	ShipPostalCode    string `gorm:"type:varchar(20)"`
	ShipCountry       string `gorm:"type:varchar(2)"`
	LabelPurchased    bool   `gorm:"not null;default:false"`
	LabelJSON         string `gorm:"type:jsonb"`
	ArchivedLabelURL  string `gorm:"type:varchar(500)"`
	LastPurchaseError string `gorm:"type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToFulfillment converts the persistence model to the fulfillment view
// the purchase flow reads.
func (m *OrderModel) ToFulfillment() (*shipping.OrderFulfillment, error) {
	fulfillment := &shipping.OrderFulfillment{
		OrderID:        m.ID,
		OrderNumber:    m.OrderNumber,
		LabelPurchased: m.LabelPurchased,
		ShippingAddress: shipping.Address{
			Name:       m.ShipName,
			Phone:      m.ShipPhone,
			Email:      m.ShipEmail,
			Line1:      m.ShipLine1,
			Line2:      m.ShipLine2,
			City:       m.ShipCity,
			State:      m.ShipState,
			PostalCode: m.ShipPostalCode,
			Country:    m.ShipCountry,
		},
	}

	if m.ItemsJSON != "" {
		if err := json.Unmarshal([]byte(m.ItemsJSON), &fulfillment.Items); err != nil {
			return nil, fmt.Errorf("decode order %s items: %w", m.ID, err)
		}
	}
	if m.LabelJSON != "" {
		var label shipping.LabelPurchaseResult
		if err := json.Unmarshal([]byte(m.LabelJSON), &label); err != nil {
			return nil, fmt.Errorf("decode order %s label: %w", m.ID, err)
		}
		fulfillment.Label = &label
	}
	return fulfillment, nil
}

// SetItems serializes cart lines into the items column.
func (m *OrderModel) SetItems(items []shipping.CartItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	m.ItemsJSON = string(raw)
	return nil
}

// SetAddress populates the shipping address columns.
func (m *OrderModel) SetAddress(addr shipping.Address) {
	m.ShipName = addr.Name
	m.ShipPhone = addr.Phone
	m.ShipEmail = addr.Email
	m.ShipLine1 = addr.Line1
	m.ShipLine2 = addr.Line2
	m.ShipCity = addr.City
	m.ShipState = addr.State
	m.ShipPostalCode = addr.PostalCode
	m.ShipCountry = addr.Country
}

// ShippingLogModel is one entry in an order's append-only shipping
// event log.
type ShippingLogModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"type:varchar(64);not null;index"`
	Event     string `gorm:"type:varchar(50);not null"`
	Detail    string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for GORM
func (ShippingLogModel) TableName() string {
	return "shipping_logs"
}
