package shipping

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseState tracks a purchase attempt through its guard and
// execution steps. Rejected is terminal and reachable from any
// validation step; OrderUpdated is the successful terminal state.
type PurchaseState string

const (
	PurchaseStateRequested        PurchaseState = "requested"
	PurchaseStateAddressValidated PurchaseState = "address_validated"
	PurchaseStateParcelValidated  PurchaseState = "parcel_validated"
	PurchaseStateShipmentCreated  PurchaseState = "shipment_created"
	PurchaseStateRatePicked       PurchaseState = "rate_picked"
	PurchaseStatePurchased        PurchaseState = "purchased"
	PurchaseStateOrderUpdated     PurchaseState = "order_updated"
	PurchaseStateRejected         PurchaseState = "rejected"
)

// LabelPurchaseResult is the durable outcome of a label purchase, owned
// by the order it was bought for. Once persisted the order's
// labelPurchased flag is terminal: later attempts return this result
// instead of purchasing again.
type LabelPurchaseResult struct {
	ShipmentID     string          `json:"shipmentId"`
	TrackerID      string          `json:"trackerId,omitempty"`
	LabelURL       string          `json:"labelUrl,omitempty"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	TrackingURL    string          `json:"trackingUrl,omitempty"`
	Carrier        string          `json:"carrier,omitempty"`
	Service        string          `json:"service,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	Currency       string          `json:"currency,omitempty"`
	PurchasedAt    time.Time       `json:"purchasedAt"`
}
