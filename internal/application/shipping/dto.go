package shipping

import (
	"github.com/shopspring/decimal"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// Cache source values reported on quote responses.
const (
	CacheSourceFresh = "fresh"
	CacheSourceCache = "cache"
)

// QuoteItemInput is one storefront cart line. The explicit Identifier
// takes precedence; otherwise sku, product id and title are tried in
// order.
type QuoteItemInput struct {
	Identifier string  `json:"identifier,omitempty"`
	SKU        string  `json:"sku,omitempty"`
	ProductID  string  `json:"productId,omitempty"`
	Title      string  `json:"title,omitempty"`
	Quantity   float64 `json:"quantity,omitempty"`
}

// QuoteRequest asks for carrier rates for a cart and destination.
type QuoteRequest struct {
	Cart        []QuoteItemInput `json:"cart"`
	Destination shipping.Address `json:"destination"`
}

// QuoteResponse is the quote outcome. Freight and InstallOnly are
// success outcomes instructing the caller to route the cart elsewhere;
// when both are false the rate fields are populated.
type QuoteResponse struct {
	Freight         bool               `json:"freight"`
	FreightReason   string             `json:"freightReason,omitempty"`
	InstallOnly     bool               `json:"installOnly"`
	Rates           []shipping.Rate    `json:"rates,omitempty"`
	BestRate        *shipping.Rate     `json:"bestRate,omitempty"`
	Packages        []shipping.Package `json:"packages,omitempty"`
	CacheSource     string             `json:"cacheSource,omitempty"`
	MissingProducts []string           `json:"missingProducts,omitempty"`
}

// PurchaseRequest asks to buy a label for an order. ManualTrigger is
// the marker proving a human authorized spending money; without it the
// request is rejected before anything else is looked at.
type PurchaseRequest struct {
	OrderID       string `json:"orderId"`
	ManualTrigger bool   `json:"manualTrigger"`
	RateID        string `json:"rateId,omitempty"`
}

// PurchaseResponse is the purchase outcome for a successful or
// short-circuited (already purchased) attempt.
type PurchaseResponse struct {
	Success          bool                   `json:"success"`
	State            shipping.PurchaseState `json:"state"`
	AlreadyPurchased bool                   `json:"alreadyPurchased,omitempty"`
	ShipmentID       string                 `json:"shipmentId,omitempty"`
	TrackingNumber   string                 `json:"trackingNumber,omitempty"`
	TrackingURL      string                 `json:"trackingUrl,omitempty"`
	LabelURL         string                 `json:"labelUrl,omitempty"`
	Carrier          string                 `json:"carrier,omitempty"`
	Service          string                 `json:"service,omitempty"`
	Cost             decimal.Decimal        `json:"cost"`
	Currency         string                 `json:"currency,omitempty"`
}

func purchaseResponseFromResult(result shipping.LabelPurchaseResult, already bool) *PurchaseResponse {
	return &PurchaseResponse{
		Success:          true,
		State:            shipping.PurchaseStateOrderUpdated,
		AlreadyPurchased: already,
		ShipmentID:       result.ShipmentID,
		TrackingNumber:   result.TrackingNumber,
		TrackingURL:      result.TrackingURL,
		LabelURL:         result.LabelURL,
		Carrier:          result.Carrier,
		Service:          result.Service,
		Cost:             result.Cost,
		Currency:         result.Currency,
	}
}
