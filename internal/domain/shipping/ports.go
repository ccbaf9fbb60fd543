package shipping

import (
	"context"
	"time"
)

// ProductCatalog fetches shipping profiles for a set of candidate keys
// (SKUs, ids, titles) in one batched read. Implementations must never
// fan out to per-key lookups.
type ProductCatalog interface {
	ProfilesByKeys(ctx context.Context, keys []string) ([]ProductShippingProfile, error)
}

// OrderFulfillment is the slice of an order the engine reads before a
// purchase: destination, cart lines, and any persisted label outcome.
type OrderFulfillment struct {
	OrderID         string
	OrderNumber     string
	Items           []CartItem
	ShippingAddress Address
	LabelPurchased  bool
	Label           *LabelPurchaseResult
}

// OrderStore reads and updates the fulfillment fields of an order.
// RecordLabelPurchase must be atomic: either every label field lands or
// none do, and it must refuse a second write for the same order.
type OrderStore interface {
	Fulfillment(ctx context.Context, orderID string) (*OrderFulfillment, error)
	RecordLabelPurchase(ctx context.Context, orderID string, result LabelPurchaseResult) error
	// RecordPurchaseFailure stores a last-attempt-failed marker so the
	// next attempt is not silently blocked. Best effort.
	RecordPurchaseFailure(ctx context.Context, orderID, message string) error
	// AppendShippingLog appends one entry to the order's append-only
	// shipping event log. Best effort after a purchase succeeds.
	AppendShippingLog(ctx context.Context, orderID, event, detail string) error
	// ArchiveLabelCopy stores the durable mirror URL once the label PDF
	// has been copied to object storage. Best effort.
	ArchiveLabelCopy(ctx context.Context, orderID, archivedURL string) error
}

// QuoteCache stores quote records keyed by the canonical quote key.
// Put is an upsert; concurrent writers for the same key are tolerated
// because identical inputs produce semantically identical records.
type QuoteCache interface {
	Get(ctx context.Context, key string) (*QuoteRecord, error)
	Put(ctx context.Context, record *QuoteRecord, ttl time.Duration) error
}

// ProviderShipment is a rateable shipment created at the carrier
// provider. Shipments created during quoting exist solely to obtain
// rates and are never purchased.
type ProviderShipment struct {
	ID    string
	Rates []Rate
}

// TransitEstimate is delivery-confidence data for one rate, keyed by
// rate id in the provider response.
type TransitEstimate struct {
	// TransitDays is the confidence-weighted transit estimate.
	TransitDays int
	// Confidence is the percentile confidence (0-100) of on-time
	// delivery within the rate's basic estimate.
	Confidence int
}

// PurchasedLabel is the provider's response to buying a rate.
type PurchasedLabel struct {
	ShipmentID     string
	TrackerID      string
	TrackingNumber string
	TrackingURL    string
	LabelURL       string
	Carrier        string
	Service        string
	Cost           string
	Currency       string
}

// RateProvider is the carrier rate and label provider. All calls are
// single round trips; transient failures surface as errors.
type RateProvider interface {
	CreateShipment(ctx context.Context, from, to Address, parcel Package) (*ProviderShipment, error)
	// TransitEstimates is best effort: a failure only omits confidence
	// data, it never aborts the quote.
	TransitEstimates(ctx context.Context, shipmentID string) (map[string]TransitEstimate, error)
	Shipment(ctx context.Context, shipmentID string) (*ProviderShipment, error)
	BuyRate(ctx context.Context, shipmentID, rateID string) (*PurchasedLabel, error)
	// CreatePackingSlip asks the provider for a supplementary form and
	// returns its URL. Best effort after purchase.
	CreatePackingSlip(ctx context.Context, shipmentID string) (string, error)
}

// LabelArchiver mirrors purchase artifacts to durable storage and
// returns the stored copy's URL.
type LabelArchiver interface {
	ArchiveLabel(ctx context.Context, orderID, labelURL string) (string, error)
	ArchiveTrackingQR(ctx context.Context, orderID string, png []byte) (string, error)
}

// QRGenerator renders a scannable code for a tracking URL.
type QRGenerator interface {
	TrackingQR(trackingURL string) ([]byte, error)
}
