package shipping

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when the provider omits one.
const DefaultCurrency = "USD"

// Rate is a carrier rate normalized from whatever shape the provider
// returns. Amount is always positive: zero-priced and unparseable rates
// are dropped during normalization, before ranking.
type Rate struct {
	ID          string          `json:"rateId"`
	CarrierID   string          `json:"carrierId,omitempty"`
	CarrierCode string          `json:"carrierCode,omitempty"`
	Carrier     string          `json:"carrier"`
	Service     string          `json:"service"`
	ServiceCode string          `json:"serviceCode,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`

	// DeliveryDays is the carrier's basic transit estimate.
	DeliveryDays *int `json:"deliveryDays,omitempty"`
	// EstimatedDeliveryDate is the carrier's projected delivery date.
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate,omitempty"`
	// DeliveryConfidence is the percentile confidence (0-100) that the
	// shipment arrives within DeliveryDays, when the provider exposes
	// transit-time data. Nil means no confidence data.
	DeliveryConfidence *int `json:"deliveryConfidence,omitempty"`
	// ConfidenceTransitDays is the confidence-weighted transit estimate
	// used in place of DeliveryDays when present.
	ConfidenceTransitDays *int `json:"confidenceTransitDays,omitempty"`
	// Guaranteed reports whether the carrier guarantees the date.
	Guaranteed bool `json:"deliveryDateGuaranteed"`
}

// TransitDays returns the estimate the selector ranks on: the
// confidence-weighted figure when present, else the basic one.
func (r Rate) TransitDays() *int {
	if r.ConfidenceTransitDays != nil {
		return r.ConfidenceTransitDays
	}
	return r.DeliveryDays
}

// Confidence returns the delivery confidence, with 100 implied for
// rates that carry no transit-time data.
func (r Rate) Confidence() int {
	if r.DeliveryConfidence == nil {
		return 100
	}
	return *r.DeliveryConfidence
}

// FilterPositive keeps only rates with a finite positive amount.
func FilterPositive(rates []Rate) []Rate {
	kept := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if r.Amount.IsPositive() {
			kept = append(kept, r)
		}
	}
	return kept
}

// SortByAmount returns a copy sorted cheapest first. Provider ordering
// is never trusted.
func SortByAmount(rates []Rate) []Rate {
	sorted := make([]Rate, len(rates))
	copy(sorted, rates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.LessThan(sorted[j].Amount)
	})
	return sorted
}
