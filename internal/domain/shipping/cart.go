package shipping

import (
	"math"
	"strings"
)

// CartItem is a single cart line reduced to the identifier used for
// catalog resolution and the quantity being shipped.
type CartItem struct {
	Identifier string `json:"identifier"`
	Quantity   int    `json:"quantity"`
}

// identifierExtractor pulls one candidate identifier out of a raw cart
// line. Extractors are evaluated in order; the first non-empty result
// wins, which keeps the precedence explicit instead of buried in
// optional chaining.
type identifierExtractor func(RawCartItem) string

var cartIdentifierExtractors = []identifierExtractor{
	func(r RawCartItem) string { return strings.TrimSpace(r.SKU) },
	func(r RawCartItem) string { return strings.TrimSpace(r.ProductID) },
	func(r RawCartItem) string { return strings.TrimSpace(r.Title) },
}

// RawCartItem is a cart line as received from the storefront, which may
// carry any combination of sku, product id and title.
type RawCartItem struct {
	SKU       string  `json:"sku,omitempty"`
	ProductID string  `json:"productId,omitempty"`
	Title     string  `json:"title,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
}

// Identifier returns the first non-empty candidate in sku, product id,
// title order. Empty means the line cannot be resolved at all.
func (r RawCartItem) Identifier() string {
	for _, extract := range cartIdentifierExtractors {
		if id := extract(r); id != "" {
			return id
		}
	}
	return ""
}

// MaxQuantity caps a single cart line. The planner expands ships-alone
// lines into one package per unit, so an unbounded quantity is both an
// overflow hazard and a package-explosion hazard.
const MaxQuantity = 1000

// NormalizeQuantity clamps a raw quantity to a usable integer.
// Absent, non-finite or sub-unit quantities become 1; anything above
// MaxQuantity is capped there.
func NormalizeQuantity(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 1 {
		return 1
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return int(q)
}

// NewCartItem builds a CartItem from a raw storefront line.
// The boolean is false when no identifier could be extracted.
func NewCartItem(raw RawCartItem) (CartItem, bool) {
	id := raw.Identifier()
	if id == "" {
		return CartItem{}, false
	}
	return CartItem{Identifier: id, Quantity: NormalizeQuantity(raw.Quantity)}, true
}
