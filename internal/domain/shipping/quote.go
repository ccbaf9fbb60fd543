package shipping

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// quoteKeyCart is the canonical form of one cart line inside the key
// payload. Field order matters: encoding/json emits struct fields in
// declaration order, which keeps the serialization stable.
type quoteKeyCart struct {
	Identifier string `json:"identifier"`
	Quantity   int    `json:"quantity"`
}

// quoteKeyDestination folds the destination into an address-format
// insensitive (but not typo-tolerant) form: street and city lowercased,
// state, postal code and country uppercased, everything trimmed.
type quoteKeyDestination struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type quoteKeyPayload struct {
	Cart        []quoteKeyCart      `json:"cart"`
	Destination quoteKeyDestination `json:"destination"`
}

func canonicalCart(items []CartItem) []quoteKeyCart {
	cart := make([]quoteKeyCart, 0, len(items))
	for _, it := range items {
		cart = append(cart, quoteKeyCart{
			Identifier: strings.TrimSpace(it.Identifier),
			Quantity:   it.Quantity,
		})
	}
	sort.Slice(cart, func(i, j int) bool { return cart[i].Identifier < cart[j].Identifier })
	return cart
}

func canonicalDestination(dest Address) quoteKeyDestination {
	dest = dest.Normalize()
	return quoteKeyDestination{
		Line1:      strings.ToLower(dest.Line1),
		City:       strings.ToLower(dest.City),
		State:      strings.ToUpper(dest.State),
		PostalCode: strings.ToUpper(dest.PostalCode),
		Country:    strings.ToUpper(dest.Country),
	}
}

func hashJSON(v any) string {
	// Marshal of these payload structs cannot fail.
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// BuildQuoteKey computes the cache key for a cart and destination.
// It is invariant under cart reordering and under the case and
// whitespace variations the canonical form folds.
func BuildQuoteKey(items []CartItem, dest Address) string {
	return hashJSON(quoteKeyPayload{
		Cart:        canonicalCart(items),
		Destination: canonicalDestination(dest),
	})
}

// CartFingerprint hashes the canonical cart alone, for diagnostics on
// cached records.
func CartFingerprint(items []CartItem) string {
	return hashJSON(canonicalCart(items))
}

// DestinationFingerprint hashes the canonical destination alone.
func DestinationFingerprint(dest Address) string {
	return hashJSON(canonicalDestination(dest))
}

// QuoteRecord is one cached quote. Records are created on a cache miss
// after a successful provider call, read-only afterward, and simply
// overwritten (upsert) once stale.
type QuoteRecord struct {
	QuoteKey               string     `json:"quoteKey"`
	DestinationFingerprint string     `json:"destinationFingerprint"`
	CartFingerprint        string     `json:"cartFingerprint"`
	Rates                  []Rate     `json:"rates"`
	Packages               []Package  `json:"packages"`
	ProviderShipmentID     string     `json:"providerShipmentId"`
	CreatedAt              time.Time  `json:"createdAt"`
	ExpiresAt              *time.Time `json:"expiresAt,omitempty"`
}

// NewQuoteRecord stamps a fresh record. A TTL of zero or less means the
// record never expires.
func NewQuoteRecord(key string, items []CartItem, dest Address, rates []Rate, packages []Package, shipmentID string, ttl time.Duration, now time.Time) *QuoteRecord {
	rec := &QuoteRecord{
		QuoteKey:               key,
		DestinationFingerprint: DestinationFingerprint(dest),
		CartFingerprint:        CartFingerprint(items),
		Rates:                  rates,
		Packages:               packages,
		ProviderShipmentID:     shipmentID,
		CreatedAt:              now,
	}
	if ttl > 0 {
		expires := now.Add(ttl)
		rec.ExpiresAt = &expires
	}
	return rec
}

// Valid reports whether the record can serve a read at the given time.
// Malformed or partial records count as a miss so the caller fails open
// to a fresh quote; expired records are ignored, not deleted.
func (r *QuoteRecord) Valid(now time.Time) bool {
	if r == nil || r.QuoteKey == "" || len(r.Rates) == 0 {
		return false
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.After(now) {
		return false
	}
	return true
}
