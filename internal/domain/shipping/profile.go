package shipping

import (
	"regexp"
	"strconv"
	"strings"
)

// draftIDPrefix is prepended to document ids while a product is still in
// the staging dataset. Cart lines frequently reference the draft id even
// after publish, so resolution trims it before comparing.
const draftIDPrefix = "drafts."

// installClassPrefix marks shipping classes that mean the product is
// installed on site and never parcel-shipped.
const installClassPrefix = "install"

// freightClass is the shipping class that forces a cart to freight
// regardless of weight or size.
const freightClass = "freight"

// Dimensions is a box size in inches.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positive reports whether every side is greater than zero.
func (d Dimensions) Positive() bool {
	return d.Length > 0 && d.Width > 0 && d.Height > 0
}

// Max returns the longest single side.
func (d Dimensions) Max() float64 {
	m := d.Length
	if d.Width > m {
		m = d.Width
	}
	if d.Height > m {
		m = d.Height
	}
	return m
}

// ProductShippingProfile is the shipping-relevant slice of a product
// document. Weight is in pounds, dimensions in inches. Dimensions is nil
// when neither the structured block nor the legacy free-text field
// yielded a usable box.
type ProductShippingProfile struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	SKU              string      `json:"sku"`
	Weight           float64     `json:"weight"`
	Dimensions       *Dimensions `json:"dimensions,omitempty"`
	ShipsAlone       bool        `json:"shipsAlone"`
	ShippingClass    string      `json:"shippingClass"`
	RequiresShipping bool        `json:"requiresShipping"`
}

// InstallOnly reports whether the product is excluded from parcels
// because it is installed rather than shipped.
func (p ProductShippingProfile) InstallOnly() bool {
	if !p.RequiresShipping {
		return true
	}
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(p.ShippingClass)), installClassPrefix)
}

// FreightClass reports whether the shipping class alone forces freight.
func (p ProductShippingProfile) FreightClass() bool {
	return strings.EqualFold(strings.TrimSpace(p.ShippingClass), freightClass)
}

// legacyDimensionsPattern matches free-text box sizes like "12x9x6",
// "12 X 9 X 6" or "12.5x9x6.25".
var legacyDimensionsPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*[xX]\s*(\d+(?:\.\d+)?)\s*[xX]\s*(\d+(?:\.\d+)?)\s*$`)

// ParseLegacyDimensions parses a legacy "LxWxH" string. The boolean is
// false when the text does not describe a positive box; callers fall
// back to the default box rather than failing the quote.
func ParseLegacyDimensions(s string) (Dimensions, bool) {
	m := legacyDimensionsPattern.FindStringSubmatch(s)
	if m == nil {
		return Dimensions{}, false
	}
	parse := func(v string) float64 {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	d := Dimensions{Length: parse(m[1]), Width: parse(m[2]), Height: parse(m[3])}
	if !d.Positive() {
		return Dimensions{}, false
	}
	return d, true
}

// LookupKeys returns the key set a catalog query should cover for a
// batch of cart identifiers: the raw keys plus draft-trimmed variants,
// deduplicated and in first-seen order.
func LookupKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	add := func(k string) {
		if k == "" {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	for _, k := range keys {
		add(k)
		add(strings.TrimPrefix(k, draftIDPrefix))
	}
	return out
}

// ResolvedItem pairs a cart line with the profile it resolved to.
type ResolvedItem struct {
	Item    CartItem
	Profile ProductShippingProfile
}

// Resolution is the outcome of matching a cart against the catalog.
// Missing holds the identifiers that matched nothing; the request still
// succeeds on the remaining items.
type Resolution struct {
	Items   []ResolvedItem
	Missing []string
}

// profileMatcher checks one identifier facet of a profile. Matchers run
// in precedence order: sku, id (draft prefix trimmed), then title.
type profileMatcher func(ProductShippingProfile, string) bool

var profileMatchers = []profileMatcher{
	func(p ProductShippingProfile, id string) bool {
		return p.SKU != "" && p.SKU == id
	},
	func(p ProductShippingProfile, id string) bool {
		return p.ID != "" && strings.TrimPrefix(p.ID, draftIDPrefix) == strings.TrimPrefix(id, draftIDPrefix)
	},
	func(p ProductShippingProfile, id string) bool {
		return p.Title != "" && p.Title == id
	},
}

// ResolveProfiles matches cart items against a bulk-fetched profile set.
// It is a pure function: the catalog lookup happens once, upstream, and
// unresolvable items are reported rather than failing the request.
func ResolveProfiles(items []CartItem, profiles []ProductShippingProfile) Resolution {
	res := Resolution{}
	for _, item := range items {
		profile, ok := matchProfile(item.Identifier, profiles)
		if !ok {
			res.Missing = append(res.Missing, item.Identifier)
			continue
		}
		res.Items = append(res.Items, ResolvedItem{Item: item, Profile: profile})
	}
	return res
}

func matchProfile(identifier string, profiles []ProductShippingProfile) (ProductShippingProfile, bool) {
	for _, match := range profileMatchers {
		for _, p := range profiles {
			if match(p, identifier) {
				return p, true
			}
		}
	}
	return ProductShippingProfile{}, false
}
