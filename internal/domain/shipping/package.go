package shipping

// Weight and dimension units the engine works in. Carrier requests are
// built in ounces, so the pound weights are converted at the adapter.
const (
	WeightUnitPound   = "pound"
	DimensionUnitInch = "inch"
)

// Package is one physical parcel submitted to a carrier for rating.
// Reference carries the identifier of the item that produced a solo
// package; it is empty on the combined package.
type Package struct {
	Weight        float64    `json:"weight"`
	WeightUnit    string     `json:"weightUnit"`
	Dimensions    Dimensions `json:"dimensions"`
	DimensionUnit string     `json:"dimensionUnit"`
	Reference     string     `json:"reference,omitempty"`
}

// NewPackage builds a parcel in the engine's canonical units.
func NewPackage(weight float64, dims Dimensions, reference string) Package {
	return Package{
		Weight:        weight,
		WeightUnit:    WeightUnitPound,
		Dimensions:    dims,
		DimensionUnit: DimensionUnitInch,
		Reference:     reference,
	}
}

// boxDimensions returns the profile's box when it is usable. Profiles
// with no parseable box (structured or legacy) report false and the
// planner substitutes the default box rather than failing the quote.
func boxDimensions(p ProductShippingProfile) (Dimensions, bool) {
	if p.Dimensions != nil && p.Dimensions.Positive() {
		return *p.Dimensions, true
	}
	return Dimensions{}, false
}
