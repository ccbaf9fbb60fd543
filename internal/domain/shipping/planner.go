package shipping

import "fmt"

// PlannerConfig holds the thresholds and fallbacks the planner applies.
// Values arrive from configuration at construction so tests can vary
// them per case.
type PlannerConfig struct {
	// DefaultWeight (pounds) and DefaultBox stand in when a product
	// carries no usable shipping data.
	DefaultWeight float64
	DefaultBox    Dimensions

	// HighWeightThreshold: a single unit at or above this weight is
	// freight.
	HighWeightThreshold float64
	// BulkDimensionThreshold: any single side exceeding this is freight.
	BulkDimensionThreshold float64
	// CombinedWeightThreshold: one line's total weight (unit x qty)
	// exceeding this is freight.
	CombinedWeightThreshold float64
}

// DefaultPlannerConfig returns the stock thresholds used when
// configuration does not override them.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		DefaultWeight:           1,
		DefaultBox:              Dimensions{Length: 12, Width: 9, Height: 6},
		HighWeightThreshold:     150,
		BulkDimensionThreshold:  60,
		CombinedWeightThreshold: 300,
	}
}

// Plan is the planner's outcome. Freight and InstallOnly are terminal:
// when either is set no packages are produced and no rates are fetched.
type Plan struct {
	Freight       bool
	FreightReason string
	InstallOnly   bool
	Packages      []Package
	// InstallOnlyItems lists identifiers excluded from parcels because
	// the product is installed on site.
	InstallOnlyItems []string
}

// Primary returns the package submitted for rating: the combined parcel
// when present, else the first solo.
func (p Plan) Primary() (Package, bool) {
	if len(p.Packages) == 0 {
		return Package{}, false
	}
	return p.Packages[0], true
}

// Planner consolidates resolved cart items into physical parcels and
// applies the freight-eligibility rules.
type Planner struct {
	cfg PlannerConfig
}

// NewPlanner creates a Planner with the given thresholds.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan builds the shipment plan for a set of resolved items: at most one
// combined package (summed weight, per-side max dimensions) plus one
// solo package per unit of any ships-alone item. Freight is decided for
// the whole request; the first triggering item wins and planning stops.
func (pl *Planner) Plan(items []ResolvedItem) Plan {
	plan := Plan{}

	var (
		combinedWeight float64
		combinedDims   Dimensions
		combinedSeen   bool
		solos          []Package
		shippable      int
	)

	for _, ri := range items {
		if ri.Profile.InstallOnly() {
			plan.InstallOnlyItems = append(plan.InstallOnlyItems, ri.Item.Identifier)
			continue
		}
		shippable++

		qty := ri.Item.Quantity
		unitWeight := ri.Profile.Weight
		if unitWeight < 0 {
			unitWeight = 0
		}
		dims, hasDims := boxDimensions(ri.Profile)

		if reason, freight := pl.freightReason(ri.Profile, unitWeight, qty, dims, hasDims); freight {
			return Plan{Freight: true, FreightReason: reason}
		}

		if ri.Profile.ShipsAlone {
			soloDims := dims
			if !hasDims {
				soloDims = pl.cfg.DefaultBox
			}
			for i := 0; i < qty; i++ {
				solos = append(solos, NewPackage(unitWeight, soloDims, ri.Item.Identifier))
			}
			continue
		}

		combinedSeen = true
		combinedWeight += unitWeight * float64(qty)
		if hasDims {
			combinedDims = maxDimensions(combinedDims, dims)
		}
	}

	if shippable == 0 {
		if len(plan.InstallOnlyItems) > 0 && len(items) > 0 {
			plan.InstallOnly = true
			return plan
		}
		// Nothing resolved to a shippable profile. A non-empty cart
		// still gets one default parcel so a quote can be produced.
		plan.Packages = []Package{pl.defaultPackage()}
		return plan
	}

	if combinedSeen {
		weight := combinedWeight
		if weight <= 0 {
			weight = pl.cfg.DefaultWeight
		}
		dims := combinedDims
		if !dims.Positive() {
			dims = pl.cfg.DefaultBox
		}
		plan.Packages = append(plan.Packages, NewPackage(weight, dims, ""))
	}
	plan.Packages = append(plan.Packages, solos...)

	if len(plan.Packages) == 0 {
		plan.Packages = []Package{pl.defaultPackage()}
	}
	return plan
}

func (pl *Planner) defaultPackage() Package {
	return NewPackage(pl.cfg.DefaultWeight, pl.cfg.DefaultBox, "")
}

// freightReason applies the freight rules in fixed order: explicit
// freight class, single-unit weight, oversize side, line total weight.
func (pl *Planner) freightReason(p ProductShippingProfile, unitWeight float64, qty int, dims Dimensions, hasDims bool) (string, bool) {
	if p.FreightClass() {
		return fmt.Sprintf("%s is classed as freight", p.displayName()), true
	}
	if unitWeight >= pl.cfg.HighWeightThreshold {
		return fmt.Sprintf("%s weighs %.1f lb per unit", p.displayName(), unitWeight), true
	}
	if hasDims && dims.Max() > pl.cfg.BulkDimensionThreshold {
		return fmt.Sprintf("%s measures %.1f in on its longest side", p.displayName(), dims.Max()), true
	}
	if total := unitWeight * float64(qty); total > pl.cfg.CombinedWeightThreshold {
		return fmt.Sprintf("%s totals %.1f lb across %d units", p.displayName(), total, qty), true
	}
	return "", false
}

func (p ProductShippingProfile) displayName() string {
	if p.Title != "" {
		return p.Title
	}
	if p.SKU != "" {
		return p.SKU
	}
	return p.ID
}

func maxDimensions(a, b Dimensions) Dimensions {
	if b.Length > a.Length {
		a.Length = b.Length
	}
	if b.Width > a.Width {
		a.Width = b.Width
	}
	if b.Height > a.Height {
		a.Height = b.Height
	}
	return a
}
