package shipping

import "strings"

// SelectionOptions constrain which rates are considered acceptable
// before falling back to cheapest-overall.
type SelectionOptions struct {
	// MaxTransitDays is the slowest acceptable estimate. Rates with no
	// transit data are not excluded by this filter.
	MaxTransitDays int
	// PreferredCarrier, when set, prefers the cheapest eligible rate
	// whose carrier name contains it, case-insensitively.
	PreferredCarrier string
	// ConfidenceThreshold is the minimum delivery confidence; zero
	// accepts any confidence. Rates without confidence data pass
	// (confidence 100 implied).
	ConfidenceThreshold int
}

// DefaultSelectionOptions returns the stock selection constraints.
func DefaultSelectionOptions() SelectionOptions {
	return SelectionOptions{MaxTransitDays: 5, ConfidenceThreshold: 75}
}

// SelectBestRate ranks rates by cost under the given constraints.
// It never returns nil while at least one rate exists: when nothing is
// eligible the single cheapest rate overall is returned. The scan is a
// greedy single pass, not an optimization across packages.
func SelectBestRate(rates []Rate, opts SelectionOptions) *Rate {
	if len(rates) == 0 {
		return nil
	}
	if opts.MaxTransitDays <= 0 {
		opts.MaxTransitDays = DefaultSelectionOptions().MaxTransitDays
	}
	if opts.ConfidenceThreshold < 0 {
		opts.ConfidenceThreshold = 0
	}

	sorted := SortByAmount(rates)

	var eligible []Rate
	for _, r := range sorted {
		if days := r.TransitDays(); days != nil && *days > opts.MaxTransitDays {
			continue
		}
		if r.Confidence() < opts.ConfidenceThreshold {
			continue
		}
		eligible = append(eligible, r)
	}

	if len(eligible) == 0 {
		best := sorted[0]
		return &best
	}

	if pref := strings.ToLower(strings.TrimSpace(opts.PreferredCarrier)); pref != "" {
		for _, r := range eligible {
			if strings.Contains(strings.ToLower(r.Carrier), pref) {
				match := r
				return &match
			}
		}
	}

	best := eligible[0]
	return &best
}
