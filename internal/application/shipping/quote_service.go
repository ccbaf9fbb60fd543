package shipping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/telemetry"
)

// QuoteService produces cached, ranked carrier quotes for a cart and
// destination. All collaborators are injected so tests can swap them.
type QuoteService struct {
	catalog  shipping.ProductCatalog
	cache    shipping.QuoteCache
	provider shipping.RateProvider
	planner  *shipping.Planner

	origin    shipping.Address
	quoteTTL  time.Duration
	selection shipping.SelectionOptions

	logger  *zap.Logger
	metrics *telemetry.ShippingMetrics
	now     func() time.Time
}

// NewQuoteService wires a QuoteService. TTL of zero or less caches
// quotes without expiry.
func NewQuoteService(
	catalog shipping.ProductCatalog,
	cache shipping.QuoteCache,
	provider shipping.RateProvider,
	planner *shipping.Planner,
	origin shipping.Address,
	quoteTTL time.Duration,
	selection shipping.SelectionOptions,
	logger *zap.Logger,
) *QuoteService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		catalog:   catalog,
		cache:     cache,
		provider:  provider,
		planner:   planner,
		origin:    origin.Normalize(),
		quoteTTL:  quoteTTL,
		selection: selection,
		logger:    logger.Named("quote"),
		now:       time.Now,
	}
}

// SetMetrics attaches the business metrics collector. Optional.
func (s *QuoteService) SetMetrics(m *telemetry.ShippingMetrics) {
	s.metrics = m
}

// Quote runs the full quoting flow: resolve metadata, plan packages,
// short-circuit freight and install-only carts, then serve rates from
// cache or a fresh provider call.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping_quote", "quote")
	defer span.End()

	resp, err := s.quote(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if resp.CacheSource != "" {
		s.metrics.RecordQuote(ctx, resp.CacheSource)
	}
	return resp, nil
}

func (s *QuoteService) quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	items, keys := normalizeCart(req.Cart)
	if len(items) == 0 {
		return nil, shipping.ErrEmptyCart
	}

	dest := req.Destination.Normalize()
	if missing := dest.MissingFields(); len(missing) > 0 {
		return nil, shipping.NewIncompleteAddressError("destination", missing)
	}
	if missing := s.origin.MissingFields(); len(missing) > 0 {
		return nil, shipping.NewIncompleteAddressError("origin", missing)
	}

	profiles, err := s.catalog.ProfilesByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup: %w", err)
	}

	resolution := shipping.ResolveProfiles(items, profiles)
	if len(resolution.Missing) > 0 {
		s.logger.Warn("cart items missing from catalog",
			zap.Strings("identifiers", resolution.Missing))
	}

	plan := s.planner.Plan(resolution.Items)
	if plan.Freight {
		return &QuoteResponse{
			Freight:         true,
			FreightReason:   plan.FreightReason,
			MissingProducts: resolution.Missing,
		}, nil
	}
	if plan.InstallOnly {
		return &QuoteResponse{
			InstallOnly:     true,
			MissingProducts: resolution.Missing,
		}, nil
	}

	key := shipping.BuildQuoteKey(items, dest)
	if cached := s.readCache(ctx, key); cached != nil {
		return &QuoteResponse{
			Rates:           cached.Rates,
			BestRate:        shipping.SelectBestRate(cached.Rates, s.selection),
			Packages:        cached.Packages,
			CacheSource:     CacheSourceCache,
			MissingProducts: resolution.Missing,
		}, nil
	}

	primary, ok := plan.Primary()
	if !ok {
		return nil, shipping.ErrNoParcel
	}
	if missing := parcelMissingFields(primary); len(missing) > 0 {
		return nil, shipping.NewIncompleteParcelError(missing)
	}

	shipment, err := s.provider.CreateShipment(ctx, s.origin, dest, primary)
	if err != nil {
		return nil, err
	}
	// The shipment exists only to obtain rates; it is never purchased
	// and never cancelled. Logged so the leak stays visible.
	s.logger.Debug("rate shipment created", zap.String("shipment_id", shipment.ID))

	rates := shipping.FilterPositive(shipment.Rates)
	if len(rates) == 0 {
		return nil, shipping.ErrNoRates
	}
	rates = s.applyTransitEstimates(ctx, shipment.ID, rates)

	record := shipping.NewQuoteRecord(key, items, dest, rates, plan.Packages, shipment.ID, s.quoteTTL, s.now())
	if err := s.cache.Put(ctx, record, s.quoteTTL); err != nil {
		// Cache population is not part of the contract; the quote
		// still succeeds.
		s.logger.Warn("quote cache write failed", zap.String("quote_key", key), zap.Error(err))
	}

	return &QuoteResponse{
		Rates:           rates,
		BestRate:        shipping.SelectBestRate(rates, s.selection),
		Packages:        plan.Packages,
		CacheSource:     CacheSourceFresh,
		MissingProducts: resolution.Missing,
	}, nil
}

// readCache returns a usable record or nil. Lookup failures and
// malformed records fail open to a fresh quote.
func (s *QuoteService) readCache(ctx context.Context, key string) *shipping.QuoteRecord {
	record, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("quote cache read failed", zap.String("quote_key", key), zap.Error(err))
		return nil
	}
	if !record.Valid(s.now()) {
		return nil
	}
	return record
}

// applyTransitEstimates enriches rates with delivery-confidence data.
// Best effort: a failure only omits the confidence fields.
func (s *QuoteService) applyTransitEstimates(ctx context.Context, shipmentID string, rates []shipping.Rate) []shipping.Rate {
	estimates, err := s.provider.TransitEstimates(ctx, shipmentID)
	if err != nil {
		s.logger.Debug("transit estimates unavailable", zap.String("shipment_id", shipmentID), zap.Error(err))
		return rates
	}
	for i := range rates {
		est, ok := estimates[rates[i].ID]
		if !ok {
			continue
		}
		days := est.TransitDays
		confidence := est.Confidence
		rates[i].ConfidenceTransitDays = &days
		rates[i].DeliveryConfidence = &confidence
	}
	return rates
}

// normalizeCart converts storefront lines into cart items and collects
// the union of candidate catalog keys for one batched lookup.
func normalizeCart(lines []QuoteItemInput) ([]shipping.CartItem, []string) {
	var items []shipping.CartItem
	seen := make(map[string]struct{})
	var keys []string
	addKey := func(k string) {
		k = strings.TrimSpace(k)
		if k == "" {
			return
		}
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}

	for _, line := range lines {
		raw := shipping.RawCartItem{
			SKU:       line.SKU,
			ProductID: line.ProductID,
			Title:     line.Title,
			Quantity:  line.Quantity,
		}
		if id := strings.TrimSpace(line.Identifier); id != "" {
			raw.SKU = id
		}
		item, ok := shipping.NewCartItem(raw)
		if !ok {
			continue
		}
		items = append(items, item)
		addKey(item.Identifier)
		addKey(line.SKU)
		addKey(line.ProductID)
		addKey(line.Title)
	}
	return items, keys
}
