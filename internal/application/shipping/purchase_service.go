package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/telemetry"
)

// PurchaseService buys exactly one label per order. Guards run in a
// fixed order: manual-trigger marker first, idempotency second, then
// address and parcel validation, before any money can move.
type PurchaseService struct {
	orders   shipping.OrderStore
	catalog  shipping.ProductCatalog
	provider shipping.RateProvider
	planner  *shipping.Planner
	archiver shipping.LabelArchiver
	qr       shipping.QRGenerator

	origin shipping.Address

	logger  *zap.Logger
	metrics *telemetry.ShippingMetrics
	now     func() time.Time
}

// NewPurchaseService wires a PurchaseService. Archiver and QR generator
// are optional; when nil the corresponding side artifacts are skipped.
func NewPurchaseService(
	orders shipping.OrderStore,
	catalog shipping.ProductCatalog,
	provider shipping.RateProvider,
	planner *shipping.Planner,
	archiver shipping.LabelArchiver,
	qr shipping.QRGenerator,
	origin shipping.Address,
	logger *zap.Logger,
) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{
		orders:   orders,
		catalog:  catalog,
		provider: provider,
		planner:  planner,
		archiver: archiver,
		qr:       qr,
		origin:   origin.Normalize(),
		logger:   logger.Named("purchase"),
		now:      time.Now,
	}
}

// SetMetrics attaches the business metrics collector. Optional.
func (s *PurchaseService) SetMetrics(m *telemetry.ShippingMetrics) {
	s.metrics = m
}

// Purchase validates, buys and records a label for the order. A request
// without the manual-trigger marker is rejected with a fixed code no
// matter how complete the rest of the payload is; an order that already
// owns a label gets its persisted outcome back with no provider call.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "shipping_label", "purchase")
	defer span.End()

	resp, err := s.purchase(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		s.metrics.RecordPurchaseFailure(ctx)
		return nil, err
	}
	if !resp.AlreadyPurchased {
		s.metrics.RecordLabelPurchase(ctx, resp.Carrier)
	}
	return resp, nil
}

func (s *PurchaseService) purchase(ctx context.Context, req PurchaseRequest) (*PurchaseResponse, error) {
	if !req.ManualTrigger {
		return nil, shipping.ErrManualTriggerRequired
	}
	if req.OrderID == "" {
		return nil, shipping.ErrOrderNotFound
	}

	order, err := s.orders.Fulfillment(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	if order.LabelPurchased {
		if order.Label == nil {
			// The flag is terminal even when the stored label cannot be
			// decoded.
			s.logger.Error("order flagged purchased but its label is unreadable",
				zap.String("order_id", order.OrderID))
			return nil, shipping.ErrAlreadyPurchased
		}
		s.logger.Info("label already purchased, returning persisted outcome",
			zap.String("order_id", order.OrderID))
		return purchaseResponseFromResult(*order.Label, true), nil
	}

	parcel, err := s.validate(ctx, order)
	if err != nil {
		s.recordFailure(ctx, order.OrderID, err)
		return nil, err
	}

	shipment, err := s.provider.CreateShipment(ctx, s.origin, order.ShippingAddress.Normalize(), parcel)
	if err != nil {
		s.recordFailure(ctx, order.OrderID, err)
		return nil, err
	}

	rateID, err := s.pickRate(shipment, req.RateID)
	if err != nil {
		// The shipment was created but cannot be bought. It is not
		// retried automatically; log enough to follow up by hand.
		s.logger.Error("shipment created but not purchasable",
			zap.String("order_id", order.OrderID),
			zap.String("shipment_id", shipment.ID),
			zap.Error(err))
		s.recordFailure(ctx, order.OrderID, err)
		return nil, err
	}

	label, err := s.provider.BuyRate(ctx, shipment.ID, rateID)
	if err != nil {
		s.recordFailure(ctx, order.OrderID, err)
		return nil, err
	}

	result := labelResult(shipment.ID, label, s.now())
	if err := s.orders.RecordLabelPurchase(ctx, order.OrderID, result); err != nil {
		// The label is bought but the order update failed. Surface it
		// loudly: the idempotency flag never landed.
		s.logger.Error("label purchased but order update failed",
			zap.String("order_id", order.OrderID),
			zap.String("tracking_number", result.TrackingNumber),
			zap.Error(err))
		return nil, fmt.Errorf("record label purchase for order %s: %w", order.OrderID, err)
	}

	s.runSideArtifacts(ctx, order, shipment.ID, result)

	return purchaseResponseFromResult(result, false), nil
}

// validate checks destination, origin and parcel completeness without
// touching the provider.
func (s *PurchaseService) validate(ctx context.Context, order *shipping.OrderFulfillment) (shipping.Package, error) {
	dest := order.ShippingAddress.Normalize()
	if missing := dest.MissingFields(); len(missing) > 0 {
		return shipping.Package{}, shipping.NewIncompleteAddressError("destination", missing)
	}
	if missing := s.origin.MissingFields(); len(missing) > 0 {
		return shipping.Package{}, shipping.NewIncompleteAddressError("origin", missing)
	}

	var keys []string
	for _, item := range order.Items {
		keys = append(keys, item.Identifier)
	}
	profiles, err := s.catalog.ProfilesByKeys(ctx, keys)
	if err != nil {
		return shipping.Package{}, fmt.Errorf("catalog lookup: %w", err)
	}

	plan := s.planner.Plan(shipping.ResolveProfiles(order.Items, profiles).Items)
	if plan.Freight {
		return shipping.Package{}, shipping.ErrFreightOnly
	}
	parcel, ok := plan.Primary()
	if !ok {
		return shipping.Package{}, shipping.ErrNoParcel
	}
	if missing := parcelMissingFields(parcel); len(missing) > 0 {
		return shipping.Package{}, shipping.NewIncompleteParcelError(missing)
	}
	return parcel, nil
}

// pickRate honors an explicit caller rate id when it is among the
// shipment's rates, otherwise re-sorts and takes the cheapest positive
// rate. Provider ordering is never assumed sorted.
func (s *PurchaseService) pickRate(shipment *shipping.ProviderShipment, requested string) (string, error) {
	rates := shipping.FilterPositive(shipment.Rates)
	if len(rates) == 0 {
		return "", shipping.ErrNoRates
	}
	if requested != "" {
		for _, r := range rates {
			if r.ID == requested {
				return requested, nil
			}
		}
		return "", shipping.ErrRateNotFound
	}
	return shipping.SortByAmount(rates)[0].ID, nil
}

// recordFailure stores the last-attempt-failed marker so the next
// attempt is not silently blocked. Best effort.
func (s *PurchaseService) recordFailure(ctx context.Context, orderID string, cause error) {
	if err := s.orders.RecordPurchaseFailure(ctx, orderID, cause.Error()); err != nil {
		s.logger.Warn("could not record purchase failure",
			zap.String("order_id", orderID), zap.Error(err))
	}
}

// sideArtifact is one fire-and-forget task run after the purchase has
// been persisted.
type sideArtifact struct {
	name string
	run  func(ctx context.Context) error
}

// runSideArtifacts executes the supplementary tasks, each inside its
// own error boundary. The money is already spent: failures here are
// logged and swallowed, never surfaced as purchase failures.
func (s *PurchaseService) runSideArtifacts(ctx context.Context, order *shipping.OrderFulfillment, shipmentID string, result shipping.LabelPurchaseResult) {
	tasks := []sideArtifact{
		{
			name: "shipping log entry",
			run: func(ctx context.Context) error {
				detail := fmt.Sprintf("label purchased: %s %s, tracking %s",
					result.Carrier, result.Service, result.TrackingNumber)
				return s.orders.AppendShippingLog(ctx, order.OrderID, "label_purchased", detail)
			},
		},
		{
			name: "packing slip",
			run: func(ctx context.Context) error {
				url, err := s.provider.CreatePackingSlip(ctx, shipmentID)
				if err != nil {
					return err
				}
				return s.orders.AppendShippingLog(ctx, order.OrderID, "packing_slip", url)
			},
		},
		{
			name: "tracking qr code",
			run: func(ctx context.Context) error {
				if s.qr == nil || s.archiver == nil || result.TrackingURL == "" {
					return nil
				}
				png, err := s.qr.TrackingQR(result.TrackingURL)
				if err != nil {
					return err
				}
				_, err = s.archiver.ArchiveTrackingQR(ctx, order.OrderID, png)
				return err
			},
		},
		{
			name: "durable label copy",
			run: func(ctx context.Context) error {
				if s.archiver == nil || result.LabelURL == "" {
					return nil
				}
				archived, err := s.archiver.ArchiveLabel(ctx, order.OrderID, result.LabelURL)
				if err != nil {
					return err
				}
				if archived == "" {
					// Archiving is disabled; nothing to persist.
					return nil
				}
				return s.orders.ArchiveLabelCopy(ctx, order.OrderID, archived)
			},
		},
	}

	for _, task := range tasks {
		s.runSideArtifact(ctx, order.OrderID, task)
	}
}

func (s *PurchaseService) runSideArtifact(ctx context.Context, orderID string, task sideArtifact) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("side artifact panicked",
				zap.String("order_id", orderID),
				zap.String("artifact", task.name),
				zap.Any("panic", r))
		}
	}()
	if err := task.run(ctx); err != nil {
		s.logger.Warn("side artifact failed",
			zap.String("order_id", orderID),
			zap.String("artifact", task.name),
			zap.Error(err))
	}
}

// parcelMissingFields reports which parcel fields are unusable for a
// provider call.
func parcelMissingFields(p shipping.Package) []string {
	var missing []string
	if p.Weight <= 0 {
		missing = append(missing, "weight")
	}
	if p.Dimensions.Length <= 0 {
		missing = append(missing, "length")
	}
	if p.Dimensions.Width <= 0 {
		missing = append(missing, "width")
	}
	if p.Dimensions.Height <= 0 {
		missing = append(missing, "height")
	}
	return missing
}

func labelResult(shipmentID string, label *shipping.PurchasedLabel, now time.Time) shipping.LabelPurchaseResult {
	cost, err := decimal.NewFromString(label.Cost)
	if err != nil {
		cost = decimal.Zero
	}
	currency := label.Currency
	if currency == "" {
		currency = shipping.DefaultCurrency
	}
	return shipping.LabelPurchaseResult{
		ShipmentID:     shipmentID,
		TrackerID:      label.TrackerID,
		LabelURL:       label.LabelURL,
		TrackingNumber: label.TrackingNumber,
		TrackingURL:    label.TrackingURL,
		Carrier:        label.Carrier,
		Service:        label.Service,
		Cost:           cost,
		Currency:       currency,
		PurchasedAt:    now,
	}
}
