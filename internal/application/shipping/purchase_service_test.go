package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

type purchaseFixture struct {
	orders   *mockOrders
	catalog  *mockCatalog
	provider *mockProvider
	archiver *mockArchiver
	qr       *mockQR
	service  *PurchaseService
}

func newPurchaseFixture() *purchaseFixture {
	f := &purchaseFixture{
		orders: &mockOrders{order: &shipping.OrderFulfillment{
			OrderID:         "order-1",
			OrderNumber:     "SO-1001",
			Items:           []shipping.CartItem{{Identifier: "X", Quantity: 1}},
			ShippingAddress: testDestination,
		}},
		catalog: &mockCatalog{profiles: []shipping.ProductShippingProfile{
			{ID: "p1", SKU: "X", RequiresShipping: true, Weight: 2},
		}},
		provider: &mockProvider{
			shipment: &shipping.ProviderShipment{
				ID: "shp_9",
				Rates: []shipping.Rate{
					providerRate("rate_pricey", 19.80, 2),
					providerRate("rate_cheap", 8.15, 4),
				},
			},
			label: &shipping.PurchasedLabel{
				ShipmentID:     "shp_9",
				TrackerID:      "trk_1",
				TrackingNumber: "9400100000000000000000",
				TrackingURL:    "https://track.example/9400",
				LabelURL:       "https://labels.example/shp_9.pdf",
				Carrier:        "USPS",
				Service:        "Priority",
				Cost:           "8.15",
				Currency:       "USD",
			},
			slipURL: "https://forms.example/slip.pdf",
		},
		archiver: &mockArchiver{labelURL: "s3://labels/order-1/label.pdf", qrURL: "s3://labels/order-1/qr.png"},
		qr:       &mockQR{png: []byte("png-bytes")},
	}
	f.service = NewPurchaseService(
		f.orders, f.catalog, f.provider,
		shipping.NewPlanner(shipping.DefaultPlannerConfig()),
		f.archiver, f.qr,
		testOrigin, zap.NewNop(),
	)
	return f
}

func manualRequest() PurchaseRequest {
	return PurchaseRequest{OrderID: "order-1", ManualTrigger: true}
}

func TestPurchaseRejectsWithoutManualTrigger(t *testing.T) {
	f := newPurchaseFixture()
	_, err := f.service.Purchase(context.Background(), PurchaseRequest{OrderID: "order-1"})

	var domainErr *shipping.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shipping.ErrCodeManualTriggerRequired, domainErr.Code)
	assert.Equal(t, 0, f.provider.createCalls, "rejected before anything else runs")
	assert.Equal(t, 0, f.provider.buyCalls)
}

func TestPurchaseSuccess(t *testing.T) {
	f := newPurchaseFixture()
	resp, err := f.service.Purchase(context.Background(), manualRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, shipping.PurchaseStateOrderUpdated, resp.State)
	assert.False(t, resp.AlreadyPurchased)
	assert.Equal(t, "9400100000000000000000", resp.TrackingNumber)
	assert.Equal(t, "https://labels.example/shp_9.pdf", resp.LabelURL)
	assert.True(t, resp.Cost.Equal(decimal.NewFromFloat(8.15)))

	assert.Equal(t, "rate_cheap", f.provider.boughtRateID, "cheapest after re-sort, not first returned")
	require.NotNil(t, f.orders.recorded)
	assert.Equal(t, "shp_9", f.orders.recorded.ShipmentID)

	// Side artifacts all ran.
	assert.Equal(t, 1, f.provider.slipCalls)
	assert.Equal(t, []byte("png-bytes"), f.archiver.qrBytes)
	assert.Equal(t, "s3://labels/order-1/label.pdf", f.orders.archivedURL)
	require.NotEmpty(t, f.orders.logs)
	assert.Equal(t, "label_purchased", f.orders.logs[0].event)
}

func TestPurchaseIdempotency(t *testing.T) {
	f := newPurchaseFixture()
	f.orders.order.LabelPurchased = true
	f.orders.order.Label = &shipping.LabelPurchaseResult{
		ShipmentID:     "shp_old",
		TrackingNumber: "9400199999999999999999",
		Cost:           decimal.NewFromFloat(7.01),
		Currency:       "USD",
		PurchasedAt:    time.Now().Add(-24 * time.Hour),
	}

	resp, err := f.service.Purchase(context.Background(), manualRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.True(t, resp.AlreadyPurchased)
	assert.Equal(t, "9400199999999999999999", resp.TrackingNumber)
	assert.Equal(t, 0, f.provider.createCalls, "no second provider call")
	assert.Equal(t, 0, f.provider.buyCalls)
	assert.Equal(t, 0, f.orders.recordCalls)
}

func TestPurchaseFlagTerminalWithoutLabel(t *testing.T) {
	f := newPurchaseFixture()
	f.orders.order.LabelPurchased = true
	f.orders.order.Label = nil

	_, err := f.service.Purchase(context.Background(), manualRequest())
	assert.ErrorIs(t, err, shipping.ErrAlreadyPurchased, "unreadable label never reopens the purchase")
	assert.Equal(t, 0, f.provider.createCalls)
	assert.Equal(t, 0, f.provider.buyCalls)
}

func TestPurchaseExplicitRateID(t *testing.T) {
	t.Run("honored when present among the shipment's rates", func(t *testing.T) {
		f := newPurchaseFixture()
		req := manualRequest()
		req.RateID = "rate_pricey"
		_, err := f.service.Purchase(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "rate_pricey", f.provider.boughtRateID)
	})

	t.Run("unknown rate id fails before buying", func(t *testing.T) {
		f := newPurchaseFixture()
		req := manualRequest()
		req.RateID = "rate_unknown"
		_, err := f.service.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, shipping.ErrRateNotFound)
		assert.Equal(t, 0, f.provider.buyCalls)
		assert.NotEmpty(t, f.orders.failures, "failure marker recorded")
	})
}

func TestPurchaseValidation(t *testing.T) {
	t.Run("unknown order", func(t *testing.T) {
		f := newPurchaseFixture()
		req := manualRequest()
		req.OrderID = "order-404"
		_, err := f.service.Purchase(context.Background(), req)
		assert.ErrorIs(t, err, shipping.ErrOrderNotFound)
	})

	t.Run("incomplete destination", func(t *testing.T) {
		f := newPurchaseFixture()
		f.orders.order.ShippingAddress.PostalCode = ""
		_, err := f.service.Purchase(context.Background(), manualRequest())

		var missing *shipping.MissingFieldsError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "destination", missing.Subject)
		assert.Equal(t, 0, f.provider.createCalls)
		assert.NotEmpty(t, f.orders.failures)
	})

	t.Run("freight order cannot buy a parcel label", func(t *testing.T) {
		f := newPurchaseFixture()
		f.catalog.profiles = []shipping.ProductShippingProfile{
			{ID: "p1", SKU: "X", RequiresShipping: true, ShippingClass: "freight", Weight: 1},
		}
		_, err := f.service.Purchase(context.Background(), manualRequest())
		assert.ErrorIs(t, err, shipping.ErrFreightOnly)
		assert.Equal(t, 0, f.provider.createCalls)
	})
}

func TestPurchaseProviderFailures(t *testing.T) {
	t.Run("no purchasable rates after shipment creation", func(t *testing.T) {
		f := newPurchaseFixture()
		f.provider.shipment = &shipping.ProviderShipment{ID: "shp_9", Rates: []shipping.Rate{
			{ID: "free", Amount: decimal.Zero},
		}}
		_, err := f.service.Purchase(context.Background(), manualRequest())
		assert.ErrorIs(t, err, shipping.ErrNoRates)
		assert.Equal(t, 0, f.provider.buyCalls)
		assert.Equal(t, 0, f.orders.recordCalls)
		assert.NotEmpty(t, f.orders.failures)
	})

	t.Run("buy failure records a marker and persists nothing", func(t *testing.T) {
		f := newPurchaseFixture()
		f.provider.buyErr = &shipping.ProviderError{Operation: "buy", Message: "payment declined"}
		_, err := f.service.Purchase(context.Background(), manualRequest())
		var provErr *shipping.ProviderError
		assert.ErrorAs(t, err, &provErr)
		assert.Equal(t, 0, f.orders.recordCalls)
		assert.NotEmpty(t, f.orders.failures)
	})
}

func TestPurchaseSkipsEmptyArchiveURL(t *testing.T) {
	f := newPurchaseFixture()
	f.archiver.labelURL = ""

	resp, err := f.service.Purchase(context.Background(), manualRequest())
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, 0, f.orders.archiveCalls, "disabled archiver writes nothing to the order")
}

func TestPurchaseSideArtifactFailuresAreSwallowed(t *testing.T) {
	f := newPurchaseFixture()
	f.provider.slipErr = errors.New("forms endpoint down")
	f.archiver.labelErr = errors.New("bucket unavailable")
	f.qr.err = errors.New("encode failed")
	f.orders.logErr = errors.New("log table locked")

	resp, err := f.service.Purchase(context.Background(), manualRequest())
	require.NoError(t, err, "side artifacts never fail a completed purchase")
	assert.True(t, resp.Success)
	require.NotNil(t, f.orders.recorded, "primary outcome persisted")
}
