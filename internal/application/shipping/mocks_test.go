package shipping

import (
	"context"
	"time"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

type mockCatalog struct {
	profiles []shipping.ProductShippingProfile
	err      error
	calls    int
	lastKeys []string
}

func (m *mockCatalog) ProfilesByKeys(_ context.Context, keys []string) ([]shipping.ProductShippingProfile, error) {
	m.calls++
	m.lastKeys = keys
	return m.profiles, m.err
}

type mockCache struct {
	records map[string]*shipping.QuoteRecord
	getErr  error
	putErr  error
	puts    int
	lastTTL time.Duration
}

func newMockCache() *mockCache {
	return &mockCache{records: make(map[string]*shipping.QuoteRecord)}
}

func (m *mockCache) Get(_ context.Context, key string) (*shipping.QuoteRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.records[key], nil
}

func (m *mockCache) Put(_ context.Context, record *shipping.QuoteRecord, ttl time.Duration) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.lastTTL = ttl
	m.records[record.QuoteKey] = record
	return nil
}

type mockProvider struct {
	shipment     *shipping.ProviderShipment
	createErr    error
	createCalls  int
	lastParcel   shipping.Package
	estimates    map[string]shipping.TransitEstimate
	estimatesErr error
	label        *shipping.PurchasedLabel
	buyErr       error
	buyCalls     int
	boughtRateID string
	slipURL      string
	slipErr      error
	slipCalls    int
}

func (m *mockProvider) CreateShipment(_ context.Context, _, _ shipping.Address, parcel shipping.Package) (*shipping.ProviderShipment, error) {
	m.createCalls++
	m.lastParcel = parcel
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.shipment, nil
}

func (m *mockProvider) TransitEstimates(_ context.Context, _ string) (map[string]shipping.TransitEstimate, error) {
	if m.estimatesErr != nil {
		return nil, m.estimatesErr
	}
	return m.estimates, nil
}

func (m *mockProvider) Shipment(_ context.Context, _ string) (*shipping.ProviderShipment, error) {
	return m.shipment, nil
}

func (m *mockProvider) BuyRate(_ context.Context, _, rateID string) (*shipping.PurchasedLabel, error) {
	m.buyCalls++
	m.boughtRateID = rateID
	if m.buyErr != nil {
		return nil, m.buyErr
	}
	return m.label, nil
}

func (m *mockProvider) CreatePackingSlip(_ context.Context, _ string) (string, error) {
	m.slipCalls++
	return m.slipURL, m.slipErr
}

type shippingLogEntry struct {
	event  string
	detail string
}

type mockOrders struct {
	order        *shipping.OrderFulfillment
	fulfillErr   error
	recorded     *shipping.LabelPurchaseResult
	recordErr    error
	recordCalls  int
	failures     []string
	logs         []shippingLogEntry
	logErr       error
	archivedURL  string
	archiveCalls int
}

func (m *mockOrders) Fulfillment(_ context.Context, orderID string) (*shipping.OrderFulfillment, error) {
	if m.fulfillErr != nil {
		return nil, m.fulfillErr
	}
	if m.order == nil || m.order.OrderID != orderID {
		return nil, shipping.ErrOrderNotFound
	}
	return m.order, nil
}

func (m *mockOrders) RecordLabelPurchase(_ context.Context, _ string, result shipping.LabelPurchaseResult) error {
	m.recordCalls++
	if m.recordErr != nil {
		return m.recordErr
	}
	m.recorded = &result
	return nil
}

func (m *mockOrders) RecordPurchaseFailure(_ context.Context, _ string, message string) error {
	m.failures = append(m.failures, message)
	return nil
}

func (m *mockOrders) AppendShippingLog(_ context.Context, _ string, event, detail string) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append(m.logs, shippingLogEntry{event: event, detail: detail})
	return nil
}

func (m *mockOrders) ArchiveLabelCopy(_ context.Context, _ string, archivedURL string) error {
	m.archiveCalls++
	m.archivedURL = archivedURL
	return nil
}

type mockArchiver struct {
	labelURL string
	labelErr error
	qrURL    string
	qrErr    error
	qrBytes  []byte
}

func (m *mockArchiver) ArchiveLabel(_ context.Context, _, _ string) (string, error) {
	return m.labelURL, m.labelErr
}

func (m *mockArchiver) ArchiveTrackingQR(_ context.Context, _ string, png []byte) (string, error) {
	m.qrBytes = png
	return m.qrURL, m.qrErr
}

type mockQR struct {
	png []byte
	err error
}

func (m *mockQR) TrackingQR(_ string) ([]byte, error) {
	return m.png, m.err
}
