package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

func testAdapter(t *testing.T, handler http.Handler) *EasyPostAdapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter, err := NewEasyPostAdapter(&EasyPostConfig{APIKey: "EZTK_test", BaseURL: server.URL})
	require.NoError(t, err)
	return adapter
}

var testFrom = shipping.Address{Name: "Warehouse", Line1: "500 Dock Rd", City: "Orlando", State: "FL", PostalCode: "32801", Country: "US"}
var testTo = shipping.Address{Line1: "123 Main St", City: "Tampa", State: "FL", PostalCode: "33601", Country: "US"}

func TestNewEasyPostAdapter(t *testing.T) {
	_, err := NewEasyPostAdapter(&EasyPostConfig{})
	assert.Error(t, err, "api key is required")

	_, err = NewEasyPostAdapter(&EasyPostConfig{APIKey: "EZTK_test"})
	assert.NoError(t, err)
}

func TestCreateShipment(t *testing.T) {
	var captured createShipmentRequest
	adapter := testAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/shipments", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "EZTK_test", user)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "shp_1",
			"rates": []map[string]any{
				{"id": "rate_1", "carrier": "USPS", "service": "Priority", "rate": "7.33", "currency": "USD", "delivery_days": 2},
				{"id": "rate_2", "carrier": "FedEx", "service": "Ground", "rate": "not-a-number"},
			},
		})
	}))

	shipment, err := adapter.CreateShipment(context.Background(), testFrom, testTo, shipping.NewPackage(2, shipping.Dimensions{Length: 12, Width: 9, Height: 6}, ""))
	require.NoError(t, err)
	assert.Equal(t, "shp_1", shipment.ID)
	require.Len(t, shipment.Rates, 2)

	assert.Equal(t, 32.0, captured.Shipment.Parcel.Weight, "pounds converted to ounces")
	assert.Equal(t, "33601", captured.Shipment.ToAddress.Zip)

	assert.True(t, shipment.Rates[0].Amount.Equal(decimal.NewFromFloat(7.33)))
	require.NotNil(t, shipment.Rates[0].DeliveryDays)
	assert.Equal(t, 2, *shipment.Rates[0].DeliveryDays)

	assert.True(t, shipment.Rates[1].Amount.IsZero(), "unparseable amount normalizes to zero")
	assert.Equal(t, shipping.DefaultCurrency, shipment.Rates[1].Currency, "currency defaults when omitted")
}

func TestTransitEstimates(t *testing.T) {
	adapter := testAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments/shp_1/smartrate", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"id":            "rate_1",
					"delivery_days": 3,
					"time_in_transit": map[string]int{
						"percentile_50": 2, "percentile_75": 3, "percentile_85": 4,
						"percentile_90": 4, "percentile_95": 5, "percentile_97": 6,
					},
				},
				{"id": "rate_no_data", "delivery_days": 2},
			},
		})
	}))

	estimates, err := adapter.TransitEstimates(context.Background(), "shp_1")
	require.NoError(t, err)
	require.Contains(t, estimates, "rate_1")
	assert.Equal(t, 3, estimates["rate_1"].TransitDays, "75th percentile")
	assert.Equal(t, 75, estimates["rate_1"].Confidence, "highest percentile within stated days")
	assert.NotContains(t, estimates, "rate_no_data", "entries without transit data are skipped")
}

func TestBuyRate(t *testing.T) {
	adapter := testAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments/shp_1/buy", r.URL.Path)
		var req buyShipmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "rate_1", req.Rate.ID)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "shp_1",
			"postage_label": map[string]string{"label_url": "https://labels.example/shp_1.png", "label_pdf_url": "https://labels.example/shp_1.pdf"},
			"tracker":       map[string]string{"id": "trk_1", "tracking_code": "9400100", "public_url": "https://track.example/9400100"},
			"selected_rate": map[string]string{"carrier": "USPS", "service": "Priority", "rate": "7.33", "currency": "USD"},
		})
	}))

	label, err := adapter.BuyRate(context.Background(), "shp_1", "rate_1")
	require.NoError(t, err)
	assert.Equal(t, "https://labels.example/shp_1.pdf", label.LabelURL, "pdf url preferred")
	assert.Equal(t, "9400100", label.TrackingNumber)
	assert.Equal(t, "https://track.example/9400100", label.TrackingURL)
	assert.Equal(t, "USPS", label.Carrier)
	assert.Equal(t, "7.33", label.Cost)
}

func TestCreatePackingSlip(t *testing.T) {
	adapter := testAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipments/shp_1/forms", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "shp_1",
			"forms": []map[string]string{
				{"id": "form_1", "form_type": "packing_slip", "form_url": "https://forms.example/slip.pdf"},
			},
		})
	}))

	url, err := adapter.CreatePackingSlip(context.Background(), "shp_1")
	require.NoError(t, err)
	assert.Equal(t, "https://forms.example/slip.pdf", url)
}

func TestProviderErrorSurfacesMessage(t *testing.T) {
	adapter := testAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "ADDRESS.VERIFY.FAILURE", "message": "Unable to verify address"},
		})
	}))

	_, err := adapter.CreateShipment(context.Background(), testFrom, testTo, shipping.NewPackage(1, shipping.Dimensions{Length: 1, Width: 1, Height: 1}, ""))
	var provErr *shipping.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Message, "Unable to verify address")
}
