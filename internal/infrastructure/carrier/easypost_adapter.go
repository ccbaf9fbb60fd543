package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// maxResponseSize is the maximum allowed response size from the
// EasyPost API (10MB).
const maxResponseSize = 10 * 1024 * 1024

// ouncesPerPound converts the engine's pound weights to the ounces
// EasyPost expects on parcels.
const ouncesPerPound = 16

// packingSlipFormType is the supplementary form requested after a
// purchase.
const packingSlipFormType = "packing_slip"

// Ensure EasyPostAdapter implements the provider port.
var _ shipping.RateProvider = (*EasyPostAdapter)(nil)

// EasyPostAdapter implements shipping.RateProvider against the EasyPost
// API. Every method is a single round trip; the adapter never retries,
// because a silent retry around a paid buy call risks double purchase.
type EasyPostAdapter struct {
	config     *EasyPostConfig
	httpClient *http.Client
}

// NewEasyPostAdapter creates an adapter with the given configuration.
func NewEasyPostAdapter(config *EasyPostConfig) (*EasyPostAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EasyPostAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.timeout()},
	}, nil
}

// CreateShipment registers a rateable shipment for the two addresses
// and parcel and returns its normalized rates.
func (a *EasyPostAdapter) CreateShipment(ctx context.Context, from, to shipping.Address, parcel shipping.Package) (*shipping.ProviderShipment, error) {
	req := createShipmentRequest{Shipment: shipmentPayload{
		ToAddress:   toEasyPostAddress(to),
		FromAddress: toEasyPostAddress(from),
		Parcel: easyPostParcel{
			Length: parcel.Dimensions.Length,
			Width:  parcel.Dimensions.Width,
			Height: parcel.Dimensions.Height,
			Weight: parcel.Weight * ouncesPerPound,
		},
	}}

	var resp shipmentResponse
	if err := a.call(ctx, http.MethodPost, "/shipments", req, &resp, "create shipment"); err != nil {
		return nil, err
	}
	return normalizeShipment(&resp), nil
}

// Shipment retrieves a previously created shipment with its rates.
func (a *EasyPostAdapter) Shipment(ctx context.Context, shipmentID string) (*shipping.ProviderShipment, error) {
	var resp shipmentResponse
	path := fmt.Sprintf("/shipments/%s", shipmentID)
	if err := a.call(ctx, http.MethodGet, path, nil, &resp, "retrieve shipment"); err != nil {
		return nil, err
	}
	return normalizeShipment(&resp), nil
}

// TransitEstimates fetches SmartRate time-in-transit data for the
// shipment's rates. Callers treat failures as the absence of confidence
// data, never as a fatal error.
func (a *EasyPostAdapter) TransitEstimates(ctx context.Context, shipmentID string) (map[string]shipping.TransitEstimate, error) {
	var resp smartRateResponse
	path := fmt.Sprintf("/shipments/%s/smartrate", shipmentID)
	if err := a.call(ctx, http.MethodGet, path, nil, &resp, "smartrate"); err != nil {
		return nil, err
	}

	estimates := make(map[string]shipping.TransitEstimate, len(resp.Result))
	for _, sr := range resp.Result {
		est, ok := normalizeSmartRate(sr)
		if !ok {
			continue
		}
		estimates[sr.ID] = est
	}
	return estimates, nil
}

// BuyRate purchases one rate of the shipment and returns the label and
// tracking artifacts.
func (a *EasyPostAdapter) BuyRate(ctx context.Context, shipmentID, rateID string) (*shipping.PurchasedLabel, error) {
	req := buyShipmentRequest{Rate: rateRef{ID: rateID}}

	var resp shipmentResponse
	path := fmt.Sprintf("/shipments/%s/buy", shipmentID)
	if err := a.call(ctx, http.MethodPost, path, req, &resp, "buy rate"); err != nil {
		return nil, err
	}

	label := &shipping.PurchasedLabel{ShipmentID: resp.ID}
	if label.ShipmentID == "" {
		label.ShipmentID = shipmentID
	}
	if resp.Label != nil {
		label.LabelURL = resp.Label.LabelURL
		if resp.Label.LabelPDFURL != "" {
			label.LabelURL = resp.Label.LabelPDFURL
		}
	}
	if resp.Tracker != nil {
		label.TrackerID = resp.Tracker.ID
		label.TrackingNumber = resp.Tracker.TrackingCode
		label.TrackingURL = resp.Tracker.PublicURL
	}
	if resp.Selected != nil {
		label.Carrier = resp.Selected.Carrier
		label.Service = resp.Selected.Service
		label.Cost = resp.Selected.Rate
		label.Currency = resp.Selected.Currency
	}
	return label, nil
}

// CreatePackingSlip asks EasyPost for a packing-slip form and returns
// its URL.
func (a *EasyPostAdapter) CreatePackingSlip(ctx context.Context, shipmentID string) (string, error) {
	req := createFormRequest{Form: formPayload{Type: packingSlipFormType}}

	var resp shipmentResponse
	path := fmt.Sprintf("/shipments/%s/forms", shipmentID)
	if err := a.call(ctx, http.MethodPost, path, req, &resp, "create form"); err != nil {
		return "", err
	}
	for _, form := range resp.Forms {
		if form.FormType == packingSlipFormType && form.FormURL != "" {
			return form.FormURL, nil
		}
	}
	return "", &shipping.ProviderError{Operation: "create form", Message: "no packing slip form in response"}
}

// call performs one authenticated round trip and decodes the response
// into out.
func (a *EasyPostAdapter) call(ctx context.Context, method, path string, body, out any, operation string) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &shipping.ProviderError{Operation: operation, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.baseURL()+path, reader)
	if err != nil {
		return &shipping.ProviderError{Operation: operation, Err: err}
	}
	// EasyPost authenticates with the API key as the basic-auth user.
	req.SetBasicAuth(a.config.APIKey, "")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &shipping.ProviderError{Operation: operation, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return &shipping.ProviderError{Operation: operation, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &shipping.ProviderError{Operation: operation, Message: extractAPIError(payload, resp.StatusCode)}
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &shipping.ProviderError{Operation: operation, Message: "invalid response body", Err: err}
	}
	return nil
}

// extractAPIError pulls the provider's human-readable message out of an
// error response, falling back to the HTTP status.
func extractAPIError(payload []byte, status int) string {
	var apiErr apiError
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return fmt.Sprintf("unexpected status %d", status)
}

func toEasyPostAddress(addr shipping.Address) easyPostAddress {
	return easyPostAddress{
		Name:    addr.Name,
		Phone:   addr.Phone,
		Email:   addr.Email,
		Street1: addr.Line1,
		Street2: addr.Line2,
		City:    addr.City,
		State:   addr.State,
		Zip:     addr.PostalCode,
		Country: addr.Country,
	}
}

func normalizeShipment(resp *shipmentResponse) *shipping.ProviderShipment {
	shipment := &shipping.ProviderShipment{ID: resp.ID}
	for _, r := range resp.Rates {
		shipment.Rates = append(shipment.Rates, normalizeRate(r))
	}
	return shipment
}

// normalizeRate maps one provider rate into the engine's rate model.
// Unparseable amounts become zero and are filtered out downstream.
func normalizeRate(r easyPostRate) shipping.Rate {
	amount, err := decimal.NewFromString(r.Rate)
	if err != nil {
		amount = decimal.Zero
	}
	currency := r.Currency
	if currency == "" {
		currency = shipping.DefaultCurrency
	}

	rate := shipping.Rate{
		ID:          r.ID,
		CarrierID:   r.CarrierAccountID,
		CarrierCode: r.Carrier,
		Carrier:     r.Carrier,
		Service:     r.Service,
		ServiceCode: r.Service,
		Amount:      amount,
		Currency:    currency,
		Guaranteed:  r.DeliveryDateGuaranteed,
	}
	if r.DeliveryDays != nil {
		days := *r.DeliveryDays
		rate.DeliveryDays = &days
	}
	if r.DeliveryDate != "" {
		if ts, err := time.Parse(time.RFC3339, r.DeliveryDate); err == nil {
			rate.EstimatedDeliveryDate = &ts
		}
	}
	return rate
}

// normalizeSmartRate turns a SmartRate entry into a transit estimate:
// the 75th-percentile days as the weighted transit figure, and the
// highest percentile still within the carrier's stated delivery days
// as the confidence.
func normalizeSmartRate(sr smartRate) (shipping.TransitEstimate, bool) {
	tit := sr.TimeInTransit
	if tit.Percentile75 == 0 {
		return shipping.TransitEstimate{}, false
	}

	est := shipping.TransitEstimate{TransitDays: tit.Percentile75, Confidence: 50}
	if sr.DeliveryDays <= 0 {
		return est, true
	}
	for _, p := range []struct {
		percentile int
		days       int
	}{
		{50, tit.Percentile50},
		{75, tit.Percentile75},
		{85, tit.Percentile85},
		{90, tit.Percentile90},
		{95, tit.Percentile95},
		{97, tit.Percentile97},
	} {
		if p.days > 0 && p.days <= sr.DeliveryDays {
			est.Confidence = p.percentile
		}
	}
	return est, true
}
