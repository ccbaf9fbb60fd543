package carrier

// Request and response shapes for the subset of the EasyPost API the
// engine uses. Field names follow the wire format exactly.

type easyPostAddress struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// easyPostParcel carries the parcel in EasyPost units: inches and
// ounces.
type easyPostParcel struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

type createShipmentRequest struct {
	Shipment shipmentPayload `json:"shipment"`
}

type shipmentPayload struct {
	ToAddress   easyPostAddress `json:"to_address"`
	FromAddress easyPostAddress `json:"from_address"`
	Parcel      easyPostParcel  `json:"parcel"`
}

type shipmentResponse struct {
	ID       string            `json:"id"`
	Rates    []easyPostRate    `json:"rates"`
	Forms    []easyPostForm    `json:"forms"`
	Label    *easyPostLabel    `json:"postage_label"`
	Tracker  *easyPostTracker  `json:"tracker"`
	Selected *easyPostRate     `json:"selected_rate"`
	Messages []shipmentMessage `json:"messages"`
}

type shipmentMessage struct {
	Carrier string `json:"carrier"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type easyPostRate struct {
	ID                     string `json:"id"`
	Carrier                string `json:"carrier"`
	CarrierAccountID       string `json:"carrier_account_id"`
	Service                string `json:"service"`
	Rate                   string `json:"rate"`
	Currency               string `json:"currency"`
	DeliveryDays           *int   `json:"delivery_days"`
	DeliveryDate           string `json:"delivery_date"`
	DeliveryDateGuaranteed bool   `json:"delivery_date_guaranteed"`
}

type easyPostLabel struct {
	LabelURL    string `json:"label_url"`
	LabelPDFURL string `json:"label_pdf_url"`
}

type easyPostTracker struct {
	ID           string `json:"id"`
	TrackingCode string `json:"tracking_code"`
	PublicURL    string `json:"public_url"`
}

type easyPostForm struct {
	ID       string `json:"id"`
	FormType string `json:"form_type"`
	FormURL  string `json:"form_url"`
}

type buyShipmentRequest struct {
	Rate rateRef `json:"rate"`
}

type rateRef struct {
	ID string `json:"id"`
}

type createFormRequest struct {
	Form formPayload `json:"form"`
}

type formPayload struct {
	Type string `json:"type"`
}

type smartRateResponse struct {
	Result []smartRate `json:"result"`
}

type smartRate struct {
	ID            string        `json:"id"`
	DeliveryDays  int           `json:"delivery_days"`
	TimeInTransit timeInTransit `json:"time_in_transit"`
}

type timeInTransit struct {
	Percentile50 int `json:"percentile_50"`
	Percentile75 int `json:"percentile_75"`
	Percentile85 int `json:"percentile_85"`
	Percentile90 int `json:"percentile_90"`
	Percentile95 int `json:"percentile_95"`
	Percentile97 int `json:"percentile_97"`
}

type apiError struct {
	Error apiErrorBody `json:"error"`
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
