package shipping

import (
	"fmt"
	"strings"
)

// DomainError carries a stable machine-readable code alongside the
// human-readable message surfaced to callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Stable error codes. Handlers map these onto HTTP statuses; the codes
// themselves never change once clients depend on them.
const (
	ErrCodeEmptyCart             = "ERR_SHIPPING_EMPTY_CART"
	ErrCodeInvalidDestination    = "ERR_SHIPPING_INVALID_DESTINATION"
	ErrCodeIncompleteAddress     = "ERR_SHIPPING_INCOMPLETE_ADDRESS"
	ErrCodeIncompleteParcel      = "ERR_SHIPPING_INCOMPLETE_PARCEL"
	ErrCodeOrderNotFound         = "ERR_SHIPPING_ORDER_NOT_FOUND"
	ErrCodeManualTriggerRequired = "ERR_SHIPPING_MANUAL_TRIGGER_REQUIRED"
	ErrCodeAlreadyPurchased      = "ERR_SHIPPING_ALREADY_PURCHASED"
	ErrCodeFreightOnly           = "ERR_SHIPPING_FREIGHT_ONLY"
	ErrCodeProviderRequest       = "ERR_SHIPPING_PROVIDER_REQUEST"
	ErrCodeNoRates               = "ERR_SHIPPING_NO_RATES"
	ErrCodeRateNotFound          = "ERR_SHIPPING_RATE_NOT_FOUND"
)

// Common domain errors.
var (
	ErrEmptyCart = NewDomainError(ErrCodeEmptyCart, "cart contains no resolvable items")
	// ErrManualTriggerRequired rejects any purchase request without the
	// explicit manual-trigger marker, before anything else is examined.
	ErrManualTriggerRequired = NewDomainError(ErrCodeManualTriggerRequired, "label purchase requires the manual trigger marker")
	ErrAlreadyPurchased      = NewDomainError(ErrCodeAlreadyPurchased, "a label was already purchased for this order")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "order not found")
	ErrFreightOnly           = NewDomainError(ErrCodeFreightOnly, "order must be routed to manual freight handling")
	ErrNoParcel              = NewDomainError(ErrCodeIncompleteParcel, "order produced no shippable parcel")
	ErrNoRates               = NewDomainError(ErrCodeNoRates, "provider returned no purchasable rates")
	ErrRateNotFound          = NewDomainError(ErrCodeRateNotFound, "requested rate is not among the shipment's rates")
)

// MissingFieldsError reports which address or parcel fields were absent
// before a provider call was attempted.
type MissingFieldsError struct {
	Code          string   `json:"code"`
	Subject       string   `json:"subject"`
	MissingFields []string `json:"missingFields"`
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s is missing required fields: %s", e.Subject, strings.Join(e.MissingFields, ", "))
}

// NewIncompleteAddressError builds the validation error for an address
// missing required fields.
func NewIncompleteAddressError(subject string, fields []string) *MissingFieldsError {
	return &MissingFieldsError{Code: ErrCodeIncompleteAddress, Subject: subject, MissingFields: fields}
}

// NewIncompleteParcelError builds the validation error for a parcel
// with non-positive weight or dimensions.
func NewIncompleteParcelError(fields []string) *MissingFieldsError {
	return &MissingFieldsError{Code: ErrCodeIncompleteParcel, Subject: "parcel", MissingFields: fields}
}

// ProviderError wraps a carrier provider failure with the provider's
// best-effort human-readable message. Provider calls are single round
// trips: these errors surface to the caller, never retried silently.
type ProviderError struct {
	Operation string
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("carrier provider %s failed: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("carrier provider %s failed", e.Operation)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
