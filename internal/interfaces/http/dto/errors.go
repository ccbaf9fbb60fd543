package dto

import (
	"net/http"

	"github.com/commerce/fulfillment/internal/domain/shipping"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeValidation is used when request validation fails
	ErrCodeValidation = "ERR_VALIDATION"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Shipping
// codes group into input (400), authorization (403), missing resources
// (404), duplicates (409), business-rule rejections (422) and provider
// failures (502).
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,

	shipping.ErrCodeEmptyCart:          http.StatusBadRequest,
	shipping.ErrCodeInvalidDestination: http.StatusBadRequest,
	shipping.ErrCodeIncompleteAddress:  http.StatusBadRequest,
	shipping.ErrCodeIncompleteParcel:   http.StatusBadRequest,
	shipping.ErrCodeRateNotFound:       http.StatusBadRequest,

	shipping.ErrCodeManualTriggerRequired: http.StatusForbidden,

	shipping.ErrCodeOrderNotFound: http.StatusNotFound,

	shipping.ErrCodeAlreadyPurchased: http.StatusConflict,

	shipping.ErrCodeFreightOnly: http.StatusUnprocessableEntity,

	shipping.ErrCodeProviderRequest: http.StatusBadGateway,
	shipping.ErrCodeNoRates:         http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
