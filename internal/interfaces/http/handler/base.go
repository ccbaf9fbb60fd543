package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/interfaces/http/dto"
	"github.com/commerce/fulfillment/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := middleware.GetRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindingError sends the response for a request binding failure.
// Validator errors list the offending fields; anything else is treated
// as malformed JSON.
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, fe.Field())
		}
		resp := dto.NewErrorResponseWithRequestID(
			dto.ErrCodeValidation,
			"request validation failed: "+strings.Join(fields, ", "),
			middleware.GetRequestID(c),
		)
		resp.Error.MissingFields = fields
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, err.Error())
}

// DomainError sends the response for an error returned by the
// application layer, mapping stable shipping error codes onto HTTP
// statuses and preserving missing-field details. Errors without a code
// fall back to 500.
func (h *BaseHandler) DomainError(c *gin.Context, err error) {
	var missing *shipping.MissingFieldsError
	if errors.As(err, &missing) {
		resp := dto.NewErrorResponseWithRequestID(missing.Code, missing.Error(), middleware.GetRequestID(c))
		resp.Error.MissingFields = missing.MissingFields
		c.JSON(dto.GetHTTPStatus(missing.Code), resp)
		return
	}

	var domainErr *shipping.DomainError
	if errors.As(err, &domainErr) {
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
		return
	}

	var providerErr *shipping.ProviderError
	if errors.As(err, &providerErr) {
		h.ErrorWithCode(c, shipping.ErrCodeProviderRequest, providerErr.Error())
		return
	}

	h.InternalError(c, err.Error())
}
