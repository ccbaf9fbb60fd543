package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appshipping "github.com/commerce/fulfillment/internal/application/shipping"
	"github.com/commerce/fulfillment/internal/domain/shipping"
	"github.com/commerce/fulfillment/internal/infrastructure/logger"
)

// ShippingHandler handles rate quoting and label purchase endpoints.
type ShippingHandler struct {
	BaseHandler
	quotes    *appshipping.QuoteService
	purchases *appshipping.PurchaseService
}

// NewShippingHandler creates a new ShippingHandler
func NewShippingHandler(quotes *appshipping.QuoteService, purchases *appshipping.PurchaseService) *ShippingHandler {
	return &ShippingHandler{quotes: quotes, purchases: purchases}
}

// RegisterRoutes registers shipping routes on the API group.
func (h *ShippingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/shipping")
	group.POST("/quote", h.Quote)
	group.POST("/labels", h.Purchase)
}

// quoteRequest binds the quote endpoint's body. Destination fields are
// checked for completeness downstream so partial addresses produce a
// structured missing-fields error rather than a binding failure.
type quoteRequest struct {
	Cart        []appshipping.QuoteItemInput `json:"cart" binding:"required"`
	Destination destinationRequest           `json:"destination" binding:"required"`
}

type destinationRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email" binding:"omitempty,email"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

func (d destinationRequest) toAddress() shipping.Address {
	return shipping.Address{
		Name:       d.Name,
		Phone:      d.Phone,
		Email:      d.Email,
		Line1:      d.Line1,
		Line2:      d.Line2,
		City:       d.City,
		State:      d.State,
		PostalCode: d.PostalCode,
		Country:    d.Country,
	}
}

// Quote handles POST /shipping/quote.
func (h *ShippingHandler) Quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.quotes.Quote(c.Request.Context(), appshipping.QuoteRequest{
		Cart:        req.Cart,
		Destination: req.Destination.toAddress(),
	})
	if err != nil {
		logger.FromGin(c).Warn("quote failed", zap.Error(err))
		h.DomainError(c, err)
		return
	}

	h.Success(c, resp)
}

// purchaseRequest binds the label purchase endpoint's body.
type purchaseRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	ManualTrigger bool   `json:"manualTrigger"`
	RateID        string `json:"rateId"`
}

// Purchase handles POST /shipping/labels.
func (h *ShippingHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	resp, err := h.purchases.Purchase(c.Request.Context(), appshipping.PurchaseRequest{
		OrderID:       req.OrderID,
		ManualTrigger: req.ManualTrigger,
		RateID:        req.RateID,
	})
	if err != nil {
		logger.FromGin(c).Warn("label purchase failed",
			zap.String("order_id", req.OrderID),
			zap.Error(err))
		h.DomainError(c, err)
		return
	}

	h.Success(c, resp)
}
