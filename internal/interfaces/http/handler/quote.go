package handler

import (
	"time"

	"github.com/crossbay/backend/internal/application/quoting"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/crossbay/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteHandler handles quote lifecycle API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService       *quoting.QuoteService
	calculationService *quoting.CalculationService
	defaultValidity    time.Duration
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(
	quoteService *quoting.QuoteService,
	calculationService *quoting.CalculationService,
	defaultValidity time.Duration,
) *QuoteHandler {
	return &QuoteHandler{
		quoteService:       quoteService,
		calculationService: calculationService,
		defaultValidity:    defaultValidity,
	}
}

// RegisterRoutes registers quote routes
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("", h.Create)
		quotes.GET("", h.List)
		quotes.GET("/:id", h.GetByID)
		quotes.GET("/:id/history", h.History)

		quotes.POST("/:id/items", h.AddItem)
		quotes.DELETE("/:id/items/:itemId", h.RemoveItem)
		quotes.PUT("/:id/address", h.SetAddress)

		quotes.POST("/:id/price", h.Price)
		quotes.POST("/:id/reprice", h.Reprice)

		quotes.POST("/:id/send", h.Send)
		quotes.POST("/:id/approve", h.Approve)
		quotes.POST("/:id/reject", h.Reject)
		quotes.POST("/:id/cancel", h.Cancel)
		quotes.POST("/:id/start-payment", h.StartPayment)
		quotes.POST("/:id/start-processing", h.StartProcessing)
		quotes.POST("/:id/mark-ordered", h.MarkOrdered)
		quotes.POST("/:id/mark-shipped", h.MarkShipped)
		quotes.POST("/:id/complete", h.Complete)
	}
}

// QuoteItemRequest represents one line item on a quote request
type QuoteItemRequest struct {
	Description  string          `json:"description" binding:"required,min=1,max=500"`
	ProductURL   string          `json:"product_url" binding:"omitempty,url,max=2000"`
	Quantity     int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	UnitWeightKg decimal.Decimal `json:"unit_weight_kg" binding:"required"`
	Notes        string          `json:"notes" binding:"max=1000"`
}

// CreateQuoteRequest represents a request to create a new quote
type CreateQuoteRequest struct {
	QuoteNumber         string             `json:"quote_number" binding:"required,min=1,max=50"`
	CustomerID          string             `json:"customer_id" binding:"required,uuid"`
	OriginCountry       string             `json:"origin_country" binding:"required,len=2"`
	DestinationCountry  string             `json:"destination_country" binding:"required,len=2"`
	Currency            string             `json:"currency" binding:"required,currency"`
	DestinationCurrency string             `json:"destination_currency" binding:"required,currency"`
	Items               []QuoteItemRequest `json:"items" binding:"omitempty,dive"`
}

// Create creates a new quote in pending status
func (h *QuoteHandler) Create(c *gin.Context) {
	var req CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.BadRequest(c, "Invalid customer ID format")
		return
	}

	appReq := quoting.CreateQuoteRequest{
		QuoteNumber:         req.QuoteNumber,
		CustomerID:          customerID,
		OriginCountry:       req.OriginCountry,
		DestinationCountry:  req.DestinationCountry,
		Currency:            valueobject.Currency(req.Currency),
		DestinationCurrency: valueobject.Currency(req.DestinationCurrency),
	}
	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, quoting.CreateQuoteItem{
			Description:  item.Description,
			ProductURL:   item.ProductURL,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			UnitWeightKg: item.UnitWeightKg,
			Notes:        item.Notes,
		})
	}

	q, err := h.quoteService.CreateQuote(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, q)
}

// GetByID retrieves a quote by ID
func (h *QuoteHandler) GetByID(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	q, err := h.quoteService.GetQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// List lists a customer's quotes
func (h *QuoteHandler) List(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "customer_id query parameter is required")
		return
	}

	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	quotes, err := h.quoteService.ListByCustomer(c.Request.Context(), customerID, list.PageSize, list.Offset())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quotes)
}

// History returns a quote's transition log
func (h *QuoteHandler) History(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	entries, err := h.quoteService.TransitionHistory(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// AddItem appends a line item to a pending quote
func (h *QuoteHandler) AddItem(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req QuoteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	q, err := h.quoteService.AddItem(c.Request.Context(), quoteID, quoting.CreateQuoteItem{
		Description:  req.Description,
		ProductURL:   req.ProductURL,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		UnitWeightKg: req.UnitWeightKg,
		Notes:        req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// RemoveItem removes a line item from a pending quote
func (h *QuoteHandler) RemoveItem(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}
	itemID, ok := parseUUIDParam(c, "itemId")
	if !ok {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	q, err := h.quoteService.RemoveItem(c.Request.Context(), quoteID, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// ShippingAddressRequest represents a shipping address update
type ShippingAddressRequest struct {
	Recipient  string `json:"recipient" binding:"required,min=1,max=200"`
	Line1      string `json:"line1" binding:"required,min=1,max=500"`
	Line2      string `json:"line2" binding:"max=500"`
	City       string `json:"city" binding:"required,min=1,max=100"`
	PostalCode string `json:"postal_code" binding:"required,min=1,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
	Phone      string `json:"phone" binding:"max=50"`
}

// SetAddress sets the quote's shipping address
func (h *QuoteHandler) SetAddress(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req ShippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	q, err := h.quoteService.SetShippingAddress(c.Request.Context(), quoteID, quote.ShippingAddress{
		Recipient:  req.Recipient,
		Line1:      req.Line1,
		Line2:      req.Line2,
		City:       req.City,
		PostalCode: req.PostalCode,
		Country:    req.Country,
		Phone:      req.Phone,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// PriceQuoteRequest represents a pricing request for a quote
type PriceQuoteRequest struct {
	Discount decimal.Decimal `json:"discount"`
}

// Price runs the landed-cost calculation and attaches it to the quote
func (h *QuoteHandler) Price(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req PriceQuoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	q, err := h.calculationService.PriceQuote(c.Request.Context(), quoteID, req.Discount)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// RepriceQuoteRequest represents a price adjustment on a frozen quote
type RepriceQuoteRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=1000"`
}

// RepriceResponse carries the adjusted quote and the signed price delta
type RepriceResponse struct {
	Quote *quote.Quote    `json:"quote"`
	Delta decimal.Decimal `json:"delta"`
}

// Reprice recalculates a frozen quote against current configuration and
// records the price adjustment
func (h *QuoteHandler) Reprice(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req RepriceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	q, delta, err := h.calculationService.Reprice(c.Request.Context(), quoteID, req.Reason, getActorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, RepriceResponse{Quote: q, Delta: delta})
}

// SendQuoteRequest represents a request to send a quote to the customer
type SendQuoteRequest struct {
	ExpiresAt *time.Time `json:"expires_at"`
}

// Send marks a priced quote as sent and starts its validity window
func (h *QuoteHandler) Send(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req SendQuoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	expiresAt := time.Now().Add(h.defaultValidity)
	if req.ExpiresAt != nil {
		expiresAt = *req.ExpiresAt
	}

	q, err := h.quoteService.SendQuote(c.Request.Context(), quoteID, expiresAt, getActorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}

// ReasonRequest carries an optional reason for a lifecycle move
type ReasonRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// Approve marks a sent quote as approved by the customer
func (h *QuoteHandler) Approve(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.ApproveQuote(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

// Reject marks a sent quote as rejected by the customer
func (h *QuoteHandler) Reject(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, reason string) (*quote.Quote, error) {
		return h.quoteService.RejectQuote(ctx.Request.Context(), quoteID, reason, getActorID(ctx))
	})
}

// Cancel cancels a quote that has not entered fulfillment
func (h *QuoteHandler) Cancel(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, reason string) (*quote.Quote, error) {
		return h.quoteService.CancelQuote(ctx.Request.Context(), quoteID, reason, getActorID(ctx))
	})
}

// StartPayment moves an approved quote into payment collection
func (h *QuoteHandler) StartPayment(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.StartPaymentCollection(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

// StartProcessing moves a paid quote into processing
func (h *QuoteHandler) StartProcessing(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.StartProcessing(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

// MarkOrdered records that the merchant order was placed
func (h *QuoteHandler) MarkOrdered(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.MarkOrdered(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

// MarkShipped records that the forwarded parcel shipped
func (h *QuoteHandler) MarkShipped(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.MarkShipped(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

// Complete closes out a shipped quote
func (h *QuoteHandler) Complete(c *gin.Context) {
	h.transition(c, func(ctx *gin.Context, quoteID uuid.UUID, _ string) (*quote.Quote, error) {
		return h.quoteService.CompleteQuote(ctx.Request.Context(), quoteID, getActorID(ctx))
	})
}

func (h *QuoteHandler) transition(c *gin.Context, fn func(*gin.Context, uuid.UUID, string) (*quote.Quote, error)) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	q, err := fn(c, quoteID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, q)
}
