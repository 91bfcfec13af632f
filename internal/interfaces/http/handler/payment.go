package handler

import (
	paymentapp "github.com/crossbay/backend/internal/application/payment"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentHandler handles payment ledger API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.Record)
		payments.POST("/adjustments", h.RecordAdjustment)
	}

	quotes := rg.Group("/quotes")
	{
		quotes.GET("/:id/ledger", h.Ledger)
		quotes.GET("/:id/payment-summary", h.Summary)
	}
}

// RecordPaymentRequest represents a gateway payment notification
type RecordPaymentRequest struct {
	QuoteID           string          `json:"quote_id" binding:"required,uuid"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Currency          string          `json:"currency" binding:"required,currency"`
	GatewayCode       string          `json:"gateway_code" binding:"required,min=1,max=50"`
	ExternalReference string          `json:"external_reference" binding:"required,min=1,max=200"`
}

// Record appends a customer payment to the quote's ledger. Redelivery of
// the same gateway reference returns the original entry with duplicate=true.
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quoteID, err := uuid.Parse(req.QuoteID)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	result, err := h.paymentService.RecordPayment(c.Request.Context(), paymentapp.RecordPaymentRequest{
		QuoteID:           quoteID,
		Amount:            req.Amount,
		Currency:          valueobject.Currency(req.Currency),
		GatewayCode:       req.GatewayCode,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if result.Duplicate {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// RecordAdjustmentRequest represents a signed manual ledger correction
type RecordAdjustmentRequest struct {
	QuoteID           string          `json:"quote_id" binding:"required,uuid"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Currency          string          `json:"currency" binding:"required,currency"`
	ExternalReference string          `json:"external_reference" binding:"required,min=1,max=200"`
	Notes             string          `json:"notes" binding:"max=1000"`
}

// RecordAdjustment appends a manual adjustment entry to the ledger
func (h *PaymentHandler) RecordAdjustment(c *gin.Context) {
	var req RecordAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quoteID, err := uuid.Parse(req.QuoteID)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	result, err := h.paymentService.RecordAdjustment(c.Request.Context(), paymentapp.RecordAdjustmentRequest{
		QuoteID:           quoteID,
		Amount:            req.Amount,
		Currency:          valueobject.Currency(req.Currency),
		ExternalReference: req.ExternalReference,
		Notes:             req.Notes,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// Ledger returns all ledger entries for a quote, oldest first
func (h *PaymentHandler) Ledger(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	entries, err := h.paymentService.LedgerEntries(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}

// Summary returns the quote's current payment summary computed from the ledger
func (h *PaymentHandler) Summary(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	summary, err := h.paymentService.QuoteSummary(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}
