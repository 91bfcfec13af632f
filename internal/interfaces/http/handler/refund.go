package handler

import (
	paymentapp "github.com/crossbay/backend/internal/application/payment"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundHandler handles refund workflow API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *paymentapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *paymentapp.RefundService) *RefundHandler {
	return &RefundHandler{refundService: refundService}
}

// RegisterRoutes registers refund routes
func (h *RefundHandler) RegisterRoutes(rg *gin.RouterGroup) {
	refunds := rg.Group("/refunds")
	{
		refunds.POST("", h.Request)
		refunds.GET("/:id", h.GetByID)
		refunds.POST("/:id/approve", h.Approve)
		refunds.POST("/:id/reject", h.Reject)
		refunds.POST("/:id/apply", h.Apply)
	}

	rg.GET("/quotes/:id/refunds", h.ListByQuote)
}

// RequestRefundRequest represents a customer refund request
type RequestRefundRequest struct {
	QuoteID string          `json:"quote_id" binding:"required,uuid"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
	Reason  string          `json:"reason" binding:"required,min=1,max=1000"`
}

// Request opens a refund request against a quote's paid ledger
func (h *RefundHandler) Request(c *gin.Context) {
	var req RequestRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	quoteID, err := uuid.Parse(req.QuoteID)
	if err != nil {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	request, err := h.refundService.RequestRefund(c.Request.Context(), quoteID, req.Amount, req.Reason, getActorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, request)
}

// GetByID retrieves a refund request by ID
func (h *RefundHandler) GetByID(c *gin.Context) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid refund request ID format")
		return
	}

	request, err := h.refundService.GetRefundRequest(c.Request.Context(), requestID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, request)
}

// ApproveRefundRequest represents an operator approval with the final amount
type ApproveRefundRequest struct {
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	ApprovedBy string          `json:"approved_by" binding:"required,uuid"`
}

// Approve approves a refund request at the given amount. The approved
// amount becomes the ceiling for everything refunded under this request.
func (h *RefundHandler) Approve(c *gin.Context) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid refund request ID format")
		return
	}

	var req ApproveRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	approvedBy, err := uuid.Parse(req.ApprovedBy)
	if err != nil {
		h.BadRequest(c, "Invalid approver ID format")
		return
	}

	request, err := h.refundService.ApproveRefund(c.Request.Context(), requestID, req.Amount, approvedBy)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, request)
}

// Reject rejects a refund request
func (h *RefundHandler) Reject(c *gin.Context) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid refund request ID format")
		return
	}

	var req ReasonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	request, err := h.refundService.RejectRefund(c.Request.Context(), requestID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, request)
}

// ApplyRefundRequest represents a gateway refund execution
type ApplyRefundRequest struct {
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	GatewayCode       string          `json:"gateway_code" binding:"required,min=1,max=50"`
	ExternalReference string          `json:"external_reference" binding:"required,min=1,max=200"`
}

// Apply records an executed refund against an approved request. Partial
// refunds are allowed up to the approved amount.
func (h *RefundHandler) Apply(c *gin.Context) {
	requestID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid refund request ID format")
		return
	}

	var req ApplyRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.refundService.ApplyRefund(c.Request.Context(), paymentapp.ApplyRefundRequest{
		RefundRequestID:   requestID,
		Amount:            req.Amount,
		GatewayCode:       req.GatewayCode,
		ExternalReference: req.ExternalReference,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListByQuote returns all refund requests for a quote
func (h *RefundHandler) ListByQuote(c *gin.Context) {
	quoteID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid quote ID format")
		return
	}

	requests, err := h.refundService.ListByQuote(c.Request.Context(), quoteID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, requests)
}
