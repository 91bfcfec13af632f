package handler

import (
	"github.com/crossbay/backend/internal/application/quoting"
	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PricingHandler handles ad-hoc pricing API endpoints
type PricingHandler struct {
	BaseHandler
	calculationService *quoting.CalculationService
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(calculationService *quoting.CalculationService) *PricingHandler {
	return &PricingHandler{calculationService: calculationService}
}

// RegisterRoutes registers pricing routes
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pricing/preview", h.Preview)
}

// PreviewItemRequest represents one basket line in a preview
type PreviewItemRequest struct {
	Quantity     int64           `json:"quantity" binding:"required,min=1"`
	UnitPrice    decimal.Decimal `json:"unit_price" binding:"required"`
	UnitWeightKg decimal.Decimal `json:"unit_weight_kg" binding:"required"`
}

// PreviewRequest represents an ad-hoc landed-cost calculation
type PreviewRequest struct {
	OriginCountry      string               `json:"origin_country" binding:"required,len=2"`
	DestinationCountry string               `json:"destination_country" binding:"required,len=2"`
	Items              []PreviewItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount           decimal.Decimal      `json:"discount"`
}

// Preview prices a basket against current configuration without creating
// or touching any quote
func (h *PricingHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := quoting.PreviewRequest{
		OriginCountry:      req.OriginCountry,
		DestinationCountry: req.DestinationCountry,
		Discount:           req.Discount,
	}
	for _, item := range req.Items {
		weight, err := valueobject.NewWeight(item.UnitWeightKg)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		appReq.Items = append(appReq.Items, pricing.Item{
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			UnitWeight: weight,
		})
	}

	breakdown, err := h.calculationService.Preview(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, breakdown)
}
