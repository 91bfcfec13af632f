package quote

import (
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one purchasable line on a quote. Prices are in the quote's
// origin currency; weights are per unit.
type LineItem struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	QuoteID     uuid.UUID `json:"quote_id" gorm:"type:uuid;not null;index"`
	Description string    `json:"description" gorm:"not null"`
	ProductURL  string    `json:"product_url"`

	Quantity     int64           `json:"quantity" gorm:"not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:numeric(20,6);not null"`
	UnitWeightKg decimal.Decimal `json:"unit_weight_kg" gorm:"type:numeric(12,4);not null"`

	Notes string `json:"notes"`
}

// NewLineItem creates a validated line item
func NewLineItem(description, productURL string, quantity int64, unitPrice decimal.Decimal, unitWeight valueobject.Weight, notes string) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item description cannot be empty",
			map[string]any{"field": "description"})
	}
	if quantity <= 0 {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item quantity must be positive",
			map[string]any{"field": "quantity"})
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item unit price cannot be negative",
			map[string]any{"field": "unit_price"})
	}
	if unitWeight.Kilograms().IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item unit weight cannot be negative",
			map[string]any{"field": "unit_weight_kg"})
	}

	return &LineItem{
		ID:           uuid.New(),
		Description:  description,
		ProductURL:   productURL,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
		UnitWeightKg: unitWeight.Kilograms(),
		Notes:        notes,
	}, nil
}

// LineTotal returns quantity * unit price
func (i *LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// LineWeight returns quantity * unit weight
func (i *LineItem) LineWeight() valueobject.Weight {
	w, _ := valueobject.NewWeight(i.UnitWeightKg)
	return w.MultiplyByInt(i.Quantity)
}
