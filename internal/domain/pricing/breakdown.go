package pricing

import (
	"time"

	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CostBreakdown is the itemized result of a landed-cost calculation.
// Every intermediate base is retained for audit. All component values are in
// the origin currency; GrandTotalDestination is the grand total converted
// with the snapshotted rate. A breakdown is an immutable snapshot: price
// corrections create a new revision, never edit an existing one.
type CostBreakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	PurchaseTax    decimal.Decimal `json:"purchase_tax"`
	ActualItemCost decimal.Decimal `json:"actual_item_cost"`

	Shipping       decimal.Decimal `json:"shipping"`
	RouteSurcharge decimal.Decimal `json:"route_surcharge"`

	CustomsBase   decimal.Decimal `json:"customs_base"`
	CustomsAmount decimal.Decimal `json:"customs_amount"`

	Handling  decimal.Decimal `json:"handling"`
	Insurance decimal.Decimal `json:"insurance"`

	DestinationTaxBase decimal.Decimal `json:"destination_tax_base"`
	DestinationTax     decimal.Decimal `json:"destination_tax"`

	Discount    decimal.Decimal `json:"discount"`
	PreFeeTotal decimal.Decimal `json:"pre_fee_total"`
	GatewayFee  decimal.Decimal `json:"gateway_fee"`

	GrandTotal decimal.Decimal `json:"grand_total"`

	Currency            valueobject.Currency `json:"currency"`
	DestinationCurrency valueobject.Currency `json:"destination_currency"`
	GrandTotalDestination decimal.Decimal    `json:"grand_total_destination"`
	RateUsed            decimal.Decimal      `json:"rate_used"`
	RateSource          RateSource           `json:"rate_source"`

	ChargeableWeightKg decimal.Decimal `json:"chargeable_weight_kg"`
	CalculatedAt       time.Time       `json:"calculated_at"`
}

// GrandTotalMoney returns the grand total as Money in the origin currency
func (b *CostBreakdown) GrandTotalMoney() valueobject.Money {
	return valueobject.MustMoney(b.GrandTotal, b.Currency)
}

// GrandTotalDestinationMoney returns the converted grand total as Money
func (b *CostBreakdown) GrandTotalDestinationMoney() valueobject.Money {
	return valueobject.MustMoney(b.GrandTotalDestination, b.DestinationCurrency)
}

// ComponentSum re-adds the itemized components. It must equal GrandTotal
// within rounding tolerance; the reconciliation job uses this for drift
// detection on stored breakdowns.
func (b *CostBreakdown) ComponentSum() decimal.Decimal {
	return b.ActualItemCost.
		Add(b.Shipping).
		Add(b.CustomsAmount).
		Add(b.Handling).
		Add(b.Insurance).
		Add(b.DestinationTax).
		Sub(b.Discount).
		Add(b.GatewayFee)
}
