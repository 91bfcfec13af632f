package pricing

import (
	"time"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Item is a single priced line fed into the calculator. Unit price is in the
// profile's origin currency.
type Item struct {
	Quantity   int64
	UnitPrice  decimal.Decimal
	UnitWeight valueobject.Weight
}

// Route carries the shipping-route inputs for a calculation
type Route struct {
	OriginCountry      string
	DestinationCountry string
	// Surcharge is a flat route-specific shipping addition in origin currency
	Surcharge decimal.Decimal
}

// Calculator computes landed-cost breakdowns. It is pure and stateless:
// identical inputs always yield identical breakdowns, and concurrent calls
// share nothing, which makes it safe for repeated preview pricing.
type Calculator struct {
	amountCeiling decimal.Decimal
}

// CalculatorOption is a functional option for Calculator configuration
type CalculatorOption func(*Calculator)

// WithAmountCeiling sets the sanity ceiling for computed grand totals.
// Totals above it fail with AMOUNT_OUT_OF_RANGE instead of flowing into
// payment processing.
func WithAmountCeiling(ceiling decimal.Decimal) CalculatorOption {
	return func(c *Calculator) {
		if ceiling.IsPositive() {
			c.amountCeiling = ceiling
		}
	}
}

// NewCalculator creates a calculator with optional configuration
func NewCalculator(opts ...CalculatorOption) *Calculator {
	c := &Calculator{
		amountCeiling: decimal.NewFromInt(1_000_000),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute runs the fixed-order landed-cost algorithm:
//
//  1. subtotal = sum(quantity * unit_price)
//  2. purchase_tax = subtotal * origin_sales_tax; actual_item_cost = subtotal + purchase_tax
//  3. shipping = max(min_shipping, weight-tier rate) + route surcharge
//  4. customs_base = actual_item_cost + shipping; customs = customs_base * customs%
//  5. destination_tax_base = actual_item_cost + shipping + customs + handling + insurance
//  6. pre_fee_total = destination_tax_base + destination_tax - discount
//  7. gateway_fee = pre_fee_total * gateway% + gateway_fixed  (never fee-on-fee)
//  8. grand_total = pre_fee_total + gateway_fee
//
// No intermediate value is rounded; rounding happens only at
// persistence/display via Money.RoundBank.
func (c *Calculator) Compute(items []Item, route Route, profile ProfileSnapshot, rate ExchangeRate, discount decimal.Decimal) (*CostBreakdown, error) {
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one item is required")
	}
	if profile.OriginCurrency == "" || profile.DestinationCurrency == "" {
		return nil, shared.NewDomainError("CONFIGURATION_MISSING", "Tax/fee profile is missing or incomplete")
	}
	if rate.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("CONFIGURATION_MISSING", "Exchange rate snapshot is missing")
	}
	if rate.From != profile.OriginCurrency || rate.To != profile.DestinationCurrency {
		return nil, shared.NewDomainErrorWithDetails("CONFIGURATION_MISSING",
			"Exchange rate pair does not match profile currencies",
			map[string]any{"rate_from": string(rate.From), "rate_to": string(rate.To)})
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Discount cannot be negative",
			map[string]any{"field": "discount"})
	}

	subtotal := decimal.Zero
	totalWeight := valueobject.ZeroWeight()
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item quantity must be positive",
				map[string]any{"item_index": i, "field": "quantity"})
		}
		if item.UnitPrice.IsNegative() {
			return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item unit price cannot be negative",
				map[string]any{"item_index": i, "field": "unit_price"})
		}
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
		totalWeight = totalWeight.Add(item.UnitWeight.MultiplyByInt(item.Quantity))
	}

	purchaseTax := subtotal.Mul(profile.OriginSalesTaxPercent).Div(oneHundred)
	actualItemCost := subtotal.Add(purchaseTax)

	tierRate := profile.ShippingForWeight(totalWeight)
	shipping := decimal.Max(profile.MinShipping, tierRate)
	surcharge := route.Surcharge
	if surcharge.IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Route surcharge cannot be negative",
			map[string]any{"field": "surcharge"})
	}
	shipping = shipping.Add(surcharge)

	customsBase := actualItemCost.Add(shipping)
	customsAmount := customsBase.Mul(profile.CustomsPercent).Div(oneHundred)

	handling := profile.HandlingFee
	insurance := actualItemCost.Mul(profile.InsurancePercent).Div(oneHundred)

	destinationTaxBase := actualItemCost.Add(shipping).Add(customsAmount).Add(handling).Add(insurance)
	destinationTax := destinationTaxBase.Mul(profile.VATPercent).Div(oneHundred)

	preFeeTotal := destinationTaxBase.Add(destinationTax).Sub(discount)
	if preFeeTotal.IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Discount exceeds the pre-fee total",
			map[string]any{"field": "discount", "pre_fee_total": preFeeTotal.String()})
	}

	// Gateway fee on the post-discount pre-fee total, never on itself
	gatewayFee := preFeeTotal.Mul(profile.GatewayPercentFee).Div(oneHundred).Add(profile.GatewayFixedFee)
	grandTotal := preFeeTotal.Add(gatewayFee)

	if grandTotal.GreaterThan(c.amountCeiling) {
		return nil, shared.NewDomainErrorWithDetails("AMOUNT_OUT_OF_RANGE",
			"Grand total exceeds the configured ceiling",
			map[string]any{"grand_total": grandTotal.String(), "ceiling": c.amountCeiling.String()})
	}

	grandTotalDestination := grandTotal.Mul(rate.Rate)

	return &CostBreakdown{
		Subtotal:              subtotal,
		PurchaseTax:           purchaseTax,
		ActualItemCost:        actualItemCost,
		Shipping:              shipping,
		RouteSurcharge:        surcharge,
		CustomsBase:           customsBase,
		CustomsAmount:         customsAmount,
		Handling:              handling,
		Insurance:             insurance,
		DestinationTaxBase:    destinationTaxBase,
		DestinationTax:        destinationTax,
		Discount:              discount,
		PreFeeTotal:           preFeeTotal,
		GatewayFee:            gatewayFee,
		GrandTotal:            grandTotal,
		Currency:              profile.OriginCurrency,
		DestinationCurrency:   profile.DestinationCurrency,
		GrandTotalDestination: grandTotalDestination,
		RateUsed:              rate.Rate,
		RateSource:            rate.Source,
		ChargeableWeightKg:    totalWeight.Kilograms(),
		CalculatedAt:          time.Now(),
	}, nil
}
