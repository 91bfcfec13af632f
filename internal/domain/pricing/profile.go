package pricing

import (
	"time"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WeightTier defines a shipping rate applying up to a weight ceiling.
// Tiers are kept sorted ascending by ceiling; the first tier whose ceiling
// covers the chargeable weight wins.
type WeightTier struct {
	UpToKg decimal.Decimal `json:"up_to_kg"`
	Rate   decimal.Decimal `json:"rate"`
}

// TaxFeeProfile is the per-destination tax and fee configuration used by the
// landed-cost calculator. Profiles are versioned by effective date and never
// edited in place; a quote snapshots the values it priced with, so later
// versions cannot retroactively change historical breakdowns.
type TaxFeeProfile struct {
	shared.BaseAggregateRoot

	DestinationCountry string    `json:"destination_country" gorm:"index:idx_profile_dest_effective"`
	EffectiveFrom      time.Time `json:"effective_from" gorm:"index:idx_profile_dest_effective"`

	// Percentages are expressed as e.g. 8.88 for 8.88%
	OriginSalesTaxPercent decimal.Decimal `json:"origin_sales_tax_percent"`
	CustomsPercent        decimal.Decimal `json:"customs_percent"`
	VATPercent            decimal.Decimal `json:"vat_percent"`

	// Shipping in origin currency: max(MinShipping, tier rate) + route surcharge
	MinShipping decimal.Decimal `json:"min_shipping"`
	WeightTiers []WeightTier    `json:"weight_tiers" gorm:"serializer:json"`
	// OverflowRatePerKg applies per kilogram beyond the last tier ceiling
	OverflowRatePerKg decimal.Decimal `json:"overflow_rate_per_kg"`

	HandlingFee      decimal.Decimal `json:"handling_fee"`
	InsurancePercent decimal.Decimal `json:"insurance_percent"`

	GatewayPercentFee decimal.Decimal `json:"gateway_percent_fee"`
	GatewayFixedFee   decimal.Decimal `json:"gateway_fixed_fee"`

	OriginCurrency      valueobject.Currency `json:"origin_currency"`
	DestinationCurrency valueobject.Currency `json:"destination_currency"`
}

// NewTaxFeeProfile creates a new profile version for a destination country
func NewTaxFeeProfile(destinationCountry string, effectiveFrom time.Time, originCurrency, destinationCurrency valueobject.Currency) (*TaxFeeProfile, error) {
	if destinationCountry == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Destination country cannot be empty")
	}
	if originCurrency == "" || destinationCurrency == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Profile currencies cannot be empty")
	}

	return &TaxFeeProfile{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		DestinationCountry:  destinationCountry,
		EffectiveFrom:       effectiveFrom,
		WeightTiers:         make([]WeightTier, 0),
		OriginCurrency:      originCurrency,
		DestinationCurrency: destinationCurrency,
	}, nil
}

// Validate checks the profile for values the calculator cannot price with
func (p *TaxFeeProfile) Validate() error {
	for _, pct := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"origin_sales_tax_percent", p.OriginSalesTaxPercent},
		{"customs_percent", p.CustomsPercent},
		{"vat_percent", p.VATPercent},
		{"insurance_percent", p.InsurancePercent},
		{"gateway_percent_fee", p.GatewayPercentFee},
	} {
		if pct.value.IsNegative() {
			return shared.NewDomainErrorWithDetails("INVALID_INPUT", "Profile percentage cannot be negative",
				map[string]any{"field": pct.name})
		}
	}
	if p.MinShipping.IsNegative() || p.HandlingFee.IsNegative() || p.GatewayFixedFee.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Profile fee amounts cannot be negative")
	}
	for i, tier := range p.WeightTiers {
		if tier.UpToKg.LessThanOrEqual(decimal.Zero) || tier.Rate.IsNegative() {
			return shared.NewDomainErrorWithDetails("INVALID_INPUT", "Invalid weight tier",
				map[string]any{"tier_index": i})
		}
		if i > 0 && tier.UpToKg.LessThanOrEqual(p.WeightTiers[i-1].UpToKg) {
			return shared.NewDomainErrorWithDetails("INVALID_INPUT", "Weight tiers must be strictly ascending",
				map[string]any{"tier_index": i})
		}
	}
	return nil
}

// AddWeightTier appends a tier; ceilings must stay strictly ascending
func (p *TaxFeeProfile) AddWeightTier(upToKg, rate decimal.Decimal) error {
	if upToKg.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_INPUT", "Tier ceiling must be positive")
	}
	if rate.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Tier rate cannot be negative")
	}
	if n := len(p.WeightTiers); n > 0 && upToKg.LessThanOrEqual(p.WeightTiers[n-1].UpToKg) {
		return shared.NewDomainError("INVALID_INPUT", "Tier ceiling must exceed the previous tier")
	}
	p.WeightTiers = append(p.WeightTiers, WeightTier{UpToKg: upToKg, Rate: rate})
	p.UpdatedAt = time.Now()
	return nil
}

// ShippingForWeight returns the tiered shipping rate for a chargeable weight,
// before the minimum-shipping floor and route surcharge are applied.
// Weight beyond the last tier ceiling is charged at OverflowRatePerKg.
func (p *TaxFeeProfile) ShippingForWeight(weight valueobject.Weight) decimal.Decimal {
	kg := weight.Kilograms()
	for _, tier := range p.WeightTiers {
		if kg.LessThanOrEqual(tier.UpToKg) {
			return tier.Rate
		}
	}
	if len(p.WeightTiers) == 0 {
		return kg.Mul(p.OverflowRatePerKg)
	}
	last := p.WeightTiers[len(p.WeightTiers)-1]
	overflow := kg.Sub(last.UpToKg)
	return last.Rate.Add(overflow.Mul(p.OverflowRatePerKg))
}

// Snapshot captures the profile values a quote priced with. The snapshot is
// immutable and stored on the quote; later profile versions never touch it.
func (p *TaxFeeProfile) Snapshot() ProfileSnapshot {
	tiers := make([]WeightTier, len(p.WeightTiers))
	copy(tiers, p.WeightTiers)
	return ProfileSnapshot{
		ProfileID:             p.ID,
		ProfileVersion:        p.Version,
		DestinationCountry:    p.DestinationCountry,
		EffectiveFrom:         p.EffectiveFrom,
		OriginSalesTaxPercent: p.OriginSalesTaxPercent,
		CustomsPercent:        p.CustomsPercent,
		VATPercent:            p.VATPercent,
		MinShipping:           p.MinShipping,
		WeightTiers:           tiers,
		OverflowRatePerKg:     p.OverflowRatePerKg,
		HandlingFee:           p.HandlingFee,
		InsurancePercent:      p.InsurancePercent,
		GatewayPercentFee:     p.GatewayPercentFee,
		GatewayFixedFee:       p.GatewayFixedFee,
		OriginCurrency:        p.OriginCurrency,
		DestinationCurrency:   p.DestinationCurrency,
	}
}

// ProfileSnapshot is the frozen copy of TaxFeeProfile values referenced by a
// quote. It carries the source profile id and version for audit.
type ProfileSnapshot struct {
	ProfileID             uuid.UUID            `json:"profile_id"`
	ProfileVersion        int                  `json:"profile_version"`
	DestinationCountry    string               `json:"destination_country"`
	EffectiveFrom         time.Time            `json:"effective_from"`
	OriginSalesTaxPercent decimal.Decimal      `json:"origin_sales_tax_percent"`
	CustomsPercent        decimal.Decimal      `json:"customs_percent"`
	VATPercent            decimal.Decimal      `json:"vat_percent"`
	MinShipping           decimal.Decimal      `json:"min_shipping"`
	WeightTiers           []WeightTier         `json:"weight_tiers"`
	OverflowRatePerKg     decimal.Decimal      `json:"overflow_rate_per_kg"`
	HandlingFee           decimal.Decimal      `json:"handling_fee"`
	InsurancePercent      decimal.Decimal      `json:"insurance_percent"`
	GatewayPercentFee     decimal.Decimal      `json:"gateway_percent_fee"`
	GatewayFixedFee       decimal.Decimal      `json:"gateway_fixed_fee"`
	OriginCurrency        valueobject.Currency `json:"origin_currency"`
	DestinationCurrency   valueobject.Currency `json:"destination_currency"`
}

// ShippingForWeight mirrors TaxFeeProfile.ShippingForWeight on the snapshot
func (s ProfileSnapshot) ShippingForWeight(weight valueobject.Weight) decimal.Decimal {
	kg := weight.Kilograms()
	for _, tier := range s.WeightTiers {
		if kg.LessThanOrEqual(tier.UpToKg) {
			return tier.Rate
		}
	}
	if len(s.WeightTiers) == 0 {
		return kg.Mul(s.OverflowRatePerKg)
	}
	last := s.WeightTiers[len(s.WeightTiers)-1]
	overflow := kg.Sub(last.UpToKg)
	return last.Rate.Add(overflow.Mul(s.OverflowRatePerKg))
}
