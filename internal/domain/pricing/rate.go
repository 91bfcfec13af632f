package pricing

import (
	"context"
	"time"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// RateSource identifies where a resolved exchange rate came from
type RateSource string

const (
	// RateSourceRouteOverride means the rate was pinned for a specific
	// origin/destination route
	RateSourceRouteOverride RateSource = "ROUTE_OVERRIDE"
	// RateSourceCountryBase means the destination country's base rate applied
	RateSourceCountryBase RateSource = "COUNTRY_BASE"
)

// ExchangeRate is a resolved conversion rate for a currency pair at a point
// in time. The quote snapshots the resolved rate and its source at
// calculation time; rates are never shared mutable state.
type ExchangeRate struct {
	From       valueobject.Currency `json:"from"`
	To         valueobject.Currency `json:"to"`
	Rate       decimal.Decimal      `json:"rate"`
	Source     RateSource           `json:"source"`
	ResolvedAt time.Time            `json:"resolved_at"`
}

// Convert converts an origin-currency amount into the target currency.
// Returns an error on a currency mismatch; silent conversion through the
// wrong rate is exactly the bug class this type exists to prevent.
func (r ExchangeRate) Convert(m valueobject.Money) (valueobject.Money, error) {
	if m.Currency() != r.From {
		return valueobject.Money{}, shared.NewDomainErrorWithDetails("INVALID_INPUT",
			"Amount currency does not match rate pair",
			map[string]any{"amount_currency": string(m.Currency()), "rate_from": string(r.From)})
	}
	return valueobject.MustMoney(m.Amount().Mul(r.Rate), r.To), nil
}

// RateRecord is a stored exchange rate row. Route-scoped records (both
// OriginCountry and DestinationCountry set) override country-scoped records
// (OriginCountry empty).
type RateRecord struct {
	shared.BaseEntity
	From               valueobject.Currency `json:"from" gorm:"column:from_currency;index:idx_rate_pair"`
	To                 valueobject.Currency `json:"to" gorm:"column:to_currency;index:idx_rate_pair"`
	OriginCountry      string               `json:"origin_country"`
	DestinationCountry string               `json:"destination_country"`
	Rate               decimal.Decimal      `json:"rate" gorm:"type:numeric(20,10)"`
	EffectiveFrom      time.Time            `json:"effective_from"`
}

// RateRepository supplies stored rates to the resolver
type RateRepository interface {
	// FindRouteOverride returns the newest route-pinned rate effective at
	// asOf for the currency pair, or nil if none exists
	FindRouteOverride(ctx context.Context, from, to valueobject.Currency, originCountry, destinationCountry string, asOf time.Time) (*RateRecord, error)

	// FindCountryBase returns the newest country-level rate effective at
	// asOf for the currency pair, or nil if none exists
	FindCountryBase(ctx context.Context, from, to valueobject.Currency, destinationCountry string, asOf time.Time) (*RateRecord, error)

	Save(ctx context.Context, record *RateRecord) error
}

// RateResolver resolves an exchange rate for a currency pair on a route.
// Resolution order: route-level override, then country-level base rate,
// then fail closed. A missing rate is never defaulted to 1.0.
type RateResolver struct {
	rates RateRepository
}

// NewRateResolver creates a resolver backed by the given repository
func NewRateResolver(rates RateRepository) *RateResolver {
	return &RateResolver{rates: rates}
}

// Resolve returns the effective rate for the pair and route at asOf
func (r *RateResolver) Resolve(ctx context.Context, from, to valueobject.Currency, originCountry, destinationCountry string, asOf time.Time) (ExchangeRate, error) {
	if from == "" || to == "" {
		return ExchangeRate{}, shared.NewDomainError("INVALID_INPUT", "Currency pair cannot be empty")
	}
	if from == to {
		return ExchangeRate{
			From: from, To: to,
			Rate:       decimal.NewFromInt(1),
			Source:     RateSourceCountryBase,
			ResolvedAt: asOf,
		}, nil
	}

	override, err := r.rates.FindRouteOverride(ctx, from, to, originCountry, destinationCountry, asOf)
	if err != nil {
		return ExchangeRate{}, err
	}
	if override != nil {
		return ExchangeRate{From: from, To: to, Rate: override.Rate, Source: RateSourceRouteOverride, ResolvedAt: asOf}, nil
	}

	base, err := r.rates.FindCountryBase(ctx, from, to, destinationCountry, asOf)
	if err != nil {
		return ExchangeRate{}, err
	}
	if base != nil {
		return ExchangeRate{From: from, To: to, Rate: base.Rate, Source: RateSourceCountryBase, ResolvedAt: asOf}, nil
	}

	return ExchangeRate{}, shared.NewDomainErrorWithDetails("RATE_UNAVAILABLE",
		"No exchange rate available for currency pair",
		map[string]any{
			"from":                string(from),
			"to":                  string(to),
			"destination_country": destinationCountry,
		})
}
