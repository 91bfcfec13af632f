package quoting

import (
	"context"
	"time"

	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/crossbay/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CalculationService prices quotes. It resolves the effective tax/fee
// profile and exchange rate, runs the landed-cost calculator, and snapshots
// all three onto the quote so the price survives later configuration edits.
type CalculationService struct {
	quotes   quote.QuoteRepository
	profiles pricing.ProfileRepository
	routes   pricing.RouteConfigRepository
	resolver *pricing.RateResolver
	calc     *pricing.Calculator
	logger   *zap.Logger
	metrics  *telemetry.BusinessMetrics
}

// CalculationOption customizes a CalculationService
type CalculationOption func(*CalculationService)

// WithCalculationMetrics attaches business metrics to priced quotes
func WithCalculationMetrics(metrics *telemetry.BusinessMetrics) CalculationOption {
	return func(s *CalculationService) {
		s.metrics = metrics
	}
}

// NewCalculationService creates a new CalculationService
func NewCalculationService(
	quotes quote.QuoteRepository,
	profiles pricing.ProfileRepository,
	routes pricing.RouteConfigRepository,
	resolver *pricing.RateResolver,
	calc *pricing.Calculator,
	logger *zap.Logger,
	opts ...CalculationOption,
) *CalculationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CalculationService{
		quotes:   quotes,
		profiles: profiles,
		routes:   routes,
		resolver: resolver,
		calc:     calc,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PriceQuote calculates the landed cost for a pending quote and snapshots
// the breakdown, profile, and rate onto it
func (s *CalculationService) PriceQuote(ctx context.Context, quoteID uuid.UUID, discount decimal.Decimal) (*quote.Quote, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}

	breakdown, profile, rate, err := s.compute(ctx, q, discount, time.Now())
	if err != nil {
		return nil, err
	}

	if err := q.AttachCalculation(breakdown, profile, rate, discount); err != nil {
		return nil, err
	}
	if err := s.quotes.SaveWithLock(ctx, q); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordQuoteTotal(ctx, breakdown.GrandTotal.InexactFloat64(), string(breakdown.Currency))
	}

	s.logger.Info("quote priced",
		zap.String("quote_id", q.ID.String()),
		zap.String("grand_total", breakdown.GrandTotal.String()),
		zap.String("currency", string(breakdown.Currency)),
		zap.String("rate_source", string(breakdown.RateSource)))

	return q, nil
}

// Reprice recomputes a frozen quote's breakdown with current configuration
// and applies it as a new revision, returning the signed delta the caller
// must offset in the ledger
func (s *CalculationService) Reprice(ctx context.Context, quoteID uuid.UUID, reason string, actor *uuid.UUID) (*quote.Quote, decimal.Decimal, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if q == nil {
		return nil, decimal.Zero, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}

	breakdown, _, _, err := s.compute(ctx, q, q.Discount, time.Now())
	if err != nil {
		return nil, decimal.Zero, err
	}

	delta, err := q.AdjustPrice(breakdown, reason, actor)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := s.quotes.SaveWithLock(ctx, q); err != nil {
		return nil, decimal.Zero, err
	}

	s.logger.Info("quote repriced",
		zap.String("quote_id", q.ID.String()),
		zap.Int("revision", q.BreakdownRevision),
		zap.String("delta", delta.String()))

	return q, delta, nil
}

// PreviewRequest prices an ad-hoc basket without touching any quote
type PreviewRequest struct {
	OriginCountry      string
	DestinationCountry string
	Items              []pricing.Item
	Discount           decimal.Decimal
}

// Preview runs the calculator against current configuration. The breakdown
// is returned but nothing is persisted.
func (s *CalculationService) Preview(ctx context.Context, req PreviewRequest) (*pricing.CostBreakdown, error) {
	profile, err := s.effectiveProfile(ctx, req.DestinationCountry, time.Now())
	if err != nil {
		return nil, err
	}

	rate, err := s.resolver.Resolve(ctx, profile.OriginCurrency, profile.DestinationCurrency,
		req.OriginCountry, req.DestinationCountry, time.Now())
	if err != nil {
		return nil, err
	}

	route, err := s.route(ctx, req.OriginCountry, req.DestinationCountry)
	if err != nil {
		return nil, err
	}

	return s.calc.Compute(req.Items, route, profile.Snapshot(), rate, req.Discount)
}

func (s *CalculationService) compute(ctx context.Context, q *quote.Quote, discount decimal.Decimal, asOf time.Time) (*pricing.CostBreakdown, pricing.ProfileSnapshot, pricing.ExchangeRate, error) {
	profile, err := s.effectiveProfile(ctx, q.DestinationCountry, asOf)
	if err != nil {
		return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, err
	}
	if profile.OriginCurrency != q.Currency || profile.DestinationCurrency != q.DestinationCurrency {
		return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, shared.NewDomainErrorWithDetails(
			"CONFIGURATION_MISSING", "Profile currencies do not match the quote",
			map[string]any{
				"profile_origin": string(profile.OriginCurrency),
				"quote_origin":   string(q.Currency),
			})
	}

	rate, err := s.resolver.Resolve(ctx, q.Currency, q.DestinationCurrency,
		q.OriginCountry, q.DestinationCountry, asOf)
	if err != nil {
		return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, err
	}

	route, err := s.route(ctx, q.OriginCountry, q.DestinationCountry)
	if err != nil {
		return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, err
	}

	items := make([]pricing.Item, 0, len(q.Items))
	for _, it := range q.Items {
		weight, werr := valueobject.NewWeight(it.UnitWeightKg)
		if werr != nil {
			return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, werr
		}
		items = append(items, pricing.Item{
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			UnitWeight: weight,
		})
	}

	snapshot := profile.Snapshot()
	breakdown, err := s.calc.Compute(items, route, snapshot, rate, discount)
	if err != nil {
		return nil, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, err
	}
	return breakdown, snapshot, rate, nil
}

// effectiveProfile fails closed: a destination without a configured profile
// cannot be priced
func (s *CalculationService) effectiveProfile(ctx context.Context, destinationCountry string, asOf time.Time) (*pricing.TaxFeeProfile, error) {
	profile, err := s.profiles.FindEffective(ctx, destinationCountry, asOf)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, shared.NewDomainErrorWithDetails("CONFIGURATION_MISSING",
			"No tax/fee profile configured for destination",
			map[string]any{"destination_country": destinationCountry})
	}
	return profile, nil
}

func (s *CalculationService) route(ctx context.Context, originCountry, destinationCountry string) (pricing.Route, error) {
	route := pricing.Route{
		OriginCountry:      originCountry,
		DestinationCountry: destinationCountry,
		Surcharge:          decimal.Zero,
	}
	config, err := s.routes.FindRoute(ctx, originCountry, destinationCountry)
	if err != nil {
		return route, err
	}
	if config != nil && config.Active {
		route.Surcharge = config.Surcharge
	}
	return route, nil
}
