package reconciliation

import (
	"context"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationService audits stored financial state. It re-adds breakdown
// components against the stored grand total and replays the ledger against
// the cached payment summary. The ledger is the source of truth: with cache
// repair enabled, a drifted cached summary is re-derived from the ledger.
// Ledger entries and breakdowns are never rewritten.
type ReconciliationService struct {
	quotes    quote.QuoteRepository
	entries   ledger.PaymentEventRepository
	logger    *zap.Logger
	metrics   *telemetry.BusinessMetrics
	tolerance decimal.Decimal
	batchSize int
	repair    bool
}

// Option is a functional option for ReconciliationService
type Option func(*ReconciliationService)

// WithTolerance sets the drift tolerance; differences at or under it are
// treated as rounding residue, not drift
func WithTolerance(tolerance decimal.Decimal) Option {
	return func(s *ReconciliationService) {
		if tolerance.IsPositive() {
			s.tolerance = tolerance
		}
	}
}

// WithMetrics attaches business metrics recording
func WithMetrics(metrics *telemetry.BusinessMetrics) Option {
	return func(s *ReconciliationService) {
		s.metrics = metrics
	}
}

// WithBatchSize limits how many quotes one run inspects
func WithBatchSize(n int) Option {
	return func(s *ReconciliationService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithCacheRepair re-derives a drifted cached payment summary from the
// ledger. Only the cached columns are touched; the ledger itself is
// append-only and never corrected here.
func WithCacheRepair() Option {
	return func(s *ReconciliationService) {
		s.repair = true
	}
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	quotes quote.QuoteRepository,
	entries ledger.PaymentEventRepository,
	logger *zap.Logger,
	opts ...Option,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReconciliationService{
		quotes:    quotes,
		entries:   entries,
		logger:    logger,
		tolerance: decimal.NewFromFloat(0.01),
		batchSize: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DriftReport is the reconciliation finding for one quote
type DriftReport struct {
	QuoteID     uuid.UUID `json:"quote_id"`
	QuoteNumber string    `json:"quote_number"`

	// BreakdownDrift is component sum minus stored grand total
	BreakdownDrift decimal.Decimal `json:"breakdown_drift"`
	// LedgerDrift is ledger sum minus the cached amount paid
	LedgerDrift decimal.Decimal `json:"ledger_drift"`

	Clean bool `json:"clean"`
	// Repaired reports that the cached payment summary was re-derived from
	// the ledger during this check
	Repaired bool `json:"repaired"`
}

// CheckQuote reconciles a single quote
func (s *ReconciliationService) CheckQuote(ctx context.Context, quoteID uuid.UUID) (*DriftReport, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}
	return s.check(ctx, q)
}

// RunResult summarizes one reconciliation pass
type RunResult struct {
	Checked int           `json:"checked"`
	Drifted []DriftReport `json:"drifted"`
}

// Run reconciles quotes in the given statuses, collecting every drifted one
func (s *ReconciliationService) Run(ctx context.Context, statuses ...quote.QuoteStatus) (*RunResult, error) {
	if len(statuses) == 0 {
		statuses = []quote.QuoteStatus{
			quote.QuoteStatusPaymentPending, quote.QuoteStatusPaid,
			quote.QuoteStatusProcessing, quote.QuoteStatusOrdered,
			quote.QuoteStatusShipped, quote.QuoteStatusCompleted,
		}
	}

	result := &RunResult{}
	for _, status := range statuses {
		quotes, err := s.quotes.FindByStatus(ctx, status, s.batchSize, 0)
		if err != nil {
			return nil, err
		}
		for i := range quotes {
			report, err := s.check(ctx, &quotes[i])
			if err != nil {
				s.logger.Error("reconciliation check failed",
					zap.String("quote_id", quotes[i].ID.String()), zap.Error(err))
				continue
			}
			result.Checked++
			if !report.Clean {
				result.Drifted = append(result.Drifted, *report)
			}
		}
	}

	if len(result.Drifted) > 0 {
		s.logger.Warn("reconciliation found drift",
			zap.Int("checked", result.Checked),
			zap.Int("drifted", len(result.Drifted)))
	}

	return result, nil
}

func (s *ReconciliationService) check(ctx context.Context, q *quote.Quote) (*DriftReport, error) {
	report := &DriftReport{
		QuoteID:        q.ID,
		QuoteNumber:    q.QuoteNumber,
		BreakdownDrift: decimal.Zero,
		LedgerDrift:    decimal.Zero,
	}

	if q.Breakdown != nil {
		report.BreakdownDrift = q.Breakdown.ComponentSum().Sub(q.Breakdown.GrandTotal)
	}

	paid, err := s.entries.SumCompleted(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	report.LedgerDrift = paid.Sub(q.AmountPaid)

	report.Clean = report.BreakdownDrift.Abs().LessThanOrEqual(s.tolerance) &&
		report.LedgerDrift.Abs().LessThanOrEqual(s.tolerance)

	if !report.Clean {
		if s.metrics != nil {
			s.metrics.RecordDriftDetected(ctx)
		}
		s.logger.Warn("financial drift detected",
			zap.String("quote_id", q.ID.String()),
			zap.String("quote_number", q.QuoteNumber),
			zap.String("breakdown_drift", report.BreakdownDrift.String()),
			zap.String("ledger_drift", report.LedgerDrift.String()))

		if s.repair && report.LedgerDrift.Abs().GreaterThan(s.tolerance) {
			q.ApplyPaymentSummary(ledger.Summarize(paid, q.Total(), s.tolerance))
			if err := s.quotes.SaveWithLock(ctx, q); err != nil {
				return nil, err
			}
			report.Repaired = true
			s.logger.Info("cached payment summary repaired from ledger",
				zap.String("quote_id", q.ID.String()),
				zap.String("amount_paid", q.AmountPaid.String()))
		}
	}

	return report, nil
}
