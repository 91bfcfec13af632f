package quoting

import (
	"context"
	"time"

	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ExpirationService sweeps sent quotes past their deadline into EXPIRED.
// Each quote is expired with a conditional update, so a concurrent manual
// expiration or a second sweep instance cannot double-fire; losing the race
// just skips the row.
type ExpirationService struct {
	quotes      quote.QuoteRepository
	transitions quote.TransitionLogRepository
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
	batchSize   int
}

// ExpirationServiceOption is a functional option for ExpirationService
type ExpirationServiceOption func(*ExpirationService)

// WithBatchSize limits how many quotes one sweep processes
func WithBatchSize(n int) ExpirationServiceOption {
	return func(s *ExpirationService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithExpirationMetrics attaches business metrics recording
func WithExpirationMetrics(metrics *telemetry.BusinessMetrics) ExpirationServiceOption {
	return func(s *ExpirationService) {
		s.metrics = metrics
	}
}

// NewExpirationService creates a new ExpirationService
func NewExpirationService(
	quotes quote.QuoteRepository,
	transitions quote.TransitionLogRepository,
	logger *zap.Logger,
	opts ...ExpirationServiceOption,
) *ExpirationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExpirationService{
		quotes:      quotes,
		transitions: transitions,
		logger:      logger,
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SweepExpired expires all sent quotes whose deadline passed before now.
// Returns the number of quotes expired by this sweep.
func (s *ExpirationService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	due, err := s.quotes.FindDueForExpiration(ctx, now, s.batchSize)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		return 0, nil
	}

	expired := 0
	for _, quoteID := range due {
		won, err := s.quotes.ExpireDue(ctx, quoteID, now)
		if err != nil {
			s.logger.Error("failed to expire quote",
				zap.String("quote_id", quoteID.String()), zap.Error(err))
			continue
		}
		if !won {
			continue
		}

		entry := quote.NewTransitionLogEntry(quoteID,
			quote.QuoteStatusSent, quote.QuoteStatusExpired, quote.TriggerAutoExpiration, nil)
		if err := s.transitions.Append(ctx, entry); err != nil {
			s.logger.Error("failed to log expiration transition",
				zap.String("quote_id", quoteID.String()), zap.Error(err))
		}

		expired++
	}

	if expired > 0 {
		if s.metrics != nil {
			s.metrics.RecordQuotesExpired(ctx, int64(expired))
		}
		s.logger.Info("expiration sweep finished",
			zap.Int("due", len(due)), zap.Int("expired", expired))
	}

	return expired, nil
}
