package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crossbay/backend/internal/application/reconciliation"
	"github.com/crossbay/backend/internal/domain/ledger"
)

type memLedgerRepo struct {
	sums map[uuid.UUID]decimal.Decimal
}

func (r *memLedgerRepo) Append(ctx context.Context, event *ledger.PaymentEvent) error { return nil }

func (r *memLedgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentEvent, error) {
	return nil, nil
}

func (r *memLedgerRepo) FindByIdempotencyKey(ctx context.Context, gatewayCode, externalReference string) (*ledger.PaymentEvent, error) {
	return nil, nil
}

func (r *memLedgerRepo) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.PaymentEvent, error) {
	return nil, nil
}

func (r *memLedgerRepo) FindByRefundRequest(ctx context.Context, refundRequestID uuid.UUID) ([]ledger.PaymentEvent, error) {
	return nil, nil
}

func (r *memLedgerRepo) SumCompleted(ctx context.Context, quoteID uuid.UUID) (decimal.Decimal, error) {
	return r.sums[quoteID], nil
}

func (r *memLedgerRepo) UpdateStatus(ctx context.Context, event *ledger.PaymentEvent) error {
	return nil
}

func reconciliationFixture() *reconciliation.ReconciliationService {
	return reconciliation.NewReconciliationService(
		newMemQuoteRepo(), &memLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{}}, zap.NewNop())
}

func TestReconciliationScheduler_Disabled(t *testing.T) {
	s := NewReconciliationScheduler(reconciliationFixture(), zap.NewNop(), ReconciliationSchedulerConfig{
		Enabled: false,
	})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestReconciliationScheduler_Lifecycle(t *testing.T) {
	s := NewReconciliationScheduler(reconciliationFixture(), zap.NewNop(), ReconciliationSchedulerConfig{
		Enabled:    true,
		Interval:   time.Hour,
		RunTimeout: time.Second,
	})

	t.Run("immediate run rejected while stopped", func(t *testing.T) {
		assert.ErrorIs(t, s.TriggerImmediateRun(context.Background()), ErrSchedulerNotRunning)
	})

	t.Run("start, run, stop", func(t *testing.T) {
		require.NoError(t, s.Start(context.Background()))
		assert.True(t, s.IsRunning())
		assert.NoError(t, s.TriggerImmediateRun(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(stopCtx))
		assert.False(t, s.IsRunning())
	})
}

func TestReconciliationScheduler_InvalidInterval(t *testing.T) {
	s := NewReconciliationScheduler(reconciliationFixture(), zap.NewNop(), ReconciliationSchedulerConfig{
		Enabled:  true,
		Interval: -time.Second,
	})

	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
}
