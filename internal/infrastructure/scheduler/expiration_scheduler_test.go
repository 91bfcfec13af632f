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

	"github.com/crossbay/backend/internal/application/quoting"
	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
)

type memQuoteRepo struct {
	quotes map[uuid.UUID]*quote.Quote
}

func newMemQuoteRepo(quotes ...*quote.Quote) *memQuoteRepo {
	r := &memQuoteRepo{quotes: make(map[uuid.UUID]*quote.Quote)}
	for _, q := range quotes {
		r.quotes[q.ID] = q
	}
	return r
}

func (r *memQuoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return r.quotes[id], nil
}

func (r *memQuoteRepo) FindByNumber(ctx context.Context, quoteNumber string) (*quote.Quote, error) {
	return nil, nil
}

func (r *memQuoteRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]quote.Quote, error) {
	return nil, nil
}

func (r *memQuoteRepo) FindByStatus(ctx context.Context, status quote.QuoteStatus, limit, offset int) ([]quote.Quote, error) {
	return nil, nil
}

func (r *memQuoteRepo) Save(ctx context.Context, q *quote.Quote) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *memQuoteRepo) SaveWithLock(ctx context.Context, q *quote.Quote) error {
	q.Version++
	r.quotes[q.ID] = q
	return nil
}

func (r *memQuoteRepo) FindDueForExpiration(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var due []uuid.UUID
	for _, q := range r.quotes {
		if q.Status == quote.QuoteStatusSent && q.ExpiresAt != nil && now.After(*q.ExpiresAt) {
			due = append(due, q.ID)
		}
	}
	return due, nil
}

func (r *memQuoteRepo) ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error) {
	q, ok := r.quotes[quoteID]
	if !ok || q.Status != quote.QuoteStatusSent || q.ExpiresAt == nil || !now.After(*q.ExpiresAt) {
		return false, nil
	}
	return true, q.Expire(now)
}

type memTransitionLog struct{}

func (r *memTransitionLog) Append(ctx context.Context, entries ...quote.TransitionLogEntry) error {
	return nil
}

func (r *memTransitionLog) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]quote.TransitionLogEntry, error) {
	return nil, nil
}

func overdueQuote(t *testing.T) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote("Q-2026-5000", uuid.New(), "US", "TR", valueobject.USD, valueobject.TRY)
	require.NoError(t, err)

	w, err := valueobject.NewWeightFromFloat(1)
	require.NoError(t, err)
	item, err := quote.NewLineItem("headphones", "", 1, decimal.NewFromInt(30), w, "")
	require.NoError(t, err)
	require.NoError(t, q.AddItem(item))
	require.NoError(t, q.AttachCalculation(&pricing.CostBreakdown{
		GrandTotal:          decimal.NewFromInt(45),
		Currency:            valueobject.USD,
		DestinationCurrency: valueobject.TRY,
		CalculatedAt:        time.Now(),
	}, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, decimal.Zero))
	require.NoError(t, q.Send(time.Now().Add(time.Hour), nil))

	past := time.Now().Add(-time.Hour)
	q.ExpiresAt = &past
	q.ClearPendingTransitions()
	return q
}

func expirationFixture(quotes ...*quote.Quote) (*quoting.ExpirationService, *memQuoteRepo) {
	repo := newMemQuoteRepo(quotes...)
	service := quoting.NewExpirationService(repo, &memTransitionLog{}, zap.NewNop())
	return service, repo
}

func TestExpirationScheduler_Disabled(t *testing.T) {
	service, _ := expirationFixture()
	s := NewExpirationScheduler(service, zap.NewNop(), ExpirationSchedulerConfig{
		Enabled: false,
	})

	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
}

func TestExpirationScheduler_InvalidInterval(t *testing.T) {
	service, _ := expirationFixture()
	s := NewExpirationScheduler(service, zap.NewNop(), ExpirationSchedulerConfig{
		Enabled:  true,
		Interval: 0,
	})

	assert.ErrorIs(t, s.Start(context.Background()), ErrInvalidConfig)
}

func TestExpirationScheduler_SweepsOnTick(t *testing.T) {
	overdue := overdueQuote(t)
	service, repo := expirationFixture(overdue)
	s := NewExpirationScheduler(service, zap.NewNop(), ExpirationSchedulerConfig{
		Enabled:      true,
		Interval:     10 * time.Millisecond,
		SweepTimeout: time.Second,
	})

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.IsRunning())

	deadline := time.After(2 * time.Second)
	for {
		q, err := repo.FindByID(context.Background(), overdue.ID)
		require.NoError(t, err)
		if q.Status == quote.QuoteStatusExpired {
			break
		}
		select {
		case <-deadline:
			t.Fatal("quote was not expired by the sweep loop")
		case <-time.After(10 * time.Millisecond):
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.False(t, s.IsRunning())
}

func TestExpirationScheduler_TriggerImmediateSweep(t *testing.T) {
	service, _ := expirationFixture()
	s := NewExpirationScheduler(service, zap.NewNop(), ExpirationSchedulerConfig{
		Enabled:      true,
		Interval:     time.Hour,
		SweepTimeout: time.Second,
	})

	t.Run("rejected while stopped", func(t *testing.T) {
		assert.ErrorIs(t, s.TriggerImmediateSweep(context.Background()), ErrSchedulerNotRunning)
	})

	t.Run("runs while started", func(t *testing.T) {
		require.NoError(t, s.Start(context.Background()))
		assert.NoError(t, s.TriggerImmediateSweep(context.Background()))

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, s.Stop(stopCtx))
	})
}

func TestExpirationScheduler_StartIsIdempotent(t *testing.T) {
	service, _ := expirationFixture()
	s := NewExpirationScheduler(service, zap.NewNop(), ExpirationSchedulerConfig{
		Enabled:      true,
		Interval:     time.Hour,
		SweepTimeout: time.Second,
	})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	assert.NoError(t, s.Stop(stopCtx))
}