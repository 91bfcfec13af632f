package quoting

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
)

type stubQuoteRepo struct {
	quotes map[uuid.UUID]*quote.Quote
}

func newStubQuoteRepo(quotes ...*quote.Quote) *stubQuoteRepo {
	r := &stubQuoteRepo{quotes: make(map[uuid.UUID]*quote.Quote)}
	for _, q := range quotes {
		r.quotes[q.ID] = q
	}
	return r
}

func (r *stubQuoteRepo) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	return r.quotes[id], nil
}

func (r *stubQuoteRepo) FindByNumber(ctx context.Context, quoteNumber string) (*quote.Quote, error) {
	for _, q := range r.quotes {
		if q.QuoteNumber == quoteNumber {
			return q, nil
		}
	}
	return nil, nil
}

func (r *stubQuoteRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]quote.Quote, error) {
	return nil, nil
}

func (r *stubQuoteRepo) FindByStatus(ctx context.Context, status quote.QuoteStatus, limit, offset int) ([]quote.Quote, error) {
	var out []quote.Quote
	for _, q := range r.quotes {
		if q.Status == status {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *stubQuoteRepo) Save(ctx context.Context, q *quote.Quote) error {
	r.quotes[q.ID] = q
	return nil
}

func (r *stubQuoteRepo) SaveWithLock(ctx context.Context, q *quote.Quote) error {
	q.Version++
	r.quotes[q.ID] = q
	return nil
}

func (r *stubQuoteRepo) FindDueForExpiration(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var due []uuid.UUID
	for _, q := range r.quotes {
		if q.Status == quote.QuoteStatusSent && q.ExpiresAt != nil && now.After(*q.ExpiresAt) {
			due = append(due, q.ID)
		}
	}
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *stubQuoteRepo) ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error) {
	q, ok := r.quotes[quoteID]
	if !ok || q.Status != quote.QuoteStatusSent || q.ExpiresAt == nil || !now.After(*q.ExpiresAt) {
		return false, nil
	}
	return true, q.Expire(now)
}

type stubTransitionLog struct {
	entries []quote.TransitionLogEntry
}

func (r *stubTransitionLog) Append(ctx context.Context, entries ...quote.TransitionLogEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *stubTransitionLog) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]quote.TransitionLogEntry, error) {
	var out []quote.TransitionLogEntry
	for _, e := range r.entries {
		if e.QuoteID == quoteID {
			out = append(out, e)
		}
	}
	return out, nil
}

// sentQuote builds a SENT quote whose deadline is shifted by the offset
func sentQuote(t *testing.T, number string, deadlineOffset time.Duration) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(number, uuid.New(), "US", "TR", valueobject.USD, valueobject.TRY)
	require.NoError(t, err)

	w, err := valueobject.NewWeightFromFloat(1)
	require.NoError(t, err)
	item, err := quote.NewLineItem("usb hub", "", 1, decimal.NewFromInt(25), w, "")
	require.NoError(t, err)
	require.NoError(t, q.AddItem(item))
	require.NoError(t, q.AttachCalculation(&pricing.CostBreakdown{
		GrandTotal:          decimal.NewFromInt(40),
		Currency:            valueobject.USD,
		DestinationCurrency: valueobject.TRY,
		CalculatedAt:        time.Now(),
	}, pricing.ProfileSnapshot{}, pricing.ExchangeRate{}, decimal.Zero))
	require.NoError(t, q.Send(time.Now().Add(time.Hour), nil))

	deadline := time.Now().Add(deadlineOffset)
	q.ExpiresAt = &deadline
	q.ClearPendingTransitions()
	return q
}

func TestSweepExpired(t *testing.T) {
	t.Run("expires only quotes past their deadline", func(t *testing.T) {
		overdue := sentQuote(t, "Q-1", -time.Hour)
		fresh := sentQuote(t, "Q-2", time.Hour)
		repo := newStubQuoteRepo(overdue, fresh)
		log := &stubTransitionLog{}
		service := NewExpirationService(repo, log, nil)

		expired, err := service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
		assert.Equal(t, quote.QuoteStatusExpired, overdue.Status)
		assert.Equal(t, quote.QuoteStatusSent, fresh.Status)

		entries, err := log.FindByQuote(context.Background(), overdue.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, quote.TriggerAutoExpiration, entries[0].Trigger)
		assert.Nil(t, entries[0].Actor)
	})

	t.Run("running the sweep twice expires exactly once", func(t *testing.T) {
		overdue := sentQuote(t, "Q-3", -time.Hour)
		repo := newStubQuoteRepo(overdue)
		log := &stubTransitionLog{}
		service := NewExpirationService(repo, log, nil)

		first, err := service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, first)

		second, err := service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 0, second)

		entries, err := log.FindByQuote(context.Background(), overdue.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("empty sweep is a no-op", func(t *testing.T) {
		service := NewExpirationService(newStubQuoteRepo(), &stubTransitionLog{}, nil)
		expired, err := service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Zero(t, expired)
	})

	t.Run("batch size caps one sweep", func(t *testing.T) {
		repo := newStubQuoteRepo(
			sentQuote(t, "Q-4", -time.Hour),
			sentQuote(t, "Q-5", -time.Hour),
			sentQuote(t, "Q-6", -time.Hour),
		)
		service := NewExpirationService(repo, &stubTransitionLog{}, nil, WithBatchSize(2))

		expired, err := service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 2, expired)

		expired, err = service.SweepExpired(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 1, expired)
	})
}
