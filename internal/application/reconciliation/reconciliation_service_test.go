package reconciliation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
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

func (r *stubQuoteRepo) Save(ctx context.Context, q *quote.Quote) error         { return nil }
func (r *stubQuoteRepo) SaveWithLock(ctx context.Context, q *quote.Quote) error { return nil }

func (r *stubQuoteRepo) FindDueForExpiration(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *stubQuoteRepo) ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

type stubLedgerRepo struct {
	sums map[uuid.UUID]decimal.Decimal
}

func (r *stubLedgerRepo) Append(ctx context.Context, event *ledger.PaymentEvent) error { return nil }
func (r *stubLedgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentEvent, error) {
	return nil, nil
}
func (r *stubLedgerRepo) FindByIdempotencyKey(ctx context.Context, gatewayCode, externalReference string) (*ledger.PaymentEvent, error) {
	return nil, nil
}
func (r *stubLedgerRepo) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.PaymentEvent, error) {
	return nil, nil
}
func (r *stubLedgerRepo) FindByRefundRequest(ctx context.Context, refundRequestID uuid.UUID) ([]ledger.PaymentEvent, error) {
	return nil, nil
}
func (r *stubLedgerRepo) SumCompleted(ctx context.Context, quoteID uuid.UUID) (decimal.Decimal, error) {
	return r.sums[quoteID], nil
}
func (r *stubLedgerRepo) UpdateStatus(ctx context.Context, event *ledger.PaymentEvent) error {
	return nil
}

// consistentBreakdown returns a breakdown whose component sum matches its
// grand total: 100 items + 35 shipping + 15 customs = 150
func consistentBreakdown() *pricing.CostBreakdown {
	return &pricing.CostBreakdown{
		ActualItemCost:      decimal.NewFromInt(100),
		Shipping:            decimal.NewFromInt(35),
		CustomsAmount:       decimal.NewFromInt(15),
		GrandTotal:          decimal.NewFromInt(150),
		Currency:            valueobject.USD,
		DestinationCurrency: valueobject.TRY,
		CalculatedAt:        time.Now(),
	}
}

func paidQuote(t *testing.T, number string, breakdown *pricing.CostBreakdown, amountPaid decimal.Decimal) *quote.Quote {
	t.Helper()
	q, err := quote.NewQuote(number, uuid.New(), "US", "TR", valueobject.USD, valueobject.TRY)
	require.NoError(t, err)
	q.Breakdown = breakdown
	q.Status = quote.QuoteStatusPaid
	q.AmountPaid = amountPaid
	q.PaymentStatus = ledger.PaymentStatusPaid
	return q
}

func TestCheckQuote(t *testing.T) {
	t.Run("clean quote", func(t *testing.T) {
		q := paidQuote(t, "Q-10", consistentBreakdown(), decimal.NewFromInt(150))
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(150)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil)

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.True(t, report.Clean)
		assert.True(t, report.BreakdownDrift.IsZero())
		assert.True(t, report.LedgerDrift.IsZero())
	})

	t.Run("breakdown drift detected", func(t *testing.T) {
		b := consistentBreakdown()
		b.GrandTotal = decimal.NewFromInt(155) // components still sum to 150
		q := paidQuote(t, "Q-11", b, decimal.NewFromInt(155))
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(155)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil)

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.False(t, report.Clean)
		assert.True(t, report.BreakdownDrift.Equal(decimal.NewFromInt(-5)), "drift %s", report.BreakdownDrift)
	})

	t.Run("ledger drift against the cached projection", func(t *testing.T) {
		q := paidQuote(t, "Q-12", consistentBreakdown(), decimal.NewFromInt(150))
		// ledger really holds 120: the cached column is stale by 30
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(120)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil)

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.False(t, report.Clean)
		assert.True(t, report.LedgerDrift.Equal(decimal.NewFromInt(-30)))
	})

	t.Run("sub-cent residue is tolerated", func(t *testing.T) {
		q := paidQuote(t, "Q-13", consistentBreakdown(), decimal.NewFromFloat(150.005))
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(150)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil)

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.True(t, report.Clean)
	})

	t.Run("unknown quote", func(t *testing.T) {
		service := NewReconciliationService(newStubQuoteRepo(), &stubLedgerRepo{}, nil)
		_, err := service.CheckQuote(context.Background(), uuid.New())
		assert.True(t, shared.IsCode(err, "NOT_FOUND"))
	})

	t.Run("cache repair re-derives the summary from the ledger", func(t *testing.T) {
		q := paidQuote(t, "Q-14", consistentBreakdown(), decimal.NewFromInt(150))
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(120)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil, WithCacheRepair())

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.False(t, report.Clean)
		assert.True(t, report.Repaired)
		assert.True(t, q.AmountPaid.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, ledger.PaymentStatusPartial, q.PaymentStatus)
	})

	t.Run("repair never touches the breakdown", func(t *testing.T) {
		b := consistentBreakdown()
		b.GrandTotal = decimal.NewFromInt(155)
		q := paidQuote(t, "Q-15", b, decimal.NewFromInt(155))
		entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{q.ID: decimal.NewFromInt(155)}}
		service := NewReconciliationService(newStubQuoteRepo(q), entries, nil, WithCacheRepair())

		report, err := service.CheckQuote(context.Background(), q.ID)
		require.NoError(t, err)
		assert.False(t, report.Clean)
		assert.False(t, report.Repaired)
		assert.True(t, q.Breakdown.GrandTotal.Equal(decimal.NewFromInt(155)))
	})
}

func TestRun(t *testing.T) {
	clean := paidQuote(t, "Q-20", consistentBreakdown(), decimal.NewFromInt(150))
	drifted := paidQuote(t, "Q-21", consistentBreakdown(), decimal.NewFromInt(150))

	entries := &stubLedgerRepo{sums: map[uuid.UUID]decimal.Decimal{
		clean.ID:   decimal.NewFromInt(150),
		drifted.ID: decimal.NewFromInt(90),
	}}
	service := NewReconciliationService(newStubQuoteRepo(clean, drifted), entries, nil)

	result, err := service.Run(context.Background(), quote.QuoteStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Checked)
	require.Len(t, result.Drifted, 1)
	assert.Equal(t, drifted.ID, result.Drifted[0].QuoteID)
	assert.Equal(t, "Q-21", result.Drifted[0].QuoteNumber)
}
