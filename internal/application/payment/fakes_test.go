package payment

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
)

// In-memory repositories backing the service tests. Behavior mirrors the
// gorm implementations: nil for not-found, ALREADY_EXISTS on a duplicate
// idempotency key, signed sums over completed entries.

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
	for _, q := range r.quotes {
		if q.QuoteNumber == quoteNumber {
			return q, nil
		}
	}
	return nil, nil
}

func (r *memQuoteRepo) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]quote.Quote, error) {
	var out []quote.Quote
	for _, q := range r.quotes {
		if q.CustomerID == customerID {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *memQuoteRepo) FindByStatus(ctx context.Context, status quote.QuoteStatus, limit, offset int) ([]quote.Quote, error) {
	var out []quote.Quote
	for _, q := range r.quotes {
		if q.Status == status {
			out = append(out, *q)
		}
	}
	return out, nil
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
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memQuoteRepo) ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error) {
	q, ok := r.quotes[quoteID]
	if !ok {
		return false, nil
	}
	if q.Status != quote.QuoteStatusSent || q.ExpiresAt == nil || !now.After(*q.ExpiresAt) {
		return false, nil
	}
	if err := q.Expire(now); err != nil {
		return false, err
	}
	return true, nil
}

type memLedgerRepo struct {
	entries     []*ledger.PaymentEvent
	appendCalls int
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{}
}

func (r *memLedgerRepo) Append(ctx context.Context, event *ledger.PaymentEvent) error {
	r.appendCalls++
	for _, e := range r.entries {
		if e.GatewayCode == event.GatewayCode && e.ExternalReference == event.ExternalReference {
			return shared.NewDomainError("ALREADY_EXISTS", "Duplicate idempotency key")
		}
	}
	r.entries = append(r.entries, event)
	return nil
}

func (r *memLedgerRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentEvent, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) FindByIdempotencyKey(ctx context.Context, gatewayCode, externalReference string) (*ledger.PaymentEvent, error) {
	for _, e := range r.entries {
		if e.GatewayCode == gatewayCode && e.ExternalReference == externalReference {
			return e, nil
		}
	}
	return nil, nil
}

func (r *memLedgerRepo) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.PaymentEvent, error) {
	var out []ledger.PaymentEvent
	for _, e := range r.entries {
		if e.QuoteID == quoteID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memLedgerRepo) FindByRefundRequest(ctx context.Context, refundRequestID uuid.UUID) ([]ledger.PaymentEvent, error) {
	var out []ledger.PaymentEvent
	for _, e := range r.entries {
		if e.RefundRequestID != nil && *e.RefundRequestID == refundRequestID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *memLedgerRepo) SumCompleted(ctx context.Context, quoteID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.entries {
		if e.QuoteID == quoteID && e.IsCompleted() {
			sum = sum.Add(e.Amount)
		}
	}
	return sum, nil
}

func (r *memLedgerRepo) UpdateStatus(ctx context.Context, event *ledger.PaymentEvent) error {
	return nil
}

type memRefundRepo struct {
	requests map[uuid.UUID]*ledger.RefundRequest
}

func newMemRefundRepo() *memRefundRepo {
	return &memRefundRepo{requests: make(map[uuid.UUID]*ledger.RefundRequest)}
}

func (r *memRefundRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.RefundRequest, error) {
	return r.requests[id], nil
}

func (r *memRefundRepo) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.RefundRequest, error) {
	var out []ledger.RefundRequest
	for _, rr := range r.requests {
		if rr.QuoteID == quoteID {
			out = append(out, *rr)
		}
	}
	return out, nil
}

func (r *memRefundRepo) Save(ctx context.Context, request *ledger.RefundRequest) error {
	r.requests[request.ID] = request
	return nil
}

func (r *memRefundRepo) SaveWithLock(ctx context.Context, request *ledger.RefundRequest) error {
	request.Version++
	r.requests[request.ID] = request
	return nil
}

type memIdempotencyStore struct {
	keys  map[string]bool
	reads int
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{keys: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	s.reads++
	return s.keys[key], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

type memTransitionLog struct {
	entries []quote.TransitionLogEntry
}

func (r *memTransitionLog) Append(ctx context.Context, entries ...quote.TransitionLogEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memTransitionLog) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]quote.TransitionLogEntry, error) {
	var out []quote.TransitionLogEntry
	for _, e := range r.entries {
		if e.QuoteID == quoteID {
			out = append(out, e)
		}
	}
	return out, nil
}
