package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventRepository stores the append-only ledger. Entries are never
// updated except for settlement status; corrections are new entries.
type PaymentEventRepository interface {
	// Append inserts a new ledger entry. The backing store carries a unique
	// index on (gateway_code, external_reference) as a second line of
	// defense behind the serialized idempotency check.
	Append(ctx context.Context, event *PaymentEvent) error

	// FindByID returns an entry by id, or nil
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentEvent, error)

	// FindByIdempotencyKey returns the entry for (gateway_code,
	// external_reference), or nil
	FindByIdempotencyKey(ctx context.Context, gatewayCode, externalReference string) (*PaymentEvent, error)

	// FindByQuote returns all entries for a quote, oldest first
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]PaymentEvent, error)

	// FindByRefundRequest returns the refund entries linked to a request
	FindByRefundRequest(ctx context.Context, refundRequestID uuid.UUID) ([]PaymentEvent, error)

	// SumCompleted returns the signed sum of completed entries for a quote.
	// This is the single source of truth for amount paid.
	SumCompleted(ctx context.Context, quoteID uuid.UUID) (decimal.Decimal, error)

	// UpdateStatus persists a settlement status change on an entry
	UpdateStatus(ctx context.Context, event *PaymentEvent) error
}

// RefundRequestRepository stores refund workflow records
type RefundRequestRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RefundRequest, error)
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]RefundRequest, error)
	Save(ctx context.Context, request *RefundRequest) error

	// SaveWithLock saves with an optimistic version check so two concurrent
	// refund applications cannot both pass the approved-amount ceiling
	SaveWithLock(ctx context.Context, request *RefundRequest) error
}
