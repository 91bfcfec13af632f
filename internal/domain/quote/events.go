package quote

import (
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type constants for the quote aggregate
const (
	EventTypeQuoteCreated       = "quote.created"
	EventTypeQuoteSent          = "quote.sent"
	EventTypeQuoteApproved      = "quote.approved"
	EventTypeQuoteRejected      = "quote.rejected"
	EventTypeQuotePaid          = "quote.paid"
	EventTypeQuoteExpired       = "quote.expired"
	EventTypeQuoteCancelled     = "quote.cancelled"
	EventTypeQuotePriceAdjusted = "quote.price_adjusted"
	aggregateTypeQuote          = "Quote"
)

// QuoteCreatedEvent is published when a quote is created
type QuoteCreatedEvent struct {
	shared.BaseDomainEvent
	QuoteNumber        string `json:"quote_number"`
	CustomerID         string `json:"customer_id"`
	DestinationCountry string `json:"destination_country"`
}

// NewQuoteCreatedEvent creates a QuoteCreatedEvent
func NewQuoteCreatedEvent(q *Quote) *QuoteCreatedEvent {
	return &QuoteCreatedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeQuoteCreated, aggregateTypeQuote, q.ID),
		QuoteNumber:        q.QuoteNumber,
		CustomerID:         q.CustomerID.String(),
		DestinationCountry: q.DestinationCountry,
	}
}

// QuoteSentEvent is published when a quote is issued to the customer
type QuoteSentEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string          `json:"quote_number"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
	ExpiresAt   string          `json:"expires_at"`
}

// NewQuoteSentEvent creates a QuoteSentEvent
func NewQuoteSentEvent(q *Quote) *QuoteSentEvent {
	e := &QuoteSentEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteSent, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		GrandTotal:      q.Total(),
	}
	if q.ExpiresAt != nil {
		e.ExpiresAt = q.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return e
}

// QuoteApprovedEvent is published when the customer accepts the quote
type QuoteApprovedEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string          `json:"quote_number"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// NewQuoteApprovedEvent creates a QuoteApprovedEvent
func NewQuoteApprovedEvent(q *Quote) *QuoteApprovedEvent {
	return &QuoteApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteApproved, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		GrandTotal:      q.Total(),
	}
}

// QuoteRejectedEvent is published when the customer declines the quote
type QuoteRejectedEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string `json:"quote_number"`
	Reason      string `json:"reason"`
}

// NewQuoteRejectedEvent creates a QuoteRejectedEvent
func NewQuoteRejectedEvent(q *Quote, reason string) *QuoteRejectedEvent {
	return &QuoteRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteRejected, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		Reason:          reason,
	}
}

// QuotePaidEvent is published when the ledger settles and the quote is
// marked paid
type QuotePaidEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string          `json:"quote_number"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
}

// NewQuotePaidEvent creates a QuotePaidEvent
func NewQuotePaidEvent(q *Quote) *QuotePaidEvent {
	return &QuotePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotePaid, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		AmountPaid:      q.AmountPaid,
	}
}

// QuoteExpiredEvent is published when a sent quote passes its deadline
type QuoteExpiredEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string `json:"quote_number"`
}

// NewQuoteExpiredEvent creates a QuoteExpiredEvent
func NewQuoteExpiredEvent(q *Quote) *QuoteExpiredEvent {
	return &QuoteExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteExpired, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
	}
}

// QuoteCancelledEvent is published when a quote is withdrawn
type QuoteCancelledEvent struct {
	shared.BaseDomainEvent
	QuoteNumber string `json:"quote_number"`
	Reason      string `json:"reason"`
}

// NewQuoteCancelledEvent creates a QuoteCancelledEvent
func NewQuoteCancelledEvent(q *Quote, reason string) *QuoteCancelledEvent {
	return &QuoteCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuoteCancelled, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		Reason:          reason,
	}
}

// QuotePriceAdjustedEvent is published when a frozen quote receives a
// corrected breakdown revision
type QuotePriceAdjustedEvent struct {
	shared.BaseDomainEvent
	QuoteNumber  string          `json:"quote_number"`
	FromRevision int             `json:"from_revision"`
	ToRevision   int             `json:"to_revision"`
	Delta        decimal.Decimal `json:"delta"`
	Reason       string          `json:"reason"`
	Actor        *uuid.UUID      `json:"actor,omitempty"`
}

// NewQuotePriceAdjustedEvent creates a QuotePriceAdjustedEvent
func NewQuotePriceAdjustedEvent(q *Quote, fromRevision int, delta decimal.Decimal, reason string, actor *uuid.UUID) *QuotePriceAdjustedEvent {
	return &QuotePriceAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeQuotePriceAdjusted, aggregateTypeQuote, q.ID),
		QuoteNumber:     q.QuoteNumber,
		FromRevision:    fromRevision,
		ToRevision:      q.BreakdownRevision,
		Delta:           delta,
		Reason:          reason,
		Actor:           actor,
	}
}
