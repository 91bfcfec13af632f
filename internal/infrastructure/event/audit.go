package event

import (
	"go.uber.org/zap"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
)

// NewAuditLogHandler returns a handler that writes every financial event to
// the structured log, giving operators a trail alongside the database rows
func NewAuditLogHandler(logger *zap.Logger) Handler {
	return func(e shared.DomainEvent) {
		logger.Info("domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.Time("occurred_at", e.OccurredAt()))
	}
}

// AuditedEventTypes lists the lifecycle and ledger events the audit handler
// subscribes to
func AuditedEventTypes() []string {
	return []string{
		quote.EventTypeQuoteCreated,
		quote.EventTypeQuoteSent,
		quote.EventTypeQuoteApproved,
		quote.EventTypeQuoteRejected,
		quote.EventTypeQuotePaid,
		quote.EventTypeQuoteExpired,
		quote.EventTypeQuoteCancelled,
		quote.EventTypeQuotePriceAdjusted,
		ledger.EventTypePaymentRecorded,
		ledger.EventTypeRefundRequested,
		ledger.EventTypeRefundApproved,
		ledger.EventTypeRefundCompleted,
		ledger.EventTypeDriftDetected,
	}
}
