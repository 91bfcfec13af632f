package ledger

import (
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants for the ledger aggregates
const (
	EventTypePaymentRecorded  = "ledger.payment_recorded"
	EventTypeRefundRequested  = "ledger.refund_requested"
	EventTypeRefundApproved   = "ledger.refund_approved"
	EventTypeRefundCompleted  = "ledger.refund_completed"
	EventTypeDriftDetected    = "ledger.drift_detected"
	aggregateTypePaymentEvent = "PaymentEvent"
	aggregateTypeRefund       = "RefundRequest"
)

// PaymentRecordedEvent is published when a ledger entry is appended
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	QuoteID           string          `json:"quote_id"`
	Amount            decimal.Decimal `json:"amount"`
	GatewayCode       string          `json:"gateway_code"`
	ExternalReference string          `json:"external_reference"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(entry *PaymentEvent, status PaymentStatus) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePaymentRecorded, aggregateTypePaymentEvent, entry.ID),
		QuoteID:           entry.QuoteID.String(),
		Amount:            entry.Amount,
		GatewayCode:       entry.GatewayCode,
		ExternalReference: entry.ExternalReference,
		PaymentStatus:     status,
	}
}

// RefundRequestedEvent is published when a refund request is created
type RefundRequestedEvent struct {
	shared.BaseDomainEvent
	QuoteID         string          `json:"quote_id"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Reason          string          `json:"reason"`
}

// NewRefundRequestedEvent creates a RefundRequestedEvent
func NewRefundRequestedEvent(r *RefundRequest) *RefundRequestedEvent {
	return &RefundRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundRequested, aggregateTypeRefund, r.ID),
		QuoteID:         r.QuoteID.String(),
		RequestedAmount: r.RequestedAmount,
		Reason:          r.Reason,
	}
}

// RefundApprovedEvent is published when a refund request is approved
type RefundApprovedEvent struct {
	shared.BaseDomainEvent
	QuoteID        string          `json:"quote_id"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
}

// NewRefundApprovedEvent creates a RefundApprovedEvent
func NewRefundApprovedEvent(r *RefundRequest) *RefundApprovedEvent {
	return &RefundApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundApproved, aggregateTypeRefund, r.ID),
		QuoteID:         r.QuoteID.String(),
		ApprovedAmount:  r.ApprovedAmount,
	}
}

// RefundCompletedEvent is published when the approved amount is fully refunded
type RefundCompletedEvent struct {
	shared.BaseDomainEvent
	QuoteID        string          `json:"quote_id"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
}

// NewRefundCompletedEvent creates a RefundCompletedEvent
func NewRefundCompletedEvent(r *RefundRequest) *RefundCompletedEvent {
	return &RefundCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundCompleted, aggregateTypeRefund, r.ID),
		QuoteID:         r.QuoteID.String(),
		RefundedAmount:  r.RefundedAmount,
	}
}
