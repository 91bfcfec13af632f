package ledger

import (
	"fmt"
	"time"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEventType classifies a ledger entry
type PaymentEventType string

const (
	// PaymentEventTypeCustomerPayment is money received from the customer
	PaymentEventTypeCustomerPayment PaymentEventType = "CUSTOMER_PAYMENT"
	// PaymentEventTypeRefund is money returned to the customer; always negative
	PaymentEventTypeRefund PaymentEventType = "REFUND"
	// PaymentEventTypeAdjustment is a signed manual correction
	PaymentEventTypeAdjustment PaymentEventType = "ADJUSTMENT"
)

// IsValid checks if the type is a valid PaymentEventType
func (t PaymentEventType) IsValid() bool {
	switch t {
	case PaymentEventTypeCustomerPayment, PaymentEventTypeRefund, PaymentEventTypeAdjustment:
		return true
	}
	return false
}

// String returns the string representation of PaymentEventType
func (t PaymentEventType) String() string {
	return string(t)
}

// PaymentEventStatus tracks gateway settlement of an entry. Only COMPLETED
// entries count toward the derived amount paid.
type PaymentEventStatus string

const (
	PaymentEventStatusPending   PaymentEventStatus = "PENDING"
	PaymentEventStatusCompleted PaymentEventStatus = "COMPLETED"
	PaymentEventStatusFailed    PaymentEventStatus = "FAILED"
)

// IsValid checks if the status is a valid PaymentEventStatus
func (s PaymentEventStatus) IsValid() bool {
	switch s {
	case PaymentEventStatusPending, PaymentEventStatusCompleted, PaymentEventStatusFailed:
		return true
	}
	return false
}

// PaymentEvent is one append-only ledger entry for a quote. Entries are never
// edited or deleted; corrections are new offsetting entries. The pair
// (gateway_code, external_reference) is the idempotency key: a retried
// delivery of the same gateway event must not double-count.
type PaymentEvent struct {
	shared.BaseEntity

	QuoteID uuid.UUID        `json:"quote_id" gorm:"type:uuid;not null;index"`
	Type    PaymentEventType `json:"type" gorm:"not null"`

	// Amount is signed: positive for payments, negative for refunds,
	// either for adjustments
	Amount   decimal.Decimal      `json:"amount" gorm:"type:numeric(20,6);not null"`
	Currency valueobject.Currency `json:"currency" gorm:"not null"`

	GatewayCode       string `json:"gateway_code" gorm:"uniqueIndex:idx_ledger_idempotency"`
	ExternalReference string `json:"external_reference" gorm:"uniqueIndex:idx_ledger_idempotency"`

	Status PaymentEventStatus `json:"status" gorm:"not null"`

	// RefundRequestID links refund entries to the request that authorized them
	RefundRequestID *uuid.UUID `json:"refund_request_id" gorm:"type:uuid;index"`

	Notes       string     `json:"notes"`
	CompletedAt *time.Time `json:"completed_at"`
	FailedAt    *time.Time `json:"failed_at"`
}

// NewCustomerPayment creates a completed customer-payment entry
func NewCustomerPayment(quoteID uuid.UUID, amount valueobject.Money, gatewayCode, externalReference string) (*PaymentEvent, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Customer payment amount must be positive",
			map[string]any{"field": "amount"})
	}
	return newPaymentEvent(quoteID, PaymentEventTypeCustomerPayment, amount, gatewayCode, externalReference, nil)
}

// NewRefundEntry creates a completed refund entry authorized by a refund
// request. The stored amount is negative.
func NewRefundEntry(quoteID uuid.UUID, amount valueobject.Money, gatewayCode, externalReference string, refundRequestID uuid.UUID) (*PaymentEvent, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Refund amount must be positive",
			map[string]any{"field": "amount"})
	}
	if refundRequestID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Refund entries require an authorizing refund request")
	}
	event, err := newPaymentEvent(quoteID, PaymentEventTypeRefund, amount.Negate(), gatewayCode, externalReference, &refundRequestID)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// NewAdjustment creates a completed signed manual adjustment entry
func NewAdjustment(quoteID uuid.UUID, amount valueobject.Money, externalReference, notes string) (*PaymentEvent, error) {
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Adjustment amount cannot be zero")
	}
	event, err := newPaymentEvent(quoteID, PaymentEventTypeAdjustment, amount, "manual", externalReference, nil)
	if err != nil {
		return nil, err
	}
	event.Notes = notes
	return event, nil
}

func newPaymentEvent(quoteID uuid.UUID, eventType PaymentEventType, amount valueobject.Money, gatewayCode, externalReference string, refundRequestID *uuid.UUID) (*PaymentEvent, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quote ID cannot be empty")
	}
	if gatewayCode == "" {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Gateway code cannot be empty",
			map[string]any{"field": "gateway_code"})
	}
	if externalReference == "" {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "External reference cannot be empty",
			map[string]any{"field": "external_reference"})
	}
	if amount.Currency() == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Payment event currency cannot be empty")
	}

	now := time.Now()
	return &PaymentEvent{
		BaseEntity:        shared.NewBaseEntity(),
		QuoteID:           quoteID,
		Type:              eventType,
		Amount:            amount.Amount(),
		Currency:          amount.Currency(),
		GatewayCode:       gatewayCode,
		ExternalReference: externalReference,
		Status:            PaymentEventStatusCompleted,
		RefundRequestID:   refundRequestID,
		CompletedAt:       &now,
	}, nil
}

// IdempotencyKey returns the deduplication key for this entry
func (e *PaymentEvent) IdempotencyKey() string {
	return fmt.Sprintf("%s:%s", e.GatewayCode, e.ExternalReference)
}

// SignedAmount returns the signed amount as Money
func (e *PaymentEvent) SignedAmount() valueobject.Money {
	return valueobject.MustMoney(e.Amount, e.Currency)
}

// MarkPending downgrades a fresh entry to pending settlement
func (e *PaymentEvent) MarkPending() {
	e.Status = PaymentEventStatusPending
	e.CompletedAt = nil
	e.UpdatedAt = time.Now()
}

// MarkCompleted marks a pending entry as settled. Idempotent.
func (e *PaymentEvent) MarkCompleted() error {
	if e.Status == PaymentEventStatusCompleted {
		return nil
	}
	if e.Status == PaymentEventStatusFailed {
		return shared.NewDomainError("INVALID_TRANSITION", "Cannot complete a failed payment event")
	}
	now := time.Now()
	e.Status = PaymentEventStatusCompleted
	e.CompletedAt = &now
	e.UpdatedAt = now
	return nil
}

// MarkFailed marks a pending entry as failed at the gateway. Idempotent.
func (e *PaymentEvent) MarkFailed() error {
	if e.Status == PaymentEventStatusFailed {
		return nil
	}
	if e.Status == PaymentEventStatusCompleted {
		return shared.NewDomainError("INVALID_TRANSITION", "Cannot fail a completed payment event")
	}
	now := time.Now()
	e.Status = PaymentEventStatusFailed
	e.FailedAt = &now
	e.UpdatedAt = now
	return nil
}

// IsCompleted returns true if the entry counts toward amount paid
func (e *PaymentEvent) IsCompleted() bool {
	return e.Status == PaymentEventStatusCompleted
}

// IsRefund returns true for refund entries
func (e *PaymentEvent) IsRefund() bool {
	return e.Type == PaymentEventTypeRefund
}
