package ledger

import (
	"fmt"
	"time"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RefundRequestStatus represents the workflow status of a refund request
type RefundRequestStatus string

const (
	RefundRequestStatusRequested RefundRequestStatus = "REQUESTED"
	RefundRequestStatusApproved  RefundRequestStatus = "APPROVED"
	RefundRequestStatusProcessed RefundRequestStatus = "PROCESSED"
	RefundRequestStatusCompleted RefundRequestStatus = "COMPLETED"
	RefundRequestStatusRejected  RefundRequestStatus = "REJECTED"
)

// IsValid checks if the status is a valid RefundRequestStatus
func (s RefundRequestStatus) IsValid() bool {
	switch s {
	case RefundRequestStatusRequested, RefundRequestStatusApproved,
		RefundRequestStatusProcessed, RefundRequestStatusCompleted, RefundRequestStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of RefundRequestStatus
func (s RefundRequestStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the request is in a terminal state
func (s RefundRequestStatus) IsTerminal() bool {
	return s == RefundRequestStatusCompleted || s == RefundRequestStatusRejected
}

// CanTransitionTo checks if the status can transition to the target status
func (s RefundRequestStatus) CanTransitionTo(target RefundRequestStatus) bool {
	switch s {
	case RefundRequestStatusRequested:
		return target == RefundRequestStatusApproved || target == RefundRequestStatusRejected
	case RefundRequestStatusApproved:
		return target == RefundRequestStatusProcessed || target == RefundRequestStatusRejected
	case RefundRequestStatusProcessed:
		return target == RefundRequestStatusCompleted
	case RefundRequestStatusCompleted, RefundRequestStatusRejected:
		return false
	}
	return false
}

// RefundRequest is the authorization record a refund ledger entry must link
// to. The running sum of refund entries for a request can never exceed the
// approved amount; that ceiling is enforced at write time, before any entry
// is appended.
type RefundRequest struct {
	shared.BaseAggregateRoot

	QuoteID uuid.UUID `json:"quote_id" gorm:"type:uuid;not null;index"`

	RequestedAmount decimal.Decimal      `json:"requested_amount" gorm:"type:numeric(20,6);not null"`
	ApprovedAmount  decimal.Decimal      `json:"approved_amount" gorm:"type:numeric(20,6)"`
	RefundedAmount  decimal.Decimal      `json:"refunded_amount" gorm:"type:numeric(20,6)"`
	Currency        valueobject.Currency `json:"currency" gorm:"not null"`

	Reason string              `json:"reason"`
	Status RefundRequestStatus `json:"status" gorm:"not null;index"`

	RequestedBy  *uuid.UUID `json:"requested_by" gorm:"type:uuid"`
	ApprovedBy   *uuid.UUID `json:"approved_by" gorm:"type:uuid"`
	RejectReason string     `json:"reject_reason"`

	ApprovedAt  *time.Time `json:"approved_at"`
	ProcessedAt *time.Time `json:"processed_at"`
	CompletedAt *time.Time `json:"completed_at"`
	RejectedAt  *time.Time `json:"rejected_at"`
}

// NewRefundRequest creates a refund request in REQUESTED status
func NewRefundRequest(quoteID uuid.UUID, amount valueobject.Money, reason string, requestedBy *uuid.UUID) (*RefundRequest, error) {
	if quoteID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quote ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Requested refund amount must be positive",
			map[string]any{"field": "requested_amount"})
	}
	if reason == "" {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Refund reason cannot be empty",
			map[string]any{"field": "reason"})
	}

	rr := &RefundRequest{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		QuoteID:           quoteID,
		RequestedAmount:   amount.Amount(),
		ApprovedAmount:    decimal.Zero,
		RefundedAmount:    decimal.Zero,
		Currency:          amount.Currency(),
		Reason:            reason,
		Status:            RefundRequestStatusRequested,
		RequestedBy:       requestedBy,
	}

	rr.AddDomainEvent(NewRefundRequestedEvent(rr))

	return rr, nil
}

// Approve approves the request for the given amount, which may be lower than
// the requested amount but never higher
func (r *RefundRequest) Approve(amount valueobject.Money, approvedBy uuid.UUID) error {
	if !r.Status.CanTransitionTo(RefundRequestStatusApproved) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot approve refund request in %s status", r.Status))
	}
	if amount.Currency() != r.Currency {
		return shared.NewDomainError("INVALID_INPUT", "Approved amount currency does not match the request")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Approved amount must be positive")
	}
	if amount.Amount().GreaterThan(r.RequestedAmount) {
		return shared.NewDomainErrorWithDetails("INVALID_INPUT", "Approved amount cannot exceed the requested amount",
			map[string]any{"requested": r.RequestedAmount.String(), "approved": amount.Amount().String()})
	}

	now := time.Now()
	r.Status = RefundRequestStatusApproved
	r.ApprovedAmount = amount.Amount()
	r.ApprovedBy = &approvedBy
	r.ApprovedAt = &now
	r.UpdatedAt = now

	r.AddDomainEvent(NewRefundApprovedEvent(r))

	return nil
}

// Reject rejects the request. Allowed before any refund entry is applied.
func (r *RefundRequest) Reject(reason string) error {
	if !r.Status.CanTransitionTo(RefundRequestStatusRejected) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot reject refund request in %s status", r.Status))
	}
	if r.RefundedAmount.IsPositive() {
		return shared.NewDomainError("INVALID_TRANSITION", "Cannot reject a request with applied refund entries")
	}

	now := time.Now()
	r.Status = RefundRequestStatusRejected
	r.RejectReason = reason
	r.RejectedAt = &now
	r.UpdatedAt = now

	return nil
}

// RemainingApproved returns the approved amount not yet covered by refund
// entries
func (r *RefundRequest) RemainingApproved() decimal.Decimal {
	return r.ApprovedAmount.Sub(r.RefundedAmount)
}

// RegisterRefundEntry records that a refund entry of the given positive
// amount was appended against this request. It is the write-time guard: the
// running refunded sum can never exceed the approved amount.
func (r *RefundRequest) RegisterRefundEntry(amount valueobject.Money) error {
	if r.Status != RefundRequestStatusApproved && r.Status != RefundRequestStatusProcessed {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Refund entries require an approved request, got %s", r.Status))
	}
	if amount.Currency() != r.Currency {
		return shared.NewDomainError("INVALID_INPUT", "Refund entry currency does not match the request")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_INPUT", "Refund entry amount must be positive")
	}

	newTotal := r.RefundedAmount.Add(amount.Amount())
	if newTotal.GreaterThan(r.ApprovedAmount) {
		return shared.NewDomainErrorWithDetails("REFUND_EXCEEDS_APPROVED",
			"Refund entries would exceed the approved amount",
			map[string]any{
				"approved":  r.ApprovedAmount.String(),
				"refunded":  r.RefundedAmount.String(),
				"requested": amount.Amount().String(),
			})
	}

	now := time.Now()
	r.RefundedAmount = newTotal
	if r.Status == RefundRequestStatusApproved {
		r.Status = RefundRequestStatusProcessed
		r.ProcessedAt = &now
	}
	if r.RefundedAmount.Equal(r.ApprovedAmount) {
		r.Status = RefundRequestStatusCompleted
		r.CompletedAt = &now
		r.AddDomainEvent(NewRefundCompletedEvent(r))
	}
	r.UpdatedAt = now

	return nil
}

// IsApproved returns true if refund entries may be recorded against it
func (r *RefundRequest) IsApproved() bool {
	return r.Status == RefundRequestStatusApproved || r.Status == RefundRequestStatusProcessed
}
