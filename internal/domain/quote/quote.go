package quote

import (
	"fmt"
	"time"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingAddress is where the forwarded parcel is delivered. Stored as a
// JSON document on the quote and frozen once payment collection starts.
type ShippingAddress struct {
	Recipient  string `json:"recipient"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
}

// Quote is the central aggregate of the import workflow: a customer's
// request to purchase items abroad and have them forwarded, carrying the
// priced cost breakdown, the lifecycle status, and the payment summary
// derived from the ledger.
//
// Everything needed to reproduce a historical price is snapshotted onto the
// quote at calculation time (fee profile, exchange rate, breakdown), so
// later edits to profiles or rates never retroactively change what the
// customer was quoted.
type Quote struct {
	shared.BaseAggregateRoot

	QuoteNumber string    `json:"quote_number" gorm:"uniqueIndex;not null"`
	CustomerID  uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`

	OriginCountry      string `json:"origin_country" gorm:"not null"`
	DestinationCountry string `json:"destination_country" gorm:"not null"`

	Currency            valueobject.Currency `json:"currency" gorm:"not null"`
	DestinationCurrency valueobject.Currency `json:"destination_currency" gorm:"not null"`

	Status QuoteStatus `json:"status" gorm:"not null;index"`

	Items []LineItem `json:"items" gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE"`

	ShippingAddress *ShippingAddress `json:"shipping_address" gorm:"serializer:json"`

	// Calculation snapshots. Nil until the first calculation is attached.
	Breakdown         *pricing.CostBreakdown   `json:"breakdown" gorm:"serializer:json"`
	ProfileSnapshot   *pricing.ProfileSnapshot `json:"profile_snapshot" gorm:"serializer:json"`
	RateSnapshot      *pricing.ExchangeRate    `json:"rate_snapshot" gorm:"serializer:json"`
	Discount          decimal.Decimal          `json:"discount" gorm:"type:numeric(20,6)"`
	BreakdownRevision int                      `json:"breakdown_revision" gorm:"not null;default:0"`

	// Payment summary derived from the ledger. The ledger is the source of
	// truth; these columns are a cached projection.
	AmountPaid        decimal.Decimal      `json:"amount_paid" gorm:"type:numeric(20,6)"`
	PaymentStatus     ledger.PaymentStatus `json:"payment_status" gorm:"not null;default:UNPAID"`
	OverpaymentAmount decimal.Decimal      `json:"overpayment_amount" gorm:"type:numeric(20,6)"`

	SentAt      *time.Time `json:"sent_at"`
	ExpiresAt   *time.Time `json:"expires_at" gorm:"index"`
	ApprovedAt  *time.Time `json:"approved_at"`
	PaidAt      *time.Time `json:"paid_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	RejectReason string `json:"reject_reason"`
	CancelReason string `json:"cancel_reason"`

	pendingTransitions []TransitionLogEntry `gorm:"-"`
}

// NewQuote creates a quote in PENDING status
func NewQuote(quoteNumber string, customerID uuid.UUID, originCountry, destinationCountry string, currency, destinationCurrency valueobject.Currency) (*Quote, error) {
	if quoteNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Quote number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer ID cannot be empty")
	}
	if originCountry == "" || destinationCountry == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Origin and destination countries are required")
	}
	if !currency.IsValid() || !destinationCurrency.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid currency")
	}

	q := &Quote{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		QuoteNumber:         quoteNumber,
		CustomerID:          customerID,
		OriginCountry:       originCountry,
		DestinationCountry:  destinationCountry,
		Currency:            currency,
		DestinationCurrency: destinationCurrency,
		Status:              QuoteStatusPending,
		Discount:            decimal.Zero,
		AmountPaid:          decimal.Zero,
		PaymentStatus:       ledger.PaymentStatusUnpaid,
		OverpaymentAmount:   decimal.Zero,
	}

	q.AddDomainEvent(NewQuoteCreatedEvent(q))

	return q, nil
}

// transition moves the quote to the target status, recording a transition
// log entry. All status changes funnel through here.
func (q *Quote) transition(target QuoteStatus, trigger string, actor *uuid.UUID) error {
	if !q.Status.CanTransitionTo(target) {
		return shared.NewDomainErrorWithDetails("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition quote from %s to %s", q.Status, target),
			map[string]any{"from": q.Status.String(), "to": target.String()})
	}
	q.pendingTransitions = append(q.pendingTransitions, NewTransitionLogEntry(q.ID, q.Status, target, trigger, actor))
	q.Status = target
	q.UpdatedAt = time.Now()
	return nil
}

// PendingTransitions returns the transition log entries produced since the
// quote was loaded. The repository persists and clears them on save.
func (q *Quote) PendingTransitions() []TransitionLogEntry {
	return q.pendingTransitions
}

// ClearPendingTransitions clears the pending transition log entries
func (q *Quote) ClearPendingTransitions() {
	q.pendingTransitions = nil
}

// AddItem adds a line item. Items are editable only while the quote is
// PENDING; a sent quote is repriced by cancelling and re-issuing.
func (q *Quote) AddItem(item *LineItem) error {
	if q.Status != QuoteStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot add items to a quote in %s status", q.Status))
	}
	item.QuoteID = q.ID
	q.Items = append(q.Items, *item)
	q.invalidateCalculation()
	return nil
}

// RemoveItem removes a line item by id
func (q *Quote) RemoveItem(itemID uuid.UUID) error {
	if q.Status != QuoteStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot remove items from a quote in %s status", q.Status))
	}
	for i, item := range q.Items {
		if item.ID == itemID {
			q.Items = append(q.Items[:i], q.Items[i+1:]...)
			q.invalidateCalculation()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Line item not found on quote")
}

// UpdateItemQuantity changes the quantity on a line item
func (q *Quote) UpdateItemQuantity(itemID uuid.UUID, quantity int64) error {
	if q.Status != QuoteStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot edit items on a quote in %s status", q.Status))
	}
	if quantity <= 0 {
		return shared.NewDomainErrorWithDetails("INVALID_INPUT", "Item quantity must be positive",
			map[string]any{"field": "quantity"})
	}
	for i := range q.Items {
		if q.Items[i].ID == itemID {
			q.Items[i].Quantity = quantity
			q.invalidateCalculation()
			return nil
		}
	}
	return shared.NewDomainError("NOT_FOUND", "Line item not found on quote")
}

// invalidateCalculation drops a stale breakdown after item edits
func (q *Quote) invalidateCalculation() {
	q.Breakdown = nil
	q.ProfileSnapshot = nil
	q.RateSnapshot = nil
	q.UpdatedAt = time.Now()
}

// SetShippingAddress sets or replaces the delivery address. Rejected once
// the quote is frozen.
func (q *Quote) SetShippingAddress(addr ShippingAddress) error {
	if q.Status.FreezesQuote() {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Shipping address is frozen in %s status", q.Status))
	}
	if addr.Recipient == "" || addr.Line1 == "" || addr.City == "" || addr.Country == "" {
		return shared.NewDomainError("INVALID_INPUT", "Shipping address is incomplete")
	}
	q.ShippingAddress = &addr
	q.UpdatedAt = time.Now()
	return nil
}

// AttachCalculation snapshots a fresh landed-cost calculation onto the
// quote. Only allowed before the quote is sent; the attached breakdown is
// what the customer will see and approve.
func (q *Quote) AttachCalculation(breakdown *pricing.CostBreakdown, profile pricing.ProfileSnapshot, rate pricing.ExchangeRate, discount decimal.Decimal) error {
	if q.Status != QuoteStatusPending {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot attach a calculation to a quote in %s status", q.Status))
	}
	if breakdown == nil {
		return shared.NewDomainError("INVALID_INPUT", "Breakdown cannot be nil")
	}
	if breakdown.Currency != q.Currency || breakdown.DestinationCurrency != q.DestinationCurrency {
		return shared.NewDomainError("INVALID_INPUT", "Breakdown currencies do not match the quote")
	}

	q.Breakdown = breakdown
	q.ProfileSnapshot = &profile
	q.RateSnapshot = &rate
	q.Discount = discount
	q.BreakdownRevision = 1
	q.UpdatedAt = time.Now()
	return nil
}

// Send issues the quote to the customer with an expiration deadline
func (q *Quote) Send(expiresAt time.Time, actor *uuid.UUID) error {
	if len(q.Items) == 0 {
		return shared.NewDomainError("INVALID_INPUT", "Cannot send a quote with no items")
	}
	if q.Breakdown == nil {
		return shared.NewDomainError("INVALID_INPUT", "Cannot send a quote without a calculated breakdown")
	}
	if !expiresAt.After(time.Now()) {
		return shared.NewDomainError("INVALID_INPUT", "Expiration must be in the future")
	}
	if err := q.transition(QuoteStatusSent, TriggerUser, actor); err != nil {
		return err
	}

	now := time.Now()
	q.SentAt = &now
	q.ExpiresAt = &expiresAt

	q.AddDomainEvent(NewQuoteSentEvent(q))

	return nil
}

// Approve records the customer's acceptance of the quoted price
func (q *Quote) Approve(actor *uuid.UUID) error {
	if err := q.transition(QuoteStatusApproved, TriggerUser, actor); err != nil {
		return err
	}
	now := time.Now()
	q.ApprovedAt = &now

	q.AddDomainEvent(NewQuoteApprovedEvent(q))

	return nil
}

// Reject records the customer declining the quote
func (q *Quote) Reject(reason string, actor *uuid.UUID) error {
	if err := q.transition(QuoteStatusRejected, TriggerUser, actor); err != nil {
		return err
	}
	q.RejectReason = reason

	q.AddDomainEvent(NewQuoteRejectedEvent(q, reason))

	return nil
}

// Cancel withdraws the quote. Allowed from any state before money settles.
func (q *Quote) Cancel(reason string, actor *uuid.UUID) error {
	if err := q.transition(QuoteStatusCancelled, TriggerUser, actor); err != nil {
		return err
	}
	now := time.Now()
	q.CancelReason = reason
	q.CancelledAt = &now

	q.AddDomainEvent(NewQuoteCancelledEvent(q, reason))

	return nil
}

// StartPaymentCollection moves the quote into PAYMENT_PENDING, freezing the
// address and breakdown
func (q *Quote) StartPaymentCollection(actor *uuid.UUID) error {
	if q.ShippingAddress == nil {
		return shared.NewDomainError("INVALID_INPUT", "Cannot collect payment without a shipping address")
	}
	return q.transition(QuoteStatusPaymentPending, TriggerUser, actor)
}

// ApplyPaymentSummary updates the cached payment projection from a ledger
// summary. It does not change the lifecycle status; MarkPaid does that once
// the summary is settled.
func (q *Quote) ApplyPaymentSummary(summary ledger.PaymentSummary) {
	q.AmountPaid = summary.AmountPaid
	q.PaymentStatus = summary.Status
	q.OverpaymentAmount = summary.OverpaymentAmount
	q.UpdatedAt = time.Now()
}

// MarkPaid transitions the quote to PAID. The ledger-derived payment status
// must be settled first; the lifecycle never outruns the money.
func (q *Quote) MarkPaid() error {
	if !q.PaymentStatus.IsSettled() {
		return shared.NewDomainErrorWithDetails("INVALID_TRANSITION",
			"Cannot mark quote paid before the ledger settles",
			map[string]any{"payment_status": q.PaymentStatus.String()})
	}
	if err := q.transition(QuoteStatusPaid, TriggerPayment, nil); err != nil {
		return err
	}
	now := time.Now()
	q.PaidAt = &now

	q.AddDomainEvent(NewQuotePaidEvent(q))

	return nil
}

// StartProcessing begins purchasing the items from the origin merchants
func (q *Quote) StartProcessing(actor *uuid.UUID) error {
	return q.transition(QuoteStatusProcessing, TriggerUser, actor)
}

// MarkOrdered records that all origin-side orders have been placed
func (q *Quote) MarkOrdered(actor *uuid.UUID) error {
	return q.transition(QuoteStatusOrdered, TriggerUser, actor)
}

// MarkShipped records the international shipment leaving the warehouse
func (q *Quote) MarkShipped(actor *uuid.UUID) error {
	return q.transition(QuoteStatusShipped, TriggerUser, actor)
}

// Complete closes the quote after delivery
func (q *Quote) Complete(actor *uuid.UUID) error {
	if err := q.transition(QuoteStatusCompleted, TriggerUser, actor); err != nil {
		return err
	}
	now := time.Now()
	q.CompletedAt = &now
	return nil
}

// Expire moves a sent quote past its deadline into EXPIRED. Idempotent: an
// already-expired quote is a no-op, so the sweep and a concurrent manual
// expiration cannot double-fire.
func (q *Quote) Expire(now time.Time) error {
	if q.Status == QuoteStatusExpired {
		return nil
	}
	if q.Status != QuoteStatusSent {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot expire a quote in %s status", q.Status))
	}
	if q.ExpiresAt == nil || !now.After(*q.ExpiresAt) {
		return shared.NewDomainError("INVALID_TRANSITION", "Quote has not reached its expiration deadline")
	}
	if err := q.transition(QuoteStatusExpired, TriggerAutoExpiration, nil); err != nil {
		return err
	}

	q.AddDomainEvent(NewQuoteExpiredEvent(q))

	return nil
}

// AdjustPrice replaces the breakdown on a frozen quote with a corrected
// revision. History is preserved: the old breakdown stays in the revision
// trail and the caller records a compensating ledger entry for the delta.
// Returns the signed delta (new grand total minus old) in the origin
// currency.
func (q *Quote) AdjustPrice(newBreakdown *pricing.CostBreakdown, reason string, actor *uuid.UUID) (decimal.Decimal, error) {
	if !q.Status.FreezesQuote() {
		return decimal.Zero, shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Price adjustments apply to frozen quotes only, got %s status", q.Status))
	}
	if q.Status.IsTerminal() {
		return decimal.Zero, shared.NewDomainError("INVALID_TRANSITION", "Cannot adjust a closed quote")
	}
	if newBreakdown == nil {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Breakdown cannot be nil")
	}
	if q.Breakdown == nil {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Quote has no breakdown to adjust")
	}
	if newBreakdown.Currency != q.Currency {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Breakdown currency does not match the quote")
	}
	if reason == "" {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "Adjustment reason cannot be empty")
	}

	delta := newBreakdown.GrandTotal.Sub(q.Breakdown.GrandTotal)
	oldRevision := q.BreakdownRevision

	q.Breakdown = newBreakdown
	q.BreakdownRevision++
	q.UpdatedAt = time.Now()

	q.AddDomainEvent(NewQuotePriceAdjustedEvent(q, oldRevision, delta, reason, actor))

	return delta, nil
}

// Total returns the grand total of the current breakdown in the origin
// currency, or zero when no calculation is attached
func (q *Quote) Total() decimal.Decimal {
	if q.Breakdown == nil {
		return decimal.Zero
	}
	return q.Breakdown.GrandTotal
}

// IsFrozen reports whether the address and breakdown are locked
func (q *Quote) IsFrozen() bool {
	return q.Status.FreezesQuote()
}
