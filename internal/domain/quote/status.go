package quote

// QuoteStatus represents the lifecycle status of a quote. Payment status
// (partial/overpaid) is a separate annotation derived from the ledger and is
// orthogonal to this machine.
type QuoteStatus string

const (
	QuoteStatusPending        QuoteStatus = "PENDING"
	QuoteStatusSent           QuoteStatus = "SENT"
	QuoteStatusApproved       QuoteStatus = "APPROVED"
	QuoteStatusPaymentPending QuoteStatus = "PAYMENT_PENDING"
	QuoteStatusPaid           QuoteStatus = "PAID"
	QuoteStatusProcessing     QuoteStatus = "PROCESSING"
	QuoteStatusOrdered        QuoteStatus = "ORDERED"
	QuoteStatusShipped        QuoteStatus = "SHIPPED"
	QuoteStatusCompleted      QuoteStatus = "COMPLETED"
	QuoteStatusRejected       QuoteStatus = "REJECTED"
	QuoteStatusExpired        QuoteStatus = "EXPIRED"
	QuoteStatusCancelled      QuoteStatus = "CANCELLED"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusPending, QuoteStatusSent, QuoteStatusApproved, QuoteStatusPaymentPending,
		QuoteStatusPaid, QuoteStatusProcessing, QuoteStatusOrdered, QuoteStatusShipped,
		QuoteStatusCompleted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s QuoteStatus) CanTransitionTo(target QuoteStatus) bool {
	switch s {
	case QuoteStatusPending:
		return target == QuoteStatusSent || target == QuoteStatusCancelled
	case QuoteStatusSent:
		return target == QuoteStatusApproved || target == QuoteStatusRejected ||
			target == QuoteStatusExpired || target == QuoteStatusCancelled
	case QuoteStatusApproved:
		return target == QuoteStatusPaymentPending || target == QuoteStatusPaid ||
			target == QuoteStatusCancelled
	case QuoteStatusPaymentPending:
		return target == QuoteStatusPaid || target == QuoteStatusCancelled
	case QuoteStatusPaid:
		return target == QuoteStatusProcessing
	case QuoteStatusProcessing:
		return target == QuoteStatusOrdered
	case QuoteStatusOrdered:
		return target == QuoteStatusShipped
	case QuoteStatusShipped:
		return target == QuoteStatusCompleted
	case QuoteStatusCompleted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled:
		return false // Terminal states
	}
	return false
}

// IsTerminal returns true for states with no outgoing transitions
func (s QuoteStatus) IsTerminal() bool {
	switch s {
	case QuoteStatusCompleted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled:
		return true
	}
	return false
}

// IsPaidAdjacent returns true once money has settled against the quote.
// Entering these states freezes the shipping address and cost breakdown;
// changes go through a price-adjustment event with an offsetting ledger
// entry, never history mutation.
func (s QuoteStatus) IsPaidAdjacent() bool {
	switch s {
	case QuoteStatusPaid, QuoteStatusProcessing, QuoteStatusOrdered,
		QuoteStatusShipped, QuoteStatusCompleted:
		return true
	}
	return false
}

// FreezesQuote returns true for states in which the address and breakdown
// may no longer be edited directly. Payment may arrive any time after
// payment collection starts, so the freeze begins at PAYMENT_PENDING.
func (s QuoteStatus) FreezesQuote() bool {
	return s == QuoteStatusPaymentPending || s.IsPaidAdjacent()
}

// Transition triggers recorded in the transition log
const (
	TriggerUser           = "user"
	TriggerPayment        = "payment"
	TriggerSystem         = "system"
	TriggerAutoExpiration = "auto_expiration"
)
