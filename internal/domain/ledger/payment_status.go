package ledger

import (
	"github.com/shopspring/decimal"
)

// PaymentStatus is a pure function of amount paid versus the quote total.
// It annotates a quote orthogonally to its lifecycle status.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPartial  PaymentStatus = "PARTIAL"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusOverpaid PaymentStatus = "OVERPAID"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartial, PaymentStatusPaid, PaymentStatusOverpaid:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsSettled returns true when the quote may move into paid lifecycle states
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentStatusPaid || s == PaymentStatusOverpaid
}

// DefaultEpsilon is the tolerance within which paid and total are treated as
// equal, absorbing sub-cent residue from gateway rounding.
var DefaultEpsilon = decimal.NewFromFloat(0.01)

// PaymentSummary is the derived payment position of a quote. AmountPaid is
// always recomputed from the ledger, never trusted from a cached column.
type PaymentSummary struct {
	AmountPaid        decimal.Decimal `json:"amount_paid"`
	Total             decimal.Decimal `json:"total"`
	Status            PaymentStatus   `json:"status"`
	OverpaymentAmount decimal.Decimal `json:"overpayment_amount"`
}

// Summarize derives the payment status from the signed sum of completed
// ledger entries against the quote total. Overpayment is preserved, not
// clipped.
func Summarize(amountPaid, total, epsilon decimal.Decimal) PaymentSummary {
	summary := PaymentSummary{
		AmountPaid:        amountPaid,
		Total:             total,
		OverpaymentAmount: decimal.Zero,
	}

	diff := amountPaid.Sub(total)
	switch {
	case amountPaid.LessThanOrEqual(decimal.Zero):
		summary.Status = PaymentStatusUnpaid
	case diff.Abs().LessThanOrEqual(epsilon):
		summary.Status = PaymentStatusPaid
	case diff.IsPositive():
		summary.Status = PaymentStatusOverpaid
		summary.OverpaymentAmount = diff
	default:
		summary.Status = PaymentStatusPartial
	}
	return summary
}
