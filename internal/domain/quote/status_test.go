package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteStatusCanTransitionTo(t *testing.T) {
	allowed := []struct {
		from, to QuoteStatus
	}{
		{QuoteStatusPending, QuoteStatusSent},
		{QuoteStatusPending, QuoteStatusCancelled},
		{QuoteStatusSent, QuoteStatusApproved},
		{QuoteStatusSent, QuoteStatusRejected},
		{QuoteStatusSent, QuoteStatusExpired},
		{QuoteStatusSent, QuoteStatusCancelled},
		{QuoteStatusApproved, QuoteStatusPaymentPending},
		{QuoteStatusApproved, QuoteStatusPaid},
		{QuoteStatusApproved, QuoteStatusCancelled},
		{QuoteStatusPaymentPending, QuoteStatusPaid},
		{QuoteStatusPaymentPending, QuoteStatusCancelled},
		{QuoteStatusPaid, QuoteStatusProcessing},
		{QuoteStatusProcessing, QuoteStatusOrdered},
		{QuoteStatusOrdered, QuoteStatusShipped},
		{QuoteStatusShipped, QuoteStatusCompleted},
	}
	for _, tt := range allowed {
		assert.True(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct {
		from, to QuoteStatus
	}{
		{QuoteStatusPending, QuoteStatusApproved},
		{QuoteStatusPending, QuoteStatusPaid},
		{QuoteStatusSent, QuoteStatusPaid},
		{QuoteStatusApproved, QuoteStatusExpired},
		{QuoteStatusPaid, QuoteStatusCancelled},
		{QuoteStatusPaid, QuoteStatusSent},
		{QuoteStatusProcessing, QuoteStatusCancelled},
		{QuoteStatusShipped, QuoteStatusProcessing},
	}
	for _, tt := range denied {
		assert.False(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}

	t.Run("terminal states have no outgoing transitions", func(t *testing.T) {
		terminals := []QuoteStatus{QuoteStatusCompleted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled}
		all := []QuoteStatus{
			QuoteStatusPending, QuoteStatusSent, QuoteStatusApproved, QuoteStatusPaymentPending,
			QuoteStatusPaid, QuoteStatusProcessing, QuoteStatusOrdered, QuoteStatusShipped,
			QuoteStatusCompleted, QuoteStatusRejected, QuoteStatusExpired, QuoteStatusCancelled,
		}
		for _, from := range terminals {
			assert.True(t, from.IsTerminal())
			for _, to := range all {
				assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		}
	})
}

func TestQuoteStatusFreezesQuote(t *testing.T) {
	frozen := []QuoteStatus{
		QuoteStatusPaymentPending, QuoteStatusPaid, QuoteStatusProcessing,
		QuoteStatusOrdered, QuoteStatusShipped, QuoteStatusCompleted,
	}
	for _, s := range frozen {
		assert.True(t, s.FreezesQuote(), "%s should freeze the quote", s)
	}

	editable := []QuoteStatus{QuoteStatusPending, QuoteStatusSent, QuoteStatusApproved}
	for _, s := range editable {
		assert.False(t, s.FreezesQuote(), "%s should not freeze the quote", s)
	}
}

func TestQuoteStatusIsValid(t *testing.T) {
	assert.True(t, QuoteStatusPending.IsValid())
	assert.True(t, QuoteStatusExpired.IsValid())
	assert.False(t, QuoteStatus("DRAFT").IsValid())
	assert.False(t, QuoteStatus("").IsValid())
}
