package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
)

func usd(t *testing.T, s string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(s, valueobject.USD)
	require.NoError(t, err)
	return m
}

func TestNewCustomerPayment(t *testing.T) {
	quoteID := uuid.New()

	t.Run("creates completed entry", func(t *testing.T) {
		e, err := NewCustomerPayment(quoteID, usd(t, "60.00"), "stripe", "pi_123")
		require.NoError(t, err)
		assert.Equal(t, PaymentEventTypeCustomerPayment, e.Type)
		assert.Equal(t, PaymentEventStatusCompleted, e.Status)
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(60)))
		assert.NotNil(t, e.CompletedAt)
		assert.Equal(t, "stripe:pi_123", e.IdempotencyKey())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := NewCustomerPayment(quoteID, usd(t, "0"), "stripe", "pi_123")
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))

		_, err = NewCustomerPayment(quoteID, usd(t, "-5"), "stripe", "pi_123")
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})

	t.Run("requires idempotency key parts", func(t *testing.T) {
		_, err := NewCustomerPayment(quoteID, usd(t, "10"), "", "pi_123")
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))

		_, err = NewCustomerPayment(quoteID, usd(t, "10"), "stripe", "")
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestNewRefundEntry(t *testing.T) {
	quoteID := uuid.New()

	t.Run("stores a negative amount", func(t *testing.T) {
		e, err := NewRefundEntry(quoteID, usd(t, "30.00"), "stripe", "re_1", uuid.New())
		require.NoError(t, err)
		assert.Equal(t, PaymentEventTypeRefund, e.Type)
		assert.True(t, e.Amount.Equal(decimal.NewFromInt(-30)), "amount %s", e.Amount)
		assert.True(t, e.IsRefund())
	})

	t.Run("requires an authorizing request", func(t *testing.T) {
		_, err := NewRefundEntry(quoteID, usd(t, "30.00"), "stripe", "re_1", uuid.Nil)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestNewAdjustment(t *testing.T) {
	t.Run("accepts signed amounts", func(t *testing.T) {
		e, err := NewAdjustment(uuid.New(), usd(t, "-12.50"), "adj-1", "carrier reweigh delta")
		require.NoError(t, err)
		assert.Equal(t, PaymentEventTypeAdjustment, e.Type)
		assert.True(t, e.Amount.Equal(decimal.NewFromFloat(-12.50)))
		assert.Equal(t, "manual", e.GatewayCode)
	})

	t.Run("rejects zero", func(t *testing.T) {
		_, err := NewAdjustment(uuid.New(), usd(t, "0"), "adj-1", "")
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestPaymentEventSettlement(t *testing.T) {
	entry := func(t *testing.T) *PaymentEvent {
		e, err := NewCustomerPayment(uuid.New(), usd(t, "10"), "stripe", uuid.NewString())
		require.NoError(t, err)
		e.MarkPending()
		return e
	}

	t.Run("pending to completed", func(t *testing.T) {
		e := entry(t)
		require.NoError(t, e.MarkCompleted())
		assert.True(t, e.IsCompleted())
		assert.NotNil(t, e.CompletedAt)

		// idempotent
		require.NoError(t, e.MarkCompleted())
	})

	t.Run("pending to failed", func(t *testing.T) {
		e := entry(t)
		require.NoError(t, e.MarkFailed())
		assert.NotNil(t, e.FailedAt)
		require.NoError(t, e.MarkFailed())
	})

	t.Run("failed cannot complete", func(t *testing.T) {
		e := entry(t)
		require.NoError(t, e.MarkFailed())
		assert.True(t, shared.IsCode(e.MarkCompleted(), "INVALID_TRANSITION"))
	})

	t.Run("completed cannot fail", func(t *testing.T) {
		e := entry(t)
		require.NoError(t, e.MarkCompleted())
		assert.True(t, shared.IsCode(e.MarkFailed(), "INVALID_TRANSITION"))
	})
}
