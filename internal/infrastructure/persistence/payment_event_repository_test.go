package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
)

func testPayment(t *testing.T, quoteID uuid.UUID, amount, ref string) *ledger.PaymentEvent {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(amount, valueobject.USD)
	require.NoError(t, err)
	e, err := ledger.NewCustomerPayment(quoteID, m, "stripe", ref)
	require.NoError(t, err)
	return e
}

func TestGormPaymentEventRepository_Append(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentEventRepository(db)
	ctx := context.Background()
	quoteID := uuid.New()

	require.NoError(t, repo.Append(ctx, testPayment(t, quoteID, "60.00", "pi_append_1")))

	t.Run("duplicate idempotency key is rejected by the index", func(t *testing.T) {
		err := repo.Append(ctx, testPayment(t, uuid.New(), "10.00", "pi_append_1"))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "ALREADY_EXISTS"))
	})

	t.Run("same reference under another gateway is a different key", func(t *testing.T) {
		m, err := valueobject.NewMoneyFromString("10.00", valueobject.USD)
		require.NoError(t, err)
		e, err := ledger.NewCustomerPayment(quoteID, m, "iyzico", "pi_append_1")
		require.NoError(t, err)
		assert.NoError(t, repo.Append(ctx, e))
	})
}

func TestGormPaymentEventRepository_Queries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormPaymentEventRepository(db)
	ctx := context.Background()
	quoteID := uuid.New()

	first := testPayment(t, quoteID, "60.00", "pi_q_1")
	second := testPayment(t, quoteID, "60.00", "pi_q_2")
	pending := testPayment(t, quoteID, "15.00", "pi_q_3")
	pending.MarkPending()
	require.NoError(t, repo.Append(ctx, first))
	require.NoError(t, repo.Append(ctx, second))
	require.NoError(t, repo.Append(ctx, pending))

	t.Run("find by idempotency key", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, "stripe", "pi_q_1")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, first.ID, found.ID)

		missing, err := repo.FindByIdempotencyKey(ctx, "stripe", "pi_missing")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("sum counts only completed entries", func(t *testing.T) {
		sum, err := repo.SumCompleted(ctx, quoteID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(120)), "sum %s", sum)
	})

	t.Run("sum is zero for an empty ledger", func(t *testing.T) {
		sum, err := repo.SumCompleted(ctx, uuid.New())
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("find by quote oldest first", func(t *testing.T) {
		entries, err := repo.FindByQuote(ctx, quoteID)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("refunds are summed signed", func(t *testing.T) {
		m, err := valueobject.NewMoneyFromString("30.00", valueobject.USD)
		require.NoError(t, err)
		refund, err := ledger.NewRefundEntry(quoteID, m, "stripe", "re_q_1", uuid.New())
		require.NoError(t, err)
		require.NoError(t, repo.Append(ctx, refund))

		sum, err := repo.SumCompleted(ctx, quoteID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(90)), "sum %s", sum)
	})

	t.Run("settlement status update persists", func(t *testing.T) {
		require.NoError(t, pending.MarkCompleted())
		require.NoError(t, repo.UpdateStatus(ctx, pending))

		sum, err := repo.SumCompleted(ctx, quoteID)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(105)), "sum %s", sum)
	})
}
