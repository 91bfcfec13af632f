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

func approvedRequest(t *testing.T, approved string) *RefundRequest {
	t.Helper()
	rr, err := NewRefundRequest(uuid.New(), usd(t, approved), "damaged in transit", nil)
	require.NoError(t, err)
	require.NoError(t, rr.Approve(usd(t, approved), uuid.New()))
	return rr
}

func TestNewRefundRequest(t *testing.T) {
	t.Run("starts requested", func(t *testing.T) {
		rr, err := NewRefundRequest(uuid.New(), usd(t, "50"), "damaged in transit", nil)
		require.NoError(t, err)
		assert.Equal(t, RefundRequestStatusRequested, rr.Status)
		assert.True(t, rr.ApprovedAmount.IsZero())
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewRefundRequest(uuid.Nil, usd(t, "50"), "reason", nil)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))

		_, err = NewRefundRequest(uuid.New(), usd(t, "0"), "reason", nil)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))

		_, err = NewRefundRequest(uuid.New(), usd(t, "50"), "", nil)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestRefundRequestApprove(t *testing.T) {
	t.Run("approves up to the requested amount", func(t *testing.T) {
		rr, err := NewRefundRequest(uuid.New(), usd(t, "50"), "reason", nil)
		require.NoError(t, err)
		require.NoError(t, rr.Approve(usd(t, "40"), uuid.New()))
		assert.Equal(t, RefundRequestStatusApproved, rr.Status)
		assert.True(t, rr.ApprovedAmount.Equal(decimal.NewFromInt(40)))
	})

	t.Run("cannot approve more than requested", func(t *testing.T) {
		rr, err := NewRefundRequest(uuid.New(), usd(t, "50"), "reason", nil)
		require.NoError(t, err)
		err = rr.Approve(usd(t, "60"), uuid.New())
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		rr := approvedRequest(t, "50")
		err := rr.Approve(usd(t, "50"), uuid.New())
		assert.True(t, shared.IsCode(err, "INVALID_TRANSITION"))
	})
}

func TestRefundRequestCeiling(t *testing.T) {
	t.Run("running sum can never exceed approved", func(t *testing.T) {
		// approved 50: a 30 entry lands, a second 30 must be rejected
		rr := approvedRequest(t, "50")

		require.NoError(t, rr.RegisterRefundEntry(usd(t, "30")))
		assert.Equal(t, RefundRequestStatusProcessed, rr.Status)
		assert.True(t, rr.RemainingApproved().Equal(decimal.NewFromInt(20)))

		err := rr.RegisterRefundEntry(usd(t, "30"))
		require.Error(t, err)
		assert.True(t, shared.IsCode(err, "REFUND_EXCEEDS_APPROVED"))
		assert.True(t, rr.RefundedAmount.Equal(decimal.NewFromInt(30)), "refunded %s", rr.RefundedAmount)
	})

	t.Run("completing exactly at the ceiling", func(t *testing.T) {
		rr := approvedRequest(t, "50")
		require.NoError(t, rr.RegisterRefundEntry(usd(t, "30")))
		require.NoError(t, rr.RegisterRefundEntry(usd(t, "20")))
		assert.Equal(t, RefundRequestStatusCompleted, rr.Status)
		assert.NotNil(t, rr.CompletedAt)
	})

	t.Run("entries require an approved request", func(t *testing.T) {
		rr, err := NewRefundRequest(uuid.New(), usd(t, "50"), "reason", nil)
		require.NoError(t, err)
		err = rr.RegisterRefundEntry(usd(t, "10"))
		assert.True(t, shared.IsCode(err, "INVALID_TRANSITION"))
	})

	t.Run("currency must match", func(t *testing.T) {
		rr := approvedRequest(t, "50")
		eur, err := valueobject.NewMoneyFromString("10", valueobject.EUR)
		require.NoError(t, err)

		err = rr.RegisterRefundEntry(eur)
		assert.True(t, shared.IsCode(err, "INVALID_INPUT"))
	})
}

func TestRefundRequestReject(t *testing.T) {
	t.Run("reject before approval", func(t *testing.T) {
		rr, err := NewRefundRequest(uuid.New(), usd(t, "50"), "reason", nil)
		require.NoError(t, err)
		require.NoError(t, rr.Reject("not eligible"))
		assert.Equal(t, RefundRequestStatusRejected, rr.Status)
		assert.Equal(t, "not eligible", rr.RejectReason)
	})

	t.Run("cannot reject once entries are applied", func(t *testing.T) {
		rr := approvedRequest(t, "50")
		require.NoError(t, rr.RegisterRefundEntry(usd(t, "10")))
		err := rr.Reject("too late")
		assert.True(t, shared.IsCode(err, "INVALID_TRANSITION"))
	})
}
