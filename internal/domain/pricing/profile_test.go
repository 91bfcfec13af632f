package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossbay/backend/internal/domain/shared/valueobject"
)

func tieredProfile(t *testing.T) *TaxFeeProfile {
	t.Helper()
	p, err := NewTaxFeeProfile("TR", time.Now(), valueobject.USD, valueobject.TRY)
	require.NoError(t, err)
	require.NoError(t, p.AddWeightTier(d("1"), d("15")))
	require.NoError(t, p.AddWeightTier(d("5"), d("35")))
	require.NoError(t, p.AddWeightTier(d("10"), d("60")))
	p.OverflowRatePerKg = d("7")
	return p
}

func TestNewTaxFeeProfile(t *testing.T) {
	t.Run("requires destination country", func(t *testing.T) {
		_, err := NewTaxFeeProfile("", time.Now(), valueobject.USD, valueobject.TRY)
		assert.Error(t, err)
	})

	t.Run("requires currencies", func(t *testing.T) {
		_, err := NewTaxFeeProfile("TR", time.Now(), "", valueobject.TRY)
		assert.Error(t, err)
	})
}

func TestShippingForWeight(t *testing.T) {
	p := tieredProfile(t)

	tests := []struct {
		name     string
		weightKg string
		expected string
	}{
		{"within first tier", "0.5", "15"},
		{"exactly at tier ceiling", "1", "15"},
		{"second tier", "3", "35"},
		{"last tier", "10", "60"},
		{"overflow beyond last tier", "12", "74"}, // 60 + 2kg * 7
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate := p.ShippingForWeight(kg(t, tt.weightKg))
			assert.True(t, rate.Equal(d(tt.expected)), "got %s want %s", rate, tt.expected)
		})
	}

	t.Run("no tiers charges overflow from zero", func(t *testing.T) {
		flat, err := NewTaxFeeProfile("TR", time.Now(), valueobject.USD, valueobject.TRY)
		require.NoError(t, err)
		flat.OverflowRatePerKg = d("8")
		assert.True(t, flat.ShippingForWeight(kg(t, "2.5")).Equal(d("20")))
	})
}

func TestAddWeightTier(t *testing.T) {
	p, err := NewTaxFeeProfile("TR", time.Now(), valueobject.USD, valueobject.TRY)
	require.NoError(t, err)

	require.NoError(t, p.AddWeightTier(d("1"), d("15")))

	t.Run("rejects non-ascending ceiling", func(t *testing.T) {
		assert.Error(t, p.AddWeightTier(d("1"), d("20")))
		assert.Error(t, p.AddWeightTier(d("0.5"), d("20")))
	})

	t.Run("rejects non-positive ceiling", func(t *testing.T) {
		assert.Error(t, p.AddWeightTier(decimal.Zero, d("20")))
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		assert.Error(t, p.AddWeightTier(d("2"), d("-1")))
	})
}

func TestProfileValidate(t *testing.T) {
	t.Run("valid profile passes", func(t *testing.T) {
		assert.NoError(t, tieredProfile(t).Validate())
	})

	t.Run("negative percentage fails", func(t *testing.T) {
		p := tieredProfile(t)
		p.VATPercent = d("-1")
		assert.Error(t, p.Validate())
	})

	t.Run("negative fee fails", func(t *testing.T) {
		p := tieredProfile(t)
		p.HandlingFee = d("-1")
		assert.Error(t, p.Validate())
	})
}

func TestProfileSnapshot(t *testing.T) {
	p := tieredProfile(t)
	p.CustomsPercent = d("15")

	snap := p.Snapshot()
	assert.Equal(t, p.ID, snap.ProfileID)
	assert.Equal(t, p.Version, snap.ProfileVersion)
	assert.True(t, snap.CustomsPercent.Equal(d("15")))
	assert.Len(t, snap.WeightTiers, 3)

	// snapshot tiers are a copy; mutating the profile must not reach it
	require.NoError(t, p.AddWeightTier(d("20"), d("90")))
	p.WeightTiers[0].Rate = d("999")
	assert.Len(t, snap.WeightTiers, 3)
	assert.True(t, snap.WeightTiers[0].Rate.Equal(d("15")))

	t.Run("snapshot shipping matches profile", func(t *testing.T) {
		w := kg(t, "3")
		assert.True(t, snap.ShippingForWeight(w).Equal(d("35")))
	})
}
