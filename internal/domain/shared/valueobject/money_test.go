package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", EUR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", EUR)
		assert.Error(t, err)
	})
}

func TestZero(t *testing.T) {
	m := Zero(USD)
	assert.True(t, m.IsZero())
	assert.Equal(t, USD, m.Currency())
}

func TestMoneyArithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		a := MustMoney(decimal.NewFromFloat(60), USD)
		b := MustMoney(decimal.NewFromFloat(60), USD)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(120)))
	})

	t.Run("add rejects currency mismatch", func(t *testing.T) {
		a := MustMoney(decimal.NewFromFloat(60), USD)
		b := MustMoney(decimal.NewFromFloat(60), JPY)
		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract same currency", func(t *testing.T) {
		a := MustMoney(decimal.NewFromFloat(120), USD)
		b := MustMoney(decimal.NewFromFloat(100), USD)
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(20)))
	})

	t.Run("subtract rejects currency mismatch", func(t *testing.T) {
		a := MustMoney(decimal.NewFromFloat(120), USD)
		b := MustMoney(decimal.NewFromFloat(100), TRY)
		_, err := a.Subtract(b)
		assert.Error(t, err)
	})

	t.Run("negate and abs", func(t *testing.T) {
		m := MustMoney(decimal.NewFromFloat(30), USD)
		neg := m.Negate()
		assert.True(t, neg.IsNegative())
		assert.True(t, neg.Abs().Equals(m))
	})

	t.Run("percentage", func(t *testing.T) {
		m := MustMoney(decimal.NewFromInt(100), USD)
		tax := m.CalculatePercentage(decimal.NewFromFloat(8.88))
		assert.True(t, tax.Amount().Equal(decimal.NewFromFloat(8.88)))
	})
}

func TestMoneyComparisons(t *testing.T) {
	a := MustMoney(decimal.NewFromInt(50), USD)
	b := MustMoney(decimal.NewFromInt(60), USD)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	gte, err := a.GreaterThanOrEqual(a)
	require.NoError(t, err)
	assert.True(t, gte)

	t.Run("comparison rejects currency mismatch", func(t *testing.T) {
		c := MustMoney(decimal.NewFromInt(50), JPY)
		_, err := a.LessThan(c)
		assert.Error(t, err)
	})
}

func TestCurrencyDecimalPlaces(t *testing.T) {
	assert.Equal(t, int32(2), USD.DecimalPlaces())
	assert.Equal(t, int32(2), EUR.DecimalPlaces())
	assert.Equal(t, int32(0), JPY.DecimalPlaces())
	assert.Equal(t, int32(0), KRW.DecimalPlaces())
}

func TestCurrencyIsValid(t *testing.T) {
	assert.True(t, USD.IsValid())
	assert.True(t, TRY.IsValid())
	assert.False(t, Currency("XXX").IsValid())
	assert.False(t, Currency("").IsValid())
}

func TestRoundBank(t *testing.T) {
	t.Run("two-decimal currency", func(t *testing.T) {
		m := MustMoney(decimal.NewFromFloat(10.125), USD)
		assert.Equal(t, "10.12", m.RoundBank().Amount().String())
	})

	t.Run("zero-decimal currency rounds to whole units", func(t *testing.T) {
		m := MustMoney(decimal.NewFromFloat(1234.56), JPY)
		assert.Equal(t, "1235", m.RoundBank().Amount().String())
	})
}

func TestMoneyString(t *testing.T) {
	m := MustMoney(decimal.NewFromFloat(100.5), USD)
	assert.Equal(t, "100.50 USD", m.String())

	yen := MustMoney(decimal.NewFromInt(1200), JPY)
	assert.Equal(t, "1200 JPY", yen.String())
}

func TestMoneyJSON(t *testing.T) {
	m := MustMoney(decimal.NewFromFloat(99.99), EUR)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.99","currency":"EUR"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Equals(m))
}

func TestMoneyScan(t *testing.T) {
	t.Run("scans string amount", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("42.50"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(42.50)))
	})

	t.Run("nil becomes zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(42))
	})
}
