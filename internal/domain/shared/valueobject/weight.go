package valueobject

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Weight is a value object representing a shipment weight in kilograms.
// It is immutable - all operations return new Weight instances.
type Weight struct {
	kilograms decimal.Decimal
}

// NewWeight creates a new Weight from a kilogram value
func NewWeight(kilograms decimal.Decimal) (Weight, error) {
	if kilograms.IsNegative() {
		return Weight{}, errors.New("weight cannot be negative")
	}
	return Weight{kilograms: kilograms}, nil
}

// NewWeightFromFloat creates Weight from a float64 kilogram value
func NewWeightFromFloat(kilograms float64) (Weight, error) {
	return NewWeight(decimal.NewFromFloat(kilograms))
}

// NewWeightFromGrams creates Weight from an integer gram value
func NewWeightFromGrams(grams int64) Weight {
	return Weight{kilograms: decimal.NewFromInt(grams).Div(decimal.NewFromInt(1000))}
}

// ZeroWeight returns a zero Weight
func ZeroWeight() Weight {
	return Weight{kilograms: decimal.Zero}
}

// Kilograms returns the weight in kilograms
func (w Weight) Kilograms() decimal.Decimal {
	return w.kilograms
}

// IsZero returns true if the weight is zero
func (w Weight) IsZero() bool {
	return w.kilograms.IsZero()
}

// Add returns the sum of two weights
func (w Weight) Add(other Weight) Weight {
	return Weight{kilograms: w.kilograms.Add(other.kilograms)}
}

// MultiplyByInt returns the weight multiplied by a count, for per-item
// weights scaled by quantity
func (w Weight) MultiplyByInt(factor int64) Weight {
	return Weight{kilograms: w.kilograms.Mul(decimal.NewFromInt(factor))}
}

// LessThanOrEqual returns true if this weight is at most the other
func (w Weight) LessThanOrEqual(other Weight) bool {
	return w.kilograms.LessThanOrEqual(other.kilograms)
}

// String returns the weight formatted in kilograms
func (w Weight) String() string {
	return fmt.Sprintf("%s kg", w.kilograms.StringFixed(3))
}
