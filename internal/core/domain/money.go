package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// minorUnitExponent is the decimal exponent between minor and major units (cents).
const minorUnitExponent = -2

// Money is an exact, non-negative amount in minor currency units.
// It is a value type: every operation returns a new Money and two values
// with the same amount compare equal with ==.
type Money struct {
	minor int64
}

// Zero is the zero amount.
var Zero = Money{}

// NewMoney builds a Money from minor units. Negative input fails with ErrInvalidAmount.
func NewMoney(minorUnits int64) (Money, error) {
	if minorUnits < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidAmount, minorUnits)
	}
	return Money{minor: minorUnits}, nil
}

// MustMoney is NewMoney for constants and tests; it panics on negative input.
func MustMoney(minorUnits int64) Money {
	m, err := NewMoney(minorUnits)
	if err != nil {
		panic(err)
	}
	return m
}

// MinorUnits returns the amount in minor units.
func (m Money) MinorUnits() int64 {
	return m.minor
}

// Add returns m+other, failing with ErrAmountOverflow past math.MaxInt64.
func (m Money) Add(other Money) (Money, error) {
	if other.minor > math.MaxInt64-m.minor {
		return Money{}, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, m.minor, other.minor)
	}
	return Money{minor: m.minor + other.minor}, nil
}

// Subtract returns m-other. It never produces a negative Money: when m < other
// it fails with ErrInsufficientFunds.
func (m Money) Subtract(other Money) (Money, error) {
	if m.minor < other.minor {
		return Money{}, fmt.Errorf("%w: %d < %d", ErrInsufficientFunds, m.minor, other.minor)
	}
	return Money{minor: m.minor - other.minor}, nil
}

// LessThan reports whether m is strictly smaller than other.
func (m Money) LessThan(other Money) bool {
	return m.minor < other.minor
}

// GreaterOrEqual reports whether m covers other.
func (m Money) GreaterOrEqual(other Money) bool {
	return m.minor >= other.minor
}

// IsZero reports whether m is zero.
func (m Money) IsZero() bool {
	return m.minor == 0
}

// IsPositive reports whether m is greater than zero.
func (m Money) IsPositive() bool {
	return m.minor > 0
}

// MajorUnits converts to major units (minor / 100). Display only: comparisons
// and arithmetic always go through the minor-unit methods.
func (m Money) MajorUnits() decimal.Decimal {
	return decimal.New(m.minor, minorUnitExponent)
}

// MajorUnitsString renders the major-unit amount with two decimals, e.g. "123.45".
func (m Money) MajorUnitsString() string {
	return m.MajorUnits().StringFixed(-minorUnitExponent)
}

func (m Money) String() string {
	return fmt.Sprintf("%d (%s)", m.minor, m.MajorUnitsString())
}
