// Package fixed holds scaled-integer decimals used for every price and size in the tick model.
// A value is raw / 10^precision; no floating point is involved in construction, arithmetic or
// rendering.
package fixed

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FixedPrecision is the largest number of fractional digits any value may carry.
const FixedPrecision uint8 = 9

var (
	ErrPrecisionOverflow = errors.New("precision exceeds maximum")
	ErrPrecisionMismatch = errors.New("precision mismatch")
	ErrOverflow          = errors.New("fixed-point magnitude overflow")
	ErrNegativeQuantity  = errors.New("quantity cannot be negative")
	ErrInvalidDecimal    = errors.New("invalid decimal")
)

// FixedDecimal is a signed raw magnitude tagged with its decimal precision.
type FixedDecimal struct {
	raw       int64
	precision uint8
}

func checkPrecision(precision uint8) error {
	if precision > FixedPrecision {
		return fmt.Errorf("%w: %d > %d", ErrPrecisionOverflow, precision, FixedPrecision)
	}
	return nil
}

// FromRaw builds a FixedDecimal from its raw magnitude. It only fails when precision exceeds
// FixedPrecision.
func FromRaw(raw int64, precision uint8) (FixedDecimal, error) {
	if err := checkPrecision(precision); err != nil {
		return FixedDecimal{}, err
	}
	return FixedDecimal{raw: raw, precision: precision}, nil
}

func (f FixedDecimal) Raw() int64 {
	return f.raw
}

func (f FixedDecimal) Precision() uint8 {
	return f.precision
}

// Decimal returns the exact decimal value, for display and comparisons across precisions.
func (f FixedDecimal) Decimal() decimal.Decimal {
	return decimal.New(f.raw, -int32(f.precision))
}

// String renders the value with exactly Precision fractional digits.
func (f FixedDecimal) String() string {
	return f.Decimal().StringFixed(int32(f.precision))
}

func (f FixedDecimal) Add(other FixedDecimal) (FixedDecimal, error) {
	if f.precision != other.precision {
		return FixedDecimal{}, mismatch(f.precision, other.precision)
	}
	sum, ok := addInt64(f.raw, other.raw)
	if !ok {
		return FixedDecimal{}, fmt.Errorf("%w: %d + %d", ErrOverflow, f.raw, other.raw)
	}
	return FixedDecimal{raw: sum, precision: f.precision}, nil
}

func (f FixedDecimal) Sub(other FixedDecimal) (FixedDecimal, error) {
	if f.precision != other.precision {
		return FixedDecimal{}, mismatch(f.precision, other.precision)
	}
	if other.raw == minInt64 {
		// f - MinInt64 == f + 2^63, which only fits when f is negative.
		if f.raw >= 0 {
			return FixedDecimal{}, fmt.Errorf("%w: %d - %d", ErrOverflow, f.raw, other.raw)
		}
		return FixedDecimal{raw: f.raw - other.raw, precision: f.precision}, nil
	}
	diff, ok := addInt64(f.raw, -other.raw)
	if !ok {
		return FixedDecimal{}, fmt.Errorf("%w: %d - %d", ErrOverflow, f.raw, other.raw)
	}
	return FixedDecimal{raw: diff, precision: f.precision}, nil
}

// Cmp compares exact values, so 1.50 and 1.5 are equal even though their raws differ.
func (f FixedDecimal) Cmp(other FixedDecimal) int {
	if f.precision == other.precision {
		switch {
		case f.raw < other.raw:
			return -1
		case f.raw > other.raw:
			return 1
		}
		return 0
	}
	return f.Decimal().Cmp(other.Decimal())
}

const minInt64 = -1 << 63

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	if (a > 0 && b > 0 && c < 0) || (a < 0 && b < 0 && c >= 0) {
		return 0, false
	}
	return c, true
}

func mismatch(left, right uint8) error {
	return fmt.Errorf("%w: %d != %d", ErrPrecisionMismatch, left, right)
}

// parseDecimal splits decimal text into its coefficient and precision. The precision is the
// number of fractional digits as written, so "20.00" keeps precision 2.
func parseDecimal(s string) (*big.Int, uint8, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q: %v", ErrInvalidDecimal, s, err)
	}
	coef := d.Coefficient()
	exp := d.Exponent()
	if exp > 0 {
		coef.Mul(coef, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
		exp = 0
	}
	if -exp > int32(FixedPrecision) {
		return nil, 0, fmt.Errorf("%w: %q has %d fractional digits", ErrPrecisionOverflow, s, -exp)
	}
	return coef, uint8(-exp), nil
}
