package fixed

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// Quantity is a non-negative fixed-precision size.
type Quantity struct {
	raw       uint64
	precision uint8
}

func NewQuantity(raw uint64, precision uint8) (Quantity, error) {
	if err := checkPrecision(precision); err != nil {
		return Quantity{}, err
	}
	return Quantity{raw: raw, precision: precision}, nil
}

// MustQuantity is NewQuantity for literals known to be valid.
func MustQuantity(raw uint64, precision uint8) Quantity {
	q, err := NewQuantity(raw, precision)
	if err != nil {
		panic(err)
	}
	return q
}

// QuantityFromString parses text such as "100000.00" keeping the written precision.
func QuantityFromString(s string) (Quantity, error) {
	coef, precision, err := parseDecimal(s)
	if err != nil {
		return Quantity{}, err
	}
	if coef.Sign() < 0 {
		return Quantity{}, fmt.Errorf("%w: %q", ErrNegativeQuantity, s)
	}
	if !coef.IsUint64() {
		return Quantity{}, fmt.Errorf("%w: quantity %q", ErrOverflow, s)
	}
	return NewQuantity(coef.Uint64(), precision)
}

func (q Quantity) Raw() uint64 {
	return q.raw
}

func (q Quantity) Precision() uint8 {
	return q.precision
}

func (q Quantity) IsZero() bool {
	return q.raw == 0
}

func (q Quantity) Decimal() decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(q.raw), -int32(q.precision))
}

func (q Quantity) String() string {
	return q.Decimal().StringFixed(int32(q.precision))
}

func (q Quantity) Add(other Quantity) (Quantity, error) {
	if q.precision != other.precision {
		return Quantity{}, mismatch(q.precision, other.precision)
	}
	if other.raw > math.MaxUint64-q.raw {
		return Quantity{}, fmt.Errorf("%w: %d + %d", ErrOverflow, q.raw, other.raw)
	}
	return Quantity{raw: q.raw + other.raw, precision: q.precision}, nil
}

func (q Quantity) Sub(other Quantity) (Quantity, error) {
	if q.precision != other.precision {
		return Quantity{}, mismatch(q.precision, other.precision)
	}
	if other.raw > q.raw {
		return Quantity{}, fmt.Errorf("%w: %s - %s", ErrNegativeQuantity, q, other)
	}
	return Quantity{raw: q.raw - other.raw, precision: q.precision}, nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + q.String() + `"`), nil
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	parsed, err := QuantityFromString(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// unquote accepts both "1.25" and bare 1.25 so hand-written fixtures stay readable. Bare
// numbers are still parsed as text, never as floats.
func unquote(data []byte) (string, error) {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrInvalidDecimal, data)
		}
		return s, nil
	}
	return string(data), nil
}
