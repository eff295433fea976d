package fixed

import "fmt"

// Price is a signed fixed-precision price.
type Price struct {
	FixedDecimal
}

func NewPrice(raw int64, precision uint8) (Price, error) {
	f, err := FromRaw(raw, precision)
	if err != nil {
		return Price{}, err
	}
	return Price{f}, nil
}

// MustPrice is NewPrice for literals known to be valid.
func MustPrice(raw int64, precision uint8) Price {
	p, err := NewPrice(raw, precision)
	if err != nil {
		panic(err)
	}
	return p
}

// PriceFromString parses text such as "1.10002" keeping the written precision.
func PriceFromString(s string) (Price, error) {
	coef, precision, err := parseDecimal(s)
	if err != nil {
		return Price{}, err
	}
	if !coef.IsInt64() {
		return Price{}, fmt.Errorf("%w: price %q", ErrOverflow, s)
	}
	return NewPrice(coef.Int64(), precision)
}

func (p Price) Add(other Price) (Price, error) {
	f, err := p.FixedDecimal.Add(other.FixedDecimal)
	if err != nil {
		return Price{}, err
	}
	return Price{f}, nil
}

func (p Price) Sub(other Price) (Price, error) {
	f, err := p.FixedDecimal.Sub(other.FixedDecimal)
	if err != nil {
		return Price{}, err
	}
	return Price{f}, nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	s, err := unquote(data)
	if err != nil {
		return err
	}
	parsed, err := PriceFromString(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
