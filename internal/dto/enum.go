package dto

import (
	"fmt"
	"time"
)

// UnixNanos is a timestamp in nanoseconds since the Unix epoch.
type UnixNanos uint64

func (n UnixNanos) Time() time.Time {
	return time.Unix(0, int64(n)).UTC()
}

type AggressorSide uint8

const (
	NoAggressor AggressorSide = iota
	Buyer
	Seller
)

var aggressorNames = map[AggressorSide]string{
	NoAggressor: "NO_AGGRESSOR",
	Buyer:       "BUYER",
	Seller:      "SELLER",
}

func (s AggressorSide) String() string {
	if name, ok := aggressorNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AggressorSide(%d)", uint8(s))
}

func ParseAggressorSide(s string) (AggressorSide, error) {
	for side, name := range aggressorNames {
		if name == s {
			return side, nil
		}
	}
	return NoAggressor, fmt.Errorf("unknown aggressor side %q", s)
}

func (s AggressorSide) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *AggressorSide) UnmarshalText(text []byte) error {
	side, err := ParseAggressorSide(string(text))
	if err != nil {
		return err
	}
	*s = side
	return nil
}

// PriceType selects which price ExtractPrice derives from a tick.
type PriceType uint8

const (
	PriceTypeBid PriceType = iota + 1
	PriceTypeAsk
	PriceTypeMid
	PriceTypeLast
)

func (p PriceType) String() string {
	switch p {
	case PriceTypeBid:
		return "BID"
	case PriceTypeAsk:
		return "ASK"
	case PriceTypeMid:
		return "MID"
	case PriceTypeLast:
		return "LAST"
	}
	return fmt.Sprintf("PriceType(%d)", uint8(p))
}

// DataKind tags the active variant of Data.
type DataKind uint8

const (
	KindQuote DataKind = iota + 1
	KindTrade
)

func (k DataKind) String() string {
	switch k {
	case KindQuote:
		return "quote"
	case KindTrade:
		return "trade"
	}
	return fmt.Sprintf("DataKind(%d)", uint8(k))
}

func ParseDataKind(s string) (DataKind, error) {
	switch s {
	case "quote":
		return KindQuote, nil
	case "trade":
		return KindTrade, nil
	}
	return 0, fmt.Errorf("unknown data kind %q", s)
}
