package token

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidInstrumentID = errors.New("invalid instrument id")

// InstrumentID identifies a tradable instrument as SYMBOL.VENUE, e.g. "EUR/USD.SIM".
type InstrumentID string

const (
	EUR_USD_SIM  InstrumentID = "EUR/USD.SIM"
	BTC_USDT_BIN InstrumentID = "BTC-USDT.BINANCE"
	ETH_USDT_BIN InstrumentID = "ETH-USDT.BINANCE"
)

// ParseInstrumentID validates that s has a non-empty symbol and venue separated by the last dot.
func ParseInstrumentID(s string) (InstrumentID, error) {
	idx := strings.LastIndexByte(s, '.')
	if idx <= 0 || idx == len(s)-1 {
		return "", fmt.Errorf("%w: %q", ErrInvalidInstrumentID, s)
	}
	if strings.ContainsAny(s, ", \t\n") {
		return "", fmt.Errorf("%w: %q contains a separator", ErrInvalidInstrumentID, s)
	}
	return InstrumentID(s), nil
}

func (id InstrumentID) Symbol() string {
	if idx := strings.LastIndexByte(string(id), '.'); idx > 0 {
		return string(id[:idx])
	}
	return string(id)
}

func (id InstrumentID) Venue() string {
	if idx := strings.LastIndexByte(string(id), '.'); idx > 0 {
		return string(id[idx+1:])
	}
	return ""
}

func (id InstrumentID) String() string {
	return string(id)
}
