package dto

import (
	"fmt"

	"ticksession/internal/fixed"
	"ticksession/utils/token"
)

// TradeID is the venue-assigned identifier of an execution.
type TradeID string

// TradeTick is a single executed trade.
type TradeTick struct {
	instrumentID  token.InstrumentID
	price         fixed.Price
	size          fixed.Quantity
	aggressorSide AggressorSide
	tradeID       TradeID
	tsEvent       UnixNanos
	tsInit        UnixNanos
}

// NewTradeTick never fails; it exists so trades are built the same way as quotes.
func NewTradeTick(
	instrumentID token.InstrumentID,
	price fixed.Price,
	size fixed.Quantity,
	aggressorSide AggressorSide,
	tradeID TradeID,
	tsEvent, tsInit UnixNanos,
) TradeTick {
	return TradeTick{
		instrumentID:  instrumentID,
		price:         price,
		size:          size,
		aggressorSide: aggressorSide,
		tradeID:       tradeID,
		tsEvent:       tsEvent,
		tsInit:        tsInit,
	}
}

func (t TradeTick) InstrumentID() token.InstrumentID { return t.instrumentID }
func (t TradeTick) Price() fixed.Price               { return t.price }
func (t TradeTick) Size() fixed.Quantity             { return t.size }
func (t TradeTick) AggressorSide() AggressorSide     { return t.aggressorSide }
func (t TradeTick) TradeID() TradeID                 { return t.tradeID }
func (t TradeTick) TsEvent() UnixNanos               { return t.tsEvent }
func (t TradeTick) TsInit() UnixNanos                { return t.tsInit }

// ExtractPrice supports only PriceTypeLast; bid/ask/mid need a quote.
func (t TradeTick) ExtractPrice(kind PriceType) (fixed.Price, error) {
	if kind != PriceTypeLast {
		return fixed.Price{}, fmt.Errorf("%w: %s on trade %s", ErrUnsupportedPriceKind, kind, t.instrumentID)
	}
	return t.price, nil
}

// String renders instrument,price,size,aggressor_side,trade_id,ts_event,ts_init.
func (t TradeTick) String() string {
	return fmt.Sprintf("%s,%s,%s,%s,%s,%d,%d",
		t.instrumentID,
		t.price,
		t.size,
		t.aggressorSide,
		t.tradeID,
		t.tsEvent,
		t.tsInit,
	)
}
