package dto

import (
	"fmt"

	"ticksession/utils/token"
)

// Data is the closed union of QuoteTick and TradeTick. The zero value holds neither and is
// only produced by failed decodes; everything else goes through FromQuote or FromTrade.
type Data struct {
	kind  DataKind
	quote QuoteTick
	trade TradeTick
}

func FromQuote(q QuoteTick) Data {
	return Data{kind: KindQuote, quote: q}
}

func FromTrade(t TradeTick) Data {
	return Data{kind: KindTrade, trade: t}
}

func (d Data) Kind() DataKind {
	return d.kind
}

func (d Data) Quote() (QuoteTick, bool) {
	return d.quote, d.kind == KindQuote
}

func (d Data) Trade() (TradeTick, bool) {
	return d.trade, d.kind == KindTrade
}

// TsInit is the merge key: the time the tick entered the local system.
func (d Data) TsInit() UnixNanos {
	switch d.kind {
	case KindQuote:
		return d.quote.tsInit
	case KindTrade:
		return d.trade.tsInit
	}
	return 0
}

func (d Data) TsEvent() UnixNanos {
	switch d.kind {
	case KindQuote:
		return d.quote.tsEvent
	case KindTrade:
		return d.trade.tsEvent
	}
	return 0
}

func (d Data) InstrumentID() token.InstrumentID {
	switch d.kind {
	case KindQuote:
		return d.quote.instrumentID
	case KindTrade:
		return d.trade.instrumentID
	}
	return ""
}

func (d Data) String() string {
	switch d.kind {
	case KindQuote:
		return d.quote.String()
	case KindTrade:
		return d.trade.String()
	}
	return fmt.Sprintf("Data(%s)", d.kind)
}
