package dto

import (
	"fmt"
	"math/big"

	"ticksession/internal/fixed"
	"ticksession/utils/token"
)

// QuoteTick is a top-of-book bid/ask update. Construct it with NewQuoteTick so that the
// bid/ask and size precisions are guaranteed to agree.
type QuoteTick struct {
	instrumentID token.InstrumentID
	bid          fixed.Price
	ask          fixed.Price
	bidSize      fixed.Quantity
	askSize      fixed.Quantity
	tsEvent      UnixNanos
	tsInit       UnixNanos
}

func NewQuoteTick(
	instrumentID token.InstrumentID,
	bid, ask fixed.Price,
	bidSize, askSize fixed.Quantity,
	tsEvent, tsInit UnixNanos,
) (QuoteTick, error) {
	if bid.Precision() != ask.Precision() {
		return QuoteTick{}, &PrecisionMismatchError{
			Left: "bid", Right: "ask",
			LeftPrecision: bid.Precision(), RightPrecision: ask.Precision(),
		}
	}
	if bidSize.Precision() != askSize.Precision() {
		return QuoteTick{}, &PrecisionMismatchError{
			Left: "bid_size", Right: "ask_size",
			LeftPrecision: bidSize.Precision(), RightPrecision: askSize.Precision(),
		}
	}
	return QuoteTick{
		instrumentID: instrumentID,
		bid:          bid,
		ask:          ask,
		bidSize:      bidSize,
		askSize:      askSize,
		tsEvent:      tsEvent,
		tsInit:       tsInit,
	}, nil
}

func (q QuoteTick) InstrumentID() token.InstrumentID { return q.instrumentID }
func (q QuoteTick) Bid() fixed.Price                 { return q.bid }
func (q QuoteTick) Ask() fixed.Price                 { return q.ask }
func (q QuoteTick) BidSize() fixed.Quantity          { return q.bidSize }
func (q QuoteTick) AskSize() fixed.Quantity          { return q.askSize }
func (q QuoteTick) TsEvent() UnixNanos               { return q.tsEvent }
func (q QuoteTick) TsInit() UnixNanos                { return q.tsInit }

// ExtractPrice returns the bid, the ask, or their midpoint. The midpoint is the truncated
// half-sum of the raws at one extra digit of precision, capped at fixed.FixedPrecision.
func (q QuoteTick) ExtractPrice(kind PriceType) (fixed.Price, error) {
	switch kind {
	case PriceTypeBid:
		return q.bid, nil
	case PriceTypeAsk:
		return q.ask, nil
	case PriceTypeMid:
		precision := min(q.bid.Precision()+1, fixed.FixedPrecision)
		return fixed.NewPrice(halfSum(q.bid.Raw(), q.ask.Raw()), precision)
	}
	return fixed.Price{}, fmt.Errorf("%w: %s on quote %s", ErrUnsupportedPriceKind, kind, q.instrumentID)
}

// halfSum is (a+b)/2 truncated toward zero without overflowing int64.
func halfSum(a, b int64) int64 {
	sum := a + b
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum >= 0) {
		wide := new(big.Int).Add(big.NewInt(a), big.NewInt(b))
		return wide.Quo(wide, big.NewInt(2)).Int64()
	}
	return sum / 2
}

// String renders instrument,bid,ask,bid_size,ask_size,ts_event,ts_init.
func (q QuoteTick) String() string {
	return fmt.Sprintf("%s,%s,%s,%s,%s,%d,%d",
		q.instrumentID,
		q.bid,
		q.ask,
		q.bidSize,
		q.askSize,
		q.tsEvent,
		q.tsInit,
	)
}
