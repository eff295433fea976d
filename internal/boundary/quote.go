package boundary

import (
	"ticksession/internal/dto"
	"ticksession/internal/fixed"
	"ticksession/utils/token"
)

// QuoteTickNew validates and stores a new quote, returning the caller-owned handle.
func (r *Registry) QuoteTickNew(
	instrumentID string,
	bid, ask fixed.Price,
	bidSize, askSize fixed.Quantity,
	tsEvent, tsInit uint64,
) (Handle, error) {
	id, err := token.ParseInstrumentID(instrumentID)
	if err != nil {
		return 0, err
	}
	q, err := dto.NewQuoteTick(id, bid, ask, bidSize, askSize, dto.UnixNanos(tsEvent), dto.UnixNanos(tsInit))
	if err != nil {
		return 0, err
	}
	return r.put(q), nil
}

// QuoteTickFromRaw is QuoteTickNew for callers that only have raw magnitudes and precisions.
func (r *Registry) QuoteTickFromRaw(
	instrumentID string,
	bidRaw, askRaw int64,
	bidPrecision, askPrecision uint8,
	bidSizeRaw, askSizeRaw uint64,
	bidSizePrecision, askSizePrecision uint8,
	tsEvent, tsInit uint64,
) (Handle, error) {
	bid, err := fixed.NewPrice(bidRaw, bidPrecision)
	if err != nil {
		return 0, err
	}
	ask, err := fixed.NewPrice(askRaw, askPrecision)
	if err != nil {
		return 0, err
	}
	bidSize, err := fixed.NewQuantity(bidSizeRaw, bidSizePrecision)
	if err != nil {
		return 0, err
	}
	askSize, err := fixed.NewQuantity(askSizeRaw, askSizePrecision)
	if err != nil {
		return 0, err
	}
	return r.QuoteTickNew(instrumentID, bid, ask, bidSize, askSize, tsEvent, tsInit)
}

// QuoteTick returns a copy of the record; ownership of h is unchanged.
func (r *Registry) QuoteTick(h Handle) dto.QuoteTick {
	return lookup[dto.QuoteTick](r, h)
}

func (r *Registry) QuoteTickClone(h Handle) Handle {
	return r.put(lookup[dto.QuoteTick](r, h))
}

func (r *Registry) QuoteTickRelease(h Handle) {
	releaseAs[dto.QuoteTick](r, h)
}

// QuoteTickToCString renders the quote NUL-terminated. h stays owned by the caller.
func (r *Registry) QuoteTickToCString(h Handle) []byte {
	return cString(lookup[dto.QuoteTick](r, h).String())
}

func (r *Registry) QuoteTickExtractPrice(h Handle, kind dto.PriceType) (fixed.Price, error) {
	return lookup[dto.QuoteTick](r, h).ExtractPrice(kind)
}
