package boundary

import (
	"ticksession/internal/dto"
	"ticksession/internal/fixed"
	"ticksession/utils/token"
)

func (r *Registry) TradeTickNew(
	instrumentID string,
	price fixed.Price,
	size fixed.Quantity,
	side dto.AggressorSide,
	tradeID string,
	tsEvent, tsInit uint64,
) (Handle, error) {
	id, err := token.ParseInstrumentID(instrumentID)
	if err != nil {
		return 0, err
	}
	t := dto.NewTradeTick(id, price, size, side, dto.TradeID(tradeID), dto.UnixNanos(tsEvent), dto.UnixNanos(tsInit))
	return r.put(t), nil
}

func (r *Registry) TradeTickFromRaw(
	instrumentID string,
	priceRaw int64,
	pricePrecision uint8,
	sizeRaw uint64,
	sizePrecision uint8,
	side dto.AggressorSide,
	tradeID string,
	tsEvent, tsInit uint64,
) (Handle, error) {
	price, err := fixed.NewPrice(priceRaw, pricePrecision)
	if err != nil {
		return 0, err
	}
	size, err := fixed.NewQuantity(sizeRaw, sizePrecision)
	if err != nil {
		return 0, err
	}
	return r.TradeTickNew(instrumentID, price, size, side, tradeID, tsEvent, tsInit)
}

func (r *Registry) TradeTick(h Handle) dto.TradeTick {
	return lookup[dto.TradeTick](r, h)
}

func (r *Registry) TradeTickClone(h Handle) Handle {
	return r.put(lookup[dto.TradeTick](r, h))
}

func (r *Registry) TradeTickRelease(h Handle) {
	releaseAs[dto.TradeTick](r, h)
}

func (r *Registry) TradeTickToCString(h Handle) []byte {
	return cString(lookup[dto.TradeTick](r, h).String())
}
