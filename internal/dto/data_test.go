package dto

import (
	"testing"

	"ticksession/internal/fixed"
	"ticksession/utils/token"

	"github.com/stretchr/testify/assert"
)

func TestData_Variants(t *testing.T) {
	q, err := NewQuoteTick("EUR/USD.SIM", fixed.MustPrice(1, 0), fixed.MustPrice(2, 0), fixed.MustQuantity(1, 0), fixed.MustQuantity(1, 0), 3, 4)
	assert.NoError(t, err)
	tr := NewTradeTick("EUR/USD.SIM", fixed.MustPrice(1, 0), fixed.MustQuantity(1, 0), Buyer, "1", 7, 8)

	quote := FromQuote(q)
	trade := FromTrade(tr)

	assert.Equal(t, KindQuote, quote.Kind())
	assert.Equal(t, UnixNanos(4), quote.TsInit())
	assert.Equal(t, UnixNanos(3), quote.TsEvent())
	got, ok := quote.Quote()
	assert.True(t, ok)
	assert.Equal(t, q, got)
	_, ok = quote.Trade()
	assert.False(t, ok)

	assert.Equal(t, KindTrade, trade.Kind())
	assert.Equal(t, UnixNanos(8), trade.TsInit())
	gotTrade, ok := trade.Trade()
	assert.True(t, ok)
	assert.Equal(t, tr, gotTrade)
	_, ok = trade.Quote()
	assert.False(t, ok)

	assert.Equal(t, token.EUR_USD_SIM, trade.InstrumentID())
	assert.Equal(t, tr.String(), trade.String())
	assert.True(t, FromQuote(q) == quote)
	assert.False(t, quote == trade)
}

func TestData_Zero(t *testing.T) {
	var d Data
	assert.Equal(t, DataKind(0), d.Kind())
	assert.Equal(t, UnixNanos(0), d.TsInit())
	assert.Empty(t, d.InstrumentID())
}
