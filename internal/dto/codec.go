package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"ticksession/internal/fixed"
	"ticksession/utils/token"
)

var ErrMalformedRecord = errors.New("malformed tick record")

type envelope struct {
	Type string `json:"type"`
}

type quoteRecord struct {
	Type         string         `json:"type"`
	InstrumentID string         `json:"instrument_id"`
	Bid          fixed.Price    `json:"bid"`
	Ask          fixed.Price    `json:"ask"`
	BidSize      fixed.Quantity `json:"bid_size"`
	AskSize      fixed.Quantity `json:"ask_size"`
	TsEvent      UnixNanos      `json:"ts_event"`
	TsInit       UnixNanos      `json:"ts_init"`
}

type tradeRecord struct {
	Type          string         `json:"type"`
	InstrumentID  string         `json:"instrument_id"`
	Price         fixed.Price    `json:"price"`
	Size          fixed.Quantity `json:"size"`
	AggressorSide AggressorSide  `json:"aggressor_side"`
	TradeID       string         `json:"trade_id"`
	TsEvent       UnixNanos      `json:"ts_event"`
	TsInit        UnixNanos      `json:"ts_init"`
}

// quoteFields and tradeFields mirror the records with pointers so that absent fields are
// reported instead of decoding as zero.
type quoteFields struct {
	InstrumentID *string         `json:"instrument_id"`
	Bid          *fixed.Price    `json:"bid"`
	Ask          *fixed.Price    `json:"ask"`
	BidSize      *fixed.Quantity `json:"bid_size"`
	AskSize      *fixed.Quantity `json:"ask_size"`
	TsEvent      *UnixNanos      `json:"ts_event"`
	TsInit       *UnixNanos      `json:"ts_init"`
}

func (f quoteFields) missing() []string {
	return absent(map[string]bool{
		"instrument_id": f.InstrumentID != nil,
		"bid":           f.Bid != nil,
		"ask":           f.Ask != nil,
		"bid_size":      f.BidSize != nil,
		"ask_size":      f.AskSize != nil,
		"ts_event":      f.TsEvent != nil,
		"ts_init":       f.TsInit != nil,
	})
}

type tradeFields struct {
	InstrumentID  *string         `json:"instrument_id"`
	Price         *fixed.Price    `json:"price"`
	Size          *fixed.Quantity `json:"size"`
	AggressorSide *AggressorSide  `json:"aggressor_side"`
	TradeID       *string         `json:"trade_id"`
	TsEvent       *UnixNanos      `json:"ts_event"`
	TsInit        *UnixNanos      `json:"ts_init"`
}

func (f tradeFields) missing() []string {
	return absent(map[string]bool{
		"instrument_id":  f.InstrumentID != nil,
		"price":          f.Price != nil,
		"size":           f.Size != nil,
		"aggressor_side": f.AggressorSide != nil,
		"trade_id":       f.TradeID != nil,
		"ts_event":       f.TsEvent != nil,
		"ts_init":        f.TsInit != nil,
	})
}

// absent returns the names of fields not present, sorted.
func absent(present map[string]bool) []string {
	var out []string
	for name, ok := range present {
		if !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func (d Data) MarshalJSON() ([]byte, error) {
	switch d.kind {
	case KindQuote:
		q := d.quote
		return json.Marshal(quoteRecord{
			Type:         KindQuote.String(),
			InstrumentID: q.instrumentID.String(),
			Bid:          q.bid,
			Ask:          q.ask,
			BidSize:      q.bidSize,
			AskSize:      q.askSize,
			TsEvent:      q.tsEvent,
			TsInit:       q.tsInit,
		})
	case KindTrade:
		t := d.trade
		return json.Marshal(tradeRecord{
			Type:          KindTrade.String(),
			InstrumentID:  t.instrumentID.String(),
			Price:         t.price,
			Size:          t.size,
			AggressorSide: t.aggressorSide,
			TradeID:       string(t.tradeID),
			TsEvent:       t.tsEvent,
			TsInit:        t.tsInit,
		})
	}
	return nil, fmt.Errorf("%w: empty data", ErrMalformedRecord)
}

// UnmarshalJSON decodes an envelope and re-runs the constructors, so a record with mismatched
// precisions is rejected rather than repaired.
func (d *Data) UnmarshalJSON(payload []byte) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	kind, err := ParseDataKind(env.Type)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	switch kind {
	case KindQuote:
		var rec quoteFields
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		if missing := rec.missing(); len(missing) > 0 {
			return fmt.Errorf("%w: quote missing %s", ErrMalformedRecord, strings.Join(missing, ", "))
		}
		id, err := token.ParseInstrumentID(*rec.InstrumentID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		q, err := NewQuoteTick(id, *rec.Bid, *rec.Ask, *rec.BidSize, *rec.AskSize, *rec.TsEvent, *rec.TsInit)
		if err != nil {
			return err
		}
		*d = FromQuote(q)
	case KindTrade:
		var rec tradeFields
		if err := json.Unmarshal(payload, &rec); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		if missing := rec.missing(); len(missing) > 0 {
			return fmt.Errorf("%w: trade missing %s", ErrMalformedRecord, strings.Join(missing, ", "))
		}
		id, err := token.ParseInstrumentID(*rec.InstrumentID)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		*d = FromTrade(NewTradeTick(id, *rec.Price, *rec.Size, *rec.AggressorSide, TradeID(*rec.TradeID), *rec.TsEvent, *rec.TsInit))
	}
	return nil
}

// Decode parses one JSON-encoded record.
func Decode(payload []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(payload, &d); err != nil {
		return Data{}, err
	}
	return d, nil
}
