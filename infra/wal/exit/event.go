package exit

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// TradeEvent is the payload published for every trade.
//
// Wire format (protobuf, no generated code):
//
//	1: id              string (uuid)
//	2: seq             varint
//	3: symbol          string
//	4: price           string (display form)
//	5: price_ticks     zigzag
//	6: qty             zigzag
//	7: aggressor_id    varint
//	8: passive_id      varint
//	9: aggressor_side  varint
//	10: time_unix_nano zigzag
type TradeEvent struct {
	ID            string
	Seq           uint64
	Symbol        string
	Price         string
	PriceTicks    int64
	Qty           int64
	AggressorID   uint64
	PassiveID     uint64
	AggressorSide uint8
	Time          int64
}

func (e *TradeEvent) Marshal() []byte {
	b := make([]byte, 0, 96)
	b = appendString(b, 1, e.ID)
	b = appendVarint(b, 2, e.Seq)
	b = appendString(b, 3, e.Symbol)
	b = appendString(b, 4, e.Price)
	b = appendVarint(b, 5, protowire.EncodeZigZag(e.PriceTicks))
	b = appendVarint(b, 6, protowire.EncodeZigZag(e.Qty))
	b = appendVarint(b, 7, e.AggressorID)
	b = appendVarint(b, 8, e.PassiveID)
	b = appendVarint(b, 9, uint64(e.AggressorSide))
	b = appendVarint(b, 10, protowire.EncodeZigZag(e.Time))
	return b
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func UnmarshalTradeEvent(b []byte) (TradeEvent, error) {
	var e TradeEvent
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return TradeEvent{}, fmt.Errorf("trade event tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch typ {
		case protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return TradeEvent{}, fmt.Errorf("trade event field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
			switch num {
			case 1:
				e.ID = v
			case 3:
				e.Symbol = v
			case 4:
				e.Price = v
			}

		case protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return TradeEvent{}, fmt.Errorf("trade event field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
			switch num {
			case 2:
				e.Seq = v
			case 5:
				e.PriceTicks = protowire.DecodeZigZag(v)
			case 6:
				e.Qty = protowire.DecodeZigZag(v)
			case 7:
				e.AggressorID = v
			case 8:
				e.PassiveID = v
			case 9:
				e.AggressorSide = uint8(v)
			case 10:
				e.Time = protowire.DecodeZigZag(v)
			}

		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return TradeEvent{}, fmt.Errorf("trade event field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return e, nil
}
