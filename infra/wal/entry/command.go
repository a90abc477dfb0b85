package entry

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Command is the journaled form of one accepted input command.
//
// Wire format (protobuf, no generated code):
//
//	1: index        varint
//	2: order_id     varint
//	3: symbol       bytes
//	4: side         varint
//	5: price_ticks  zigzag
//	6: price_places varint
//	7: qty          zigzag
type Command struct {
	Index       int64
	OrderID     uint64
	Symbol      string
	Side        uint8
	PriceTicks  int64
	PricePlaces int32
	Qty         int64
}

func (c *Command) Marshal() []byte {
	b := make([]byte, 0, 48+len(c.Symbol))
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(c.Index))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, c.OrderID)
	if c.Symbol != "" {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, c.Symbol)
	}
	if c.Side != 0 {
		b = protowire.AppendTag(b, 4, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.Side))
	}
	if c.PriceTicks != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.PriceTicks))
	}
	if c.PricePlaces != 0 {
		b = protowire.AppendTag(b, 6, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.PricePlaces))
	}
	if c.Qty != 0 {
		b = protowire.AppendTag(b, 7, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(c.Qty))
	}
	return b
}

func UnmarshalCommand(b []byte) (Command, error) {
	var c Command
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Command{}, fmt.Errorf("journal command tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num == 3:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Command{}, fmt.Errorf("journal command symbol: %w", protowire.ParseError(m))
			}
			c.Symbol = v
			b = b[m:]

		case typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Command{}, fmt.Errorf("journal command field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
			switch num {
			case 1:
				c.Index = int64(v)
			case 2:
				c.OrderID = v
			case 4:
				c.Side = uint8(v)
			case 5:
				c.PriceTicks = protowire.DecodeZigZag(v)
			case 6:
				c.PricePlaces = int32(v)
			case 7:
				c.Qty = protowire.DecodeZigZag(v)
			}

		default:
			m := protowire.ConsumeFieldValue(num, typ, b)
			if m < 0 {
				return Command{}, fmt.Errorf("journal command field %d: %w", num, protowire.ParseError(m))
			}
			b = b[m:]
		}
	}
	return c, nil
}
