package orderbook

import "fmt"

type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the side an incoming order of side s matches against.
func (s Side) Opposite() Side {
	switch s {
	case Buy:
		return Sell
	case Sell:
		return Buy
	default:
		return s
	}
}

// ParseSide accepts the wire spelling "BUY" or "SELL".
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Order is the canonical state of a resident order.
// Price levels refer to it by ID only; every access goes through the Registry.
type Order struct {
	ID     uint64
	Symbol string
	Side   Side
	Price  Price
	Qty    int64  // remaining
	Seq    uint64 // arrival sequence, the tie-break inside a level
}
