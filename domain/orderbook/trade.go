package orderbook

import "fmt"

// Trade is one execution between an incoming (aggressor) order and a
// resting (passive) order. Price is always the passive order's price.
type Trade struct {
	Seq           uint64
	Symbol        string
	Price         Price
	Qty           int64
	AggressorID   uint64
	PassiveID     uint64
	AggressorSide Side
}

func (t Trade) String() string {
	return fmt.Sprintf("%s,%s,%d,%d,%d", t.Symbol, t.Price, t.Qty, t.AggressorID, t.PassiveID)
}
