package snapshot

import (
	"strconv"
	"strings"

	"matchbook/domain/orderbook"
)

// Level is one aggregated price level.
type Level struct {
	Price  orderbook.Price
	Qty    int64
	Orders int
}

// Row pairs the n-th best bid with the n-th best ask. Either side may be
// nil once that side has run out of levels.
type Row struct {
	Bid *Level
	Ask *Level
}

// String renders bidPrice,bidQty,askPrice,askQty with empty fields for a
// missing side.
func (r Row) String() string {
	var b strings.Builder
	writeLevel(&b, r.Bid)
	b.WriteByte(',')
	writeLevel(&b, r.Ask)
	return b.String()
}

func writeLevel(b *strings.Builder, l *Level) {
	if l == nil {
		b.WriteByte(',')
		return
	}
	b.WriteString(l.Price.String())
	b.WriteByte(',')
	b.WriteString(strconv.FormatInt(l.Qty, 10))
}

// Block is the depth view of one symbol.
type Block struct {
	Symbol string
	Rows   []Row
}

func (b Block) Header() string {
	return "===" + b.Symbol + "==="
}

// Lines returns the header followed by one line per row.
func (b Block) Lines() []string {
	out := make([]string, 0, len(b.Rows)+1)
	out = append(out, b.Header())
	for _, r := range b.Rows {
		out = append(out, r.String())
	}
	return out
}

// Lines flattens blocks in order.
func Lines(blocks []Block) []string {
	var out []string
	for _, b := range blocks {
		out = append(out, b.Lines()...)
	}
	return out
}

// Source is the read side of the matching engine.
type Source interface {
	Symbols() []string
	Book(symbol string) *orderbook.Book
}

// Take builds one Block per symbol with resting liquidity. Symbols come out
// in the order Source.Symbols returns them; empty books are skipped.
func Take(src Source) []Block {
	var blocks []Block
	for _, sym := range src.Symbols() {
		book := src.Book(sym)
		if book == nil || book.Empty() {
			continue
		}
		blocks = append(blocks, Block{
			Symbol: sym,
			Rows:   pair(aggregate(book.Bids()), aggregate(book.Asks())),
		})
	}
	return blocks
}

func aggregate(idx *orderbook.PriceIndex) []Level {
	out := make([]Level, 0, idx.Len())
	idx.Walk(func(l *orderbook.PriceLevel) bool {
		out = append(out, Level{Price: l.Price, Qty: l.TotalQty(), Orders: l.Len()})
		return true
	})
	return out
}

func pair(bids, asks []Level) []Row {
	n := max(len(bids), len(asks))
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		if i < len(bids) {
			rows[i].Bid = &bids[i]
		}
		if i < len(asks) {
			rows[i].Ask = &asks[i]
		}
	}
	return rows
}
