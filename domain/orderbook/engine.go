package orderbook

import (
	"fmt"
	"sort"

	"matchbook/infra/sequence"
)

// Engine owns the Order Registry and every Book. It is single-writer:
// callers serialize commands onto it and each command runs to completion
// before the next one starts.
type Engine struct {
	registry *Registry
	books    map[string]*Book

	seq    *sequence.Sequencer // arrival sequence
	trades *sequence.Sequencer // trade sequence
}

type Option func(*Engine)

// WithSequencer makes the engine draw arrival sequences from s.
func WithSequencer(s *sequence.Sequencer) Option {
	return func(e *Engine) { e.seq = s }
}

// WithTradeSequence makes the first trade of this engine carry start+1.
func WithTradeSequence(start uint64) Option {
	return func(e *Engine) { e.trades = sequence.New(start) }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		registry: NewRegistry(),
		books:    make(map[string]*Book, 16),
		seq:      sequence.New(0),
		trades:   sequence.New(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Insert adds a new limit order, matches it against the opposite side and
// rests any remainder. A rejected insert changes nothing.
func (e *Engine) Insert(id uint64, symbol string, side Side, price Price, qty int64) ([]Trade, error) {
	switch {
	case symbol == "":
		return nil, ErrInvalidSymbol
	case !side.Valid():
		return nil, fmt.Errorf("%w: %s", ErrInvalidSide, side)
	case !price.IsPositive():
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	case qty <= 0:
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}
	if _, ok := e.registry.Get(id); ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateOrder, id)
	}

	return e.submit(e.bookFor(symbol), id, side, price, qty), nil
}

// Amend changes price and/or quantity of a resting order.
//
// A pure reduction at the same price is applied in place and keeps the
// order's queue position. Any other change cancels the order and feeds it
// back through matching with a new arrival sequence.
func (e *Engine) Amend(id uint64, price Price, qty int64) ([]Trade, error) {
	o, ok := e.registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPrice, price)
	}
	if qty <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, qty)
	}

	if price.Equal(o.Price) {
		if qty == o.Qty {
			return nil, nil
		}
		if qty < o.Qty {
			book := e.books[o.Symbol]
			book.LevelAt(o.Side, o.Price).Reduce(o.Qty - qty)
			o.Qty = qty
			return nil, nil
		}
	}

	// o is recycled by remove; keep what the resubmission needs.
	symbol, side := o.Symbol, o.Side
	e.remove(o)
	return e.submit(e.books[symbol], id, side, price, qty), nil
}

// Pull cancels a resting order.
func (e *Engine) Pull(id uint64) error {
	o, ok := e.registry.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOrder, id)
	}
	e.remove(o)
	return nil
}

// Order returns a copy of the resting order with the given id.
func (e *Engine) Order(id uint64) (Order, bool) {
	o, ok := e.registry.Get(id)
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Book returns the book for symbol, or nil if no order was ever accepted
// for it. The book must not be mutated by the caller.
func (e *Engine) Book(symbol string) *Book {
	return e.books[symbol]
}

// Symbols lists every symbol that has had an accepted order, sorted.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// RestingOrders is the number of orders currently in the registry.
func (e *Engine) RestingOrders() int { return e.registry.Len() }

// Sequence is the last arrival sequence handed out.
func (e *Engine) Sequence() uint64 { return e.seq.Current() }

// TradeSequence is the sequence of the last trade produced.
func (e *Engine) TradeSequence() uint64 { return e.trades.Current() }

// CheckIntegrity cross-checks registry, levels and indexes. It walks the
// whole state and is meant for tests and debug endpoints.
func (e *Engine) CheckIntegrity() error {
	members := 0
	for _, sym := range e.Symbols() {
		book := e.books[sym]
		for _, side := range []Side{Buy, Sell} {
			var err error
			book.Side(side).Walk(func(lvl *PriceLevel) bool {
				if lvl.Empty() {
					err = fmt.Errorf("%s %s %s: empty level left in book", sym, side, lvl.Price)
					return false
				}
				var sum int64
				var lastSeq uint64
				lvl.Walk(func(id uint64) bool {
					o, ok := e.registry.Get(id)
					switch {
					case !ok:
						err = fmt.Errorf("%s %s %s: order %d not in registry", sym, side, lvl.Price, id)
					case o.Symbol != sym || o.Side != side || !o.Price.Equal(lvl.Price):
						err = fmt.Errorf("%s %s %s: order %d filed under wrong level", sym, side, lvl.Price, id)
					case o.Qty <= 0:
						err = fmt.Errorf("%s %s %s: order %d has quantity %d", sym, side, lvl.Price, id, o.Qty)
					case o.Seq <= lastSeq:
						err = fmt.Errorf("%s %s %s: order %d out of arrival order", sym, side, lvl.Price, id)
					}
					if err != nil {
						return false
					}
					lastSeq = o.Seq
					sum += o.Qty
					return true
				})
				if err == nil && sum != lvl.TotalQty() {
					err = fmt.Errorf("%s %s %s: aggregate %d, members sum %d", sym, side, lvl.Price, lvl.TotalQty(), sum)
				}
				members += lvl.Len()
				return err == nil
			})
			if err != nil {
				return err
			}
		}

		bid, okBid := book.BestPrice(Buy)
		ask, okAsk := book.BestPrice(Sell)
		if okBid && okAsk && bid.Cmp(ask) >= 0 {
			return fmt.Errorf("%s: book crossed, bid %s ask %s", sym, bid, ask)
		}
	}
	if members != e.registry.Len() {
		return fmt.Errorf("registry holds %d orders, levels hold %d", e.registry.Len(), members)
	}
	return nil
}

/******************** internals ********************/

func (e *Engine) bookFor(symbol string) *Book {
	b, ok := e.books[symbol]
	if !ok {
		b = NewBook(symbol)
		e.books[symbol] = b
	}
	return b
}

// submit runs an accepted order through matching and rests the remainder.
func (e *Engine) submit(book *Book, id uint64, side Side, price Price, qty int64) []Trade {
	o := e.registry.Acquire()
	o.ID = id
	o.Symbol = book.Symbol
	o.Side = side
	o.Price = price
	o.Qty = qty
	o.Seq = e.seq.Next()

	trades := e.match(book, o)

	if o.Qty == 0 {
		e.registry.Release(o)
		return trades
	}
	book.EnsureLevel(side, price).Append(o.ID, o.Qty)
	e.registry.Put(o)
	return trades
}

func crosses(incoming Side, limit, best Price) bool {
	if incoming == Buy {
		return best.Cmp(limit) <= 0
	}
	return best.Cmp(limit) >= 0
}

func (e *Engine) match(book *Book, o *Order) []Trade {
	var trades []Trade
	opposite := book.Side(o.Side.Opposite())

	for o.Qty > 0 {
		best := opposite.Best()
		if best == nil || !crosses(o.Side, o.Price, best.Price) {
			break
		}

		headID, _ := best.PeekFront()
		head, ok := e.registry.Get(headID)
		if !ok {
			best.RemoveMember(headID, 0)
			if best.Empty() {
				opposite.Delete(best.Price.Ticks())
			}
			continue
		}

		qty := min(o.Qty, head.Qty)
		o.Qty -= qty
		head.Qty -= qty
		best.Reduce(qty)

		trades = append(trades, Trade{
			Seq:           e.trades.Next(),
			Symbol:        book.Symbol,
			Price:         head.Price,
			Qty:           qty,
			AggressorID:   o.ID,
			PassiveID:     head.ID,
			AggressorSide: o.Side,
		})

		if head.Qty == 0 {
			best.RemoveMember(headID, 0)
			e.registry.Remove(headID)
			if best.Empty() {
				opposite.Delete(best.Price.Ticks())
			}
		}
	}
	return trades
}

// remove takes o out of its level and the registry. o must not be used
// afterwards.
func (e *Engine) remove(o *Order) {
	book := e.books[o.Symbol]
	if lvl := book.LevelAt(o.Side, o.Price); lvl != nil {
		lvl.RemoveMember(o.ID, o.Qty)
		book.DropLevelIfEmpty(o.Side, o.Price)
	}
	e.registry.Remove(o.ID)
}
