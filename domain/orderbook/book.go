package orderbook

// Book holds both sides of one symbol. It is single-writer: only the
// Engine that owns it mutates it.
type Book struct {
	Symbol string

	bids *PriceIndex
	asks *PriceIndex
}

func NewBook(symbol string) *Book {
	return &Book{
		Symbol: symbol,
		bids:   NewPriceIndex(Buy),
		asks:   NewPriceIndex(Sell),
	}
}

// Side returns the price index for s.
func (b *Book) Side(s Side) *PriceIndex {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

func (b *Book) Bids() *PriceIndex { return b.bids }
func (b *Book) Asks() *PriceIndex { return b.asks }

// BestPrice returns the highest bid or lowest ask.
func (b *Book) BestPrice(s Side) (Price, bool) {
	lvl := b.Side(s).Best()
	if lvl == nil {
		return Price{}, false
	}
	return lvl.Price, true
}

func (b *Book) LevelAt(s Side, p Price) *PriceLevel {
	return b.Side(s).Find(p.Ticks())
}

// EnsureLevel returns the level at p, creating it on first use.
func (b *Book) EnsureLevel(s Side, p Price) *PriceLevel {
	lvl, _ := b.Side(s).Upsert(p)
	return lvl
}

// DropLevelIfEmpty removes the level at p once it has no members.
func (b *Book) DropLevelIfEmpty(s Side, p Price) bool {
	idx := b.Side(s)
	lvl := idx.Find(p.Ticks())
	if lvl == nil || !lvl.Empty() {
		return false
	}
	return idx.Delete(p.Ticks())
}

// Empty reports whether neither side has a resting level.
func (b *Book) Empty() bool {
	return b.bids.Len() == 0 && b.asks.Len() == 0
}

// Depth is the number of distinct price levels on s.
func (b *Book) Depth(s Side) int {
	return b.Side(s).Len()
}
