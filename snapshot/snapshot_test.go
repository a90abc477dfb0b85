package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchbook/domain/orderbook"
)

func insert(t *testing.T, e *orderbook.Engine, id uint64, sym string, side orderbook.Side, price string, qty int64) {
	t.Helper()
	p, err := orderbook.ParsePrice(price)
	require.NoError(t, err)
	_, err = e.Insert(id, sym, side, p, qty)
	require.NoError(t, err)
}

func TestTakePairsSidesInLockStep(t *testing.T) {
	e := orderbook.NewEngine()
	insert(t, e, 1, "MSFT", orderbook.Buy, "10.00", 60)
	insert(t, e, 2, "MSFT", orderbook.Buy, "9.5", 10)
	insert(t, e, 3, "MSFT", orderbook.Buy, "10", 5)
	insert(t, e, 4, "MSFT", orderbook.Sell, "11", 7)
	insert(t, e, 5, "AAPL", orderbook.Sell, "3.25", 1)
	insert(t, e, 6, "AAPL", orderbook.Sell, "3.2", 2)

	assert.Equal(t, []string{
		"===AAPL===",
		",,3.2,2",
		",,3.25,1",
		"===MSFT===",
		"10.00,65,11,7",
		"9.5,10,,",
	}, Lines(Take(e)))

	blocks := Take(e)
	require.Len(t, blocks, 2)
	assert.Equal(t, 2, blocks[1].Rows[0].Bid.Orders)
}

func TestTakeSkipsEmptyBooks(t *testing.T) {
	e := orderbook.NewEngine()
	insert(t, e, 1, "AAPL", orderbook.Buy, "10", 50)
	require.NoError(t, e.Pull(1))

	assert.Empty(t, Take(e))
	assert.Empty(t, Lines(Take(e)))
}

func TestWriterRoundTrip(t *testing.T) {
	e := orderbook.NewEngine()
	insert(t, e, 1, "X", orderbook.Buy, "1.50", 3)
	insert(t, e, 2, "X", orderbook.Sell, "2", 4)
	insert(t, e, 3, "X", orderbook.Sell, "2.0001", 1)
	blocks := Take(e)

	w := &Writer{Dir: filepath.Join(t.TempDir(), "snap")}
	path, err := w.Write(e.Sequence(), blocks)
	require.NoError(t, err)

	f, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), f.Seq)
	assert.Equal(t, Lines(blocks), Lines(f.Blocks()))

	require.NoError(t, w.PublishSnapshot(context.Background(), 9, nil))
	f, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), f.Seq)
	assert.Empty(t, f.Books)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
}
