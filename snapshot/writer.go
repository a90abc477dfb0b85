package snapshot

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"matchbook/domain/orderbook"
)

const fileName = "snapshot.bin"

// File is the on-disk form of a depth snapshot.
type File struct {
	Seq     uint64
	Created time.Time
	Books   []BookEntry
}

type BookEntry struct {
	Symbol string
	Bids   []LevelEntry
	Asks   []LevelEntry
}

type LevelEntry struct {
	Ticks  int64
	Places int32
	Qty    int64
	Orders int
}

// Writer dumps snapshots into Dir, replacing the previous one atomically.
type Writer struct {
	Dir string
}

// Write stores blocks under Dir and returns the file path. seq is the last
// arrival sequence covered by the snapshot.
func (w *Writer) Write(seq uint64, blocks []Block) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(w.Dir, fileName+".*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	f := File{
		Seq:     seq,
		Created: time.Now().UTC(),
		Books:   make([]BookEntry, 0, len(blocks)),
	}
	for _, b := range blocks {
		f.Books = append(f.Books, toEntry(b))
	}

	if err := gob.NewEncoder(tmp).Encode(&f); err != nil {
		tmp.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	path := filepath.Join(w.Dir, fileName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", err
	}
	return path, nil
}

// PublishSnapshot lets a Writer act as a snapshot sink.
func (w *Writer) PublishSnapshot(_ context.Context, seq uint64, blocks []Block) error {
	_, err := w.Write(seq, blocks)
	return err
}

// Read loads a snapshot written by Writer.
func Read(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	var f File
	if err := gob.NewDecoder(fh).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return &f, nil
}

// Blocks rebuilds the row view of a stored snapshot.
func (f *File) Blocks() []Block {
	out := make([]Block, 0, len(f.Books))
	for _, b := range f.Books {
		out = append(out, Block{
			Symbol: b.Symbol,
			Rows:   pair(fromEntries(b.Bids), fromEntries(b.Asks)),
		})
	}
	return out
}

func toEntry(b Block) BookEntry {
	e := BookEntry{Symbol: b.Symbol}
	for _, r := range b.Rows {
		if r.Bid != nil {
			e.Bids = append(e.Bids, toLevelEntry(r.Bid))
		}
		if r.Ask != nil {
			e.Asks = append(e.Asks, toLevelEntry(r.Ask))
		}
	}
	return e
}

func toLevelEntry(l *Level) LevelEntry {
	return LevelEntry{
		Ticks:  l.Price.Ticks(),
		Places: l.Price.Places(),
		Qty:    l.Qty,
		Orders: l.Orders,
	}
}

func fromEntries(es []LevelEntry) []Level {
	out := make([]Level, 0, len(es))
	for _, e := range es {
		out = append(out, Level{
			Price:  orderbook.NewPrice(e.Ticks, e.Places),
			Qty:    e.Qty,
			Orders: e.Orders,
		})
	}
	return out
}
