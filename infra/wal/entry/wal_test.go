package entry

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandCodec(t *testing.T) {
	in := Command{
		Index:       12,
		OrderID:     99,
		Symbol:      "AAPL",
		Side:        2,
		PriceTicks:  100500,
		PricePlaces: 2,
		Qty:         40,
	}
	out, err := UnmarshalCommand(in.Marshal())
	require.NoError(t, err)
	assert.Equal(t, in, out)

	pull := Command{Index: 3, OrderID: 7}
	out, err = UnmarshalCommand(pull.Marshal())
	require.NoError(t, err)
	assert.Equal(t, pull, out)

	_, err = UnmarshalCommand([]byte{0x1a, 0x05, 'a'})
	assert.Error(t, err)
}

func TestAppendScan(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	cmds := []Command{
		{Index: 0, OrderID: 1, Symbol: "X", Side: 1, PriceTicks: 10, Qty: 5},
		{Index: 1, OrderID: 1, PriceTicks: 11, Qty: 5},
		{Index: 2, OrderID: 1},
	}
	types := []RecordType{RecordInsert, RecordAmend, RecordPull}
	for i, c := range cmds {
		seq, err := w.Append(types[i], c.Marshal())
		require.NoError(t, err)
		assert.Equal(t, uint64(i+1), seq)
	}
	require.NoError(t, w.Close())

	var got []Command
	var gotTypes []RecordType
	last, err := Scan(dir, func(r *Record) error {
		c, err := UnmarshalCommand(r.Data)
		if err != nil {
			return err
		}
		got = append(got, c)
		gotTypes = append(gotTypes, r.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	assert.Equal(t, cmds, got)
	assert.Equal(t, types, gotTypes)
}

func TestReopenContinuesSequence(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir, SegmentSize: 64})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err := w.Append(RecordPull, (&Command{Index: int64(i), OrderID: uint64(i)}).Marshal())
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	files, err := listSegments(dir)
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "small segment size must rotate")

	w, err = Open(Config{Dir: dir, SegmentSize: 64, SyncEveryAppend: true})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), w.LastSeq())
	seq, err := w.Append(RecordPull, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), seq)
	require.NoError(t, w.Close())

	n := 0
	last, err := Scan(dir, func(*Record) error { n++; return nil })
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, uint64(11), last)
}

func TestScanDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	_, err = w.Append(RecordInsert, (&Command{OrderID: 1, Symbol: "X"}).Marshal())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	path := segmentPath(dir, 0)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[headerSize] ^= 0xff
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	_, err = Scan(dir, func(*Record) error { return nil })
	assert.ErrorIs(t, err, ErrCorruptFrame)
}

func TestScanTornTail(t *testing.T) {
	dir := t.TempDir()
	w, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	_, err = w.Append(RecordPull, (&Command{OrderID: 1}).Marshal())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	f, err := os.OpenFile(segmentPath(dir, 0), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{byte(RecordPull), 0, 0})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	n := 0
	_, err = Scan(dir, func(*Record) error { n++; return nil })
	assert.ErrorIs(t, err, ErrCorruptFrame)
	assert.Equal(t, 1, n)
}
