package entry

import (
	"fmt"
	"os"
)

const defaultSegmentSize = 64 << 20

type Config struct {
	Dir         string
	SegmentSize int64
	// SyncEveryAppend fsyncs after each record instead of only on Sync/Close.
	SyncEveryAppend bool
}

// WAL is an append-only, segmented journal. Sequence numbers continue
// across reopen, so a directory holds one monotonic history.
type WAL struct {
	dir      string
	segSize  int64
	syncEach bool

	current  *segment
	segIndex int
	lastSeq  uint64
}

func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = defaultSegmentSize
	}

	w := &WAL{
		dir:      cfg.Dir,
		segSize:  cfg.SegmentSize,
		syncEach: cfg.SyncEveryAppend,
	}

	files, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if n := len(files); n > 0 {
		if w.segIndex, err = segmentIndex(files[n-1]); err != nil {
			return nil, fmt.Errorf("journal: bad segment name %s: %w", files[n-1], err)
		}
		// The newest segment may be empty right after a rotation.
		for i := n - 1; i >= 0 && w.lastSeq == 0; i-- {
			if w.lastSeq, err = maxSeqInSegment(files[i]); err != nil {
				return nil, err
			}
		}
	}

	if w.current, err = openSegment(cfg.Dir, w.segIndex); err != nil {
		return nil, err
	}
	return w, nil
}

// Append journals one record and returns its sequence number.
func (w *WAL) Append(t RecordType, data []byte) (uint64, error) {
	rec := NewRecord(t, w.lastSeq+1, data)
	if err := w.current.append(encodeFrame(rec)); err != nil {
		return 0, err
	}
	w.lastSeq = rec.Seq

	if w.syncEach {
		if err := w.current.sync(); err != nil {
			return rec.Seq, err
		}
	}
	if w.current.offset >= w.segSize {
		return rec.Seq, w.rotate()
	}
	return rec.Seq, nil
}

// LastSeq is the sequence of the newest record, 0 for an empty journal.
func (w *WAL) LastSeq() uint64 { return w.lastSeq }

func (w *WAL) Dir() string { return w.dir }

func (w *WAL) Sync() error {
	return w.current.sync()
}

func (w *WAL) Close() error {
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return err
	}
	return w.current.close()
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return err
	}
	_ = w.current.close()
	w.segIndex++

	seg, err := openSegment(w.dir, w.segIndex)
	if err != nil {
		return err
	}
	w.current = seg
	return nil
}
