package exit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cockroachdb/pebble"
)

var (
	ErrNotFound      = errors.New("outbox: record not found")
	ErrCorruptRecord = errors.New("outbox: corrupt record")
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// -------------------- Record --------------------

// Record is one outbound trade event and its delivery state.
type Record struct {
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// binary encoding: [state:1][retries:4][lastAttempt:8][payload...]
const recordHeader = 1 + 4 + 8

func encodeRecord(r Record) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < recordHeader {
		return Record{}, fmt.Errorf("%w: length %d", ErrCorruptRecord, len(b))
	}
	payload := make([]byte, len(b)-recordHeader)
	copy(payload, b[recordHeader:])
	return Record{
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     payload,
	}, nil
}

// -------------------- Outbox --------------------

// Outbox is a pebble-backed store of trade events waiting to be published.
// Records are keyed by trade sequence, so iteration is in trade order.
type Outbox struct {
	db *pebble.DB
}

func Open(dir string) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{
		DisableWAL: false,
	})
	if err != nil {
		return nil, err
	}
	return &Outbox{db: db}, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// Entry is a new event to store.
type Entry struct {
	Seq     uint64
	Payload []byte
}

// PutNew stores events in state NEW in one atomic batch.
func (o *Outbox) PutNew(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	b := o.db.NewBatch()
	defer b.Close()

	for _, e := range entries {
		rec := Record{State: StateNew, Payload: e.Payload}
		if err := b.Set(keyFor(e.Seq), encodeRecord(rec), nil); err != nil {
			return err
		}
	}
	return b.Commit(pebble.Sync)
}

// UpdateState records a delivery attempt outcome. The payload is kept.
func (o *Outbox) UpdateState(seq uint64, state State, retries uint32) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	rec.State = state
	rec.Retries = retries
	rec.LastAttempt = time.Now().UnixNano()
	return o.db.Set(keyFor(seq), encodeRecord(rec), pebble.Sync)
}

// Delete removes a record, typically once it is ACKED.
func (o *Outbox) Delete(seq uint64) error {
	return o.db.Delete(keyFor(seq), pebble.Sync)
}

func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if errors.Is(err, pebble.ErrNotFound) {
		return Record{}, fmt.Errorf("%w: seq %d", ErrNotFound, seq)
	}
	if err != nil {
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(val)
}

// LastSeq returns the highest stored trade sequence, 0 when empty.
func (o *Outbox) LastSeq() (uint64, error) {
	iter, err := o.newIter()
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// -------------------- Scan --------------------

// ScanByState calls fn for every record in the given state, in trade order.
func (o *Outbox) ScanByState(state State, fn func(seq uint64, rec Record) error) error {
	return o.scan(func(seq uint64, rec Record) (bool, error) {
		if rec.State != state {
			return true, nil
		}
		return true, fn(seq, rec)
	})
}

// Pending is a record that still has to be delivered.
type Pending struct {
	Seq    uint64
	Record Record
}

// ScanPending collects up to limit records in state NEW or FAILED.
// limit <= 0 means no limit.
func (o *Outbox) ScanPending(limit int) ([]Pending, error) {
	var out []Pending
	err := o.scan(func(seq uint64, rec Record) (bool, error) {
		if rec.State != StateNew && rec.State != StateFailed {
			return true, nil
		}
		out = append(out, Pending{Seq: seq, Record: rec})
		return limit <= 0 || len(out) < limit, nil
	})
	return out, err
}

func (o *Outbox) scan(fn func(seq uint64, rec Record) (bool, error)) error {
	iter, err := o.newIter()
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		rec, err := decodeRecord(iter.Value())
		if err != nil {
			return err
		}
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		more, err := fn(seq, rec)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return iter.Error()
}

// -------------------- Helpers --------------------

const keyPrefix = "trade/"

func (o *Outbox) newIter() (*pebble.Iterator, error) {
	return o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte("trade0"), // '0' follows '/'
	})
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	s := string(b)
	if len(s) <= len(keyPrefix) || s[:len(keyPrefix)] != keyPrefix {
		return 0, fmt.Errorf("%w: key %q", ErrCorruptRecord, s)
	}
	return strconv.ParseUint(s[len(keyPrefix):], 10, 64)
}
