package sequence

import "sync/atomic"

// Sequencer hands out strictly increasing ids. Arrival order of commands
// is the only clock the matching engine uses, so every arrival sequence
// comes from here.
type Sequencer struct {
	next atomic.Uint64
}

// New creates a sequencer whose first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.next.Store(start)
	return s
}

func (s *Sequencer) Next() uint64 {
	return s.next.Add(1)
}

// Current returns the last issued value, or the start value if none.
func (s *Sequencer) Current() uint64 {
	return s.next.Load()
}

// Reset moves the sequencer to v. Values at or below v may be issued again,
// so callers only use it before the first Next.
func (s *Sequencer) Reset(v uint64) {
	s.next.Store(v)
}
