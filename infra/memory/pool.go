package memory

import "sync"

// Pool is a typed object pool. Values handed back via Put must not be
// referenced by the caller afterwards.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

// Get returns a zeroed value.
func (p *Pool[T]) Get() *T {
	v := p.p.Get().(*T)
	var zero T
	*v = zero
	return v
}

func (p *Pool[T]) Put(v *T) {
	if v == nil {
		return
	}
	p.p.Put(v)
}
