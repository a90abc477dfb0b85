package orderbook

import "matchbook/infra/memory"

// Registry owns the canonical state of every resident order, keyed by id.
// Values are recycled through a pool; a pointer obtained from Get is only
// valid until the order is removed or released.
type Registry struct {
	orders map[uint64]*Order
	pool   *memory.Pool[Order]
}

func NewRegistry() *Registry {
	return &Registry{
		orders: make(map[uint64]*Order, 1024),
		pool:   memory.NewPool(func() *Order { return &Order{} }),
	}
}

// Acquire hands out a zeroed Order that is not yet registered.
func (r *Registry) Acquire() *Order {
	return r.pool.Get()
}

// Release returns an unregistered Order to the pool.
func (r *Registry) Release(o *Order) {
	r.pool.Put(o)
}

// Put inserts or replaces the order stored under o.ID.
func (r *Registry) Put(o *Order) {
	if prev, ok := r.orders[o.ID]; ok && prev != o {
		r.pool.Put(prev)
	}
	r.orders[o.ID] = o
}

func (r *Registry) Get(id uint64) (*Order, bool) {
	o, ok := r.orders[id]
	return o, ok
}

// Remove drops the order and recycles its storage. It reports false for
// an unknown id.
func (r *Registry) Remove(id uint64) bool {
	o, ok := r.orders[id]
	if !ok {
		return false
	}
	delete(r.orders, id)
	r.pool.Put(o)
	return true
}

func (r *Registry) Len() int { return len(r.orders) }
