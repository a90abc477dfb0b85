package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryPutGetRemove(t *testing.T) {
	r := NewRegistry()
	o := r.Acquire()
	o.ID = 7
	o.Symbol = "AAPL"
	o.Qty = 10
	r.Put(o)

	got, ok := r.Get(7)
	assert.True(t, ok)
	assert.Equal(t, "AAPL", got.Symbol)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Remove(7))
	_, ok = r.Get(7)
	assert.False(t, ok)
	assert.False(t, r.Remove(7))
	assert.Zero(t, r.Len())
}

func TestRegistryPutReplaces(t *testing.T) {
	r := NewRegistry()
	a := r.Acquire()
	a.ID, a.Qty = 1, 5
	r.Put(a)

	b := r.Acquire()
	b.ID, b.Qty = 1, 9
	r.Put(b)

	got, ok := r.Get(1)
	assert.True(t, ok)
	assert.Equal(t, int64(9), got.Qty)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryAcquireIsZeroed(t *testing.T) {
	r := NewRegistry()
	o := r.Acquire()
	o.ID, o.Symbol, o.Qty = 3, "X", 1
	r.Release(o)

	assert.Equal(t, Order{}, *r.Acquire())
}
