package orderbook

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexTicks(idx *PriceIndex) []int64 {
	var out []int64
	idx.Walk(func(l *PriceLevel) bool {
		out = append(out, l.Price.Ticks())
		return true
	})
	return out
}

func TestPriceIndexBestPerSide(t *testing.T) {
	bids := NewPriceIndex(Buy)
	asks := NewPriceIndex(Sell)
	for _, p := range []int64{100, 300, 200} {
		bids.Upsert(NewPrice(p, 0))
		asks.Upsert(NewPrice(p, 0))
	}

	assert.Equal(t, int64(300), bids.Best().Price.Ticks())
	assert.Equal(t, int64(100), asks.Best().Price.Ticks())
	assert.Equal(t, []int64{300, 200, 100}, indexTicks(bids))
	assert.Equal(t, []int64{100, 200, 300}, indexTicks(asks))
}

func TestPriceIndexUpsertFindDelete(t *testing.T) {
	idx := NewPriceIndex(Sell)
	l1, created := idx.Upsert(NewPrice(150, 2))
	require.True(t, created)

	l2, created := idx.Upsert(NewPrice(150, 0))
	assert.False(t, created)
	assert.Same(t, l1, l2)
	assert.Equal(t, int32(2), l2.Price.Places(), "level keeps the creating price")

	assert.Same(t, l1, idx.Find(150))
	assert.True(t, idx.Delete(150))
	assert.Nil(t, idx.Find(150))
	assert.False(t, idx.Delete(150))
	assert.Nil(t, idx.Best())
	assert.Zero(t, idx.Len())
}

func TestPriceIndexRandomizedAgainstSort(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, side := range []Side{Buy, Sell} {
		idx := NewPriceIndex(side)
		live := make(map[int64]struct{})

		for i := 0; i < 5000; i++ {
			k := int64(r.Intn(400) + 1)
			if r.Intn(3) == 0 {
				_, ok := live[k]
				assert.Equal(t, ok, idx.Delete(k))
				delete(live, k)
			} else {
				idx.Upsert(NewPrice(k, 0))
				live[k] = struct{}{}
			}
			if i%250 == 0 {
				_, ok := idx.checkBalance()
				require.True(t, ok, "red-black properties violated at step %d", i)
			}
		}

		want := make([]int64, 0, len(live))
		for k := range live {
			want = append(want, k)
		}
		if side == Buy {
			sort.Slice(want, func(i, j int) bool { return want[i] > want[j] })
		} else {
			sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		}

		got := indexTicks(idx)
		if len(want) == 0 {
			assert.Empty(t, got)
		} else {
			assert.Equal(t, want, got)
		}
		assert.Equal(t, len(want), idx.Len())
		_, ok := idx.checkBalance()
		assert.True(t, ok)
	}
}

func TestPriceIndexWalkStops(t *testing.T) {
	idx := NewPriceIndex(Buy)
	for _, p := range []int64{1, 2, 3} {
		idx.Upsert(NewPrice(p, 0))
	}
	n := 0
	idx.Walk(func(*PriceLevel) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
	assert.Len(t, idx.Levels(), 3)
}
