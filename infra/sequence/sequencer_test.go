package sequence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencerMonotonic(t *testing.T) {
	s := New(0)
	assert.Equal(t, uint64(0), s.Current())

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		n := s.Next()
		require.Greater(t, n, prev)
		prev = n
	}
	assert.Equal(t, uint64(100), s.Current())
}

func TestSequencerStartAndReset(t *testing.T) {
	s := New(41)
	assert.Equal(t, uint64(42), s.Next())

	s.Reset(7)
	assert.Equal(t, uint64(7), s.Current())
	assert.Equal(t, uint64(8), s.Next())
}

func TestSequencerConcurrentUnique(t *testing.T) {
	s := New(0)
	const workers, per = 8, 500

	var (
		mu   sync.Mutex
		seen = make(map[uint64]struct{}, workers*per)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]uint64, 0, per)
			for i := 0; i < per; i++ {
				local = append(local, s.Next())
			}
			mu.Lock()
			for _, v := range local {
				seen[v] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*per)
}
