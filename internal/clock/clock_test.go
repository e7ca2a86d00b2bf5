package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonotonic_StrictlyIncreasingOnFrozenClock(t *testing.T) {
	frozen := time.UnixMilli(1_700_000_000_000)
	c := NewMonotonicFrom(func() time.Time { return frozen })

	first := c.NowMillis()
	second := c.NowMillis()
	third := c.NowMillis()

	assert.Equal(t, frozen.UnixMilli(), first)
	assert.Equal(t, first+1, second)
	assert.Equal(t, second+1, third)
}

func TestMonotonic_WallClockStepsBack(t *testing.T) {
	now := time.UnixMilli(2_000)
	c := NewMonotonicFrom(func() time.Time { return now })

	a := c.NowMillis()
	now = time.UnixMilli(1_000)
	b := c.NowMillis()

	assert.Greater(t, b, a)
}

func TestMonotonic_ConcurrentCallersGetUniqueValues(t *testing.T) {
	c := NewMonotonic()
	const n = 200

	var mu sync.Mutex
	seen := make(map[int64]struct{}, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := c.NowMillis()
			mu.Lock()
			seen[v] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
}
