package clock

import (
	"sync"
	"time"
)

// Clock issues last-write-wins timestamps in milliseconds since epoch
type Clock interface {
	NowMillis() int64
}

// Monotonic never returns a value less than or equal to one it already
// returned, even when two mutations land in the same millisecond or the wall
// clock steps backwards.
type Monotonic struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

// NewMonotonicFrom uses now as the wall clock source (tests, replays)
func NewMonotonicFrom(now func() time.Time) *Monotonic {
	return &Monotonic{now: now}
}

func (c *Monotonic) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}
