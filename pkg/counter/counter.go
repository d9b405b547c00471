// Package counter provides a lock-free integer counter.
package counter

import "sync/atomic"

// Counter is an int64 mutated only through atomic read-modify-write
// instructions. The zero value is ready to use and reads as 0.
//
// Overflow wraps using two's complement arithmetic: adding 1 to
// math.MaxInt64 yields math.MinInt64. No saturation is applied.
type Counter struct {
	v atomic.Int64
}

// New creates a counter holding initial.
func New(initial int64) *Counter {
	c := &Counter{}
	c.v.Store(initial)
	return c
}

// Increment adds one and returns the new value.
func (c *Counter) Increment() int64 {
	return c.v.Add(1)
}

// Decrement subtracts one and returns the new value.
func (c *Counter) Decrement() int64 {
	return c.v.Add(-1)
}

// Add adds delta and returns the new value.
func (c *Counter) Add(delta int64) int64 {
	return c.v.Add(delta)
}

// Read returns the current value.
func (c *Counter) Read() int64 {
	return c.v.Load()
}

// Reset sets the value to zero and returns the previous value.
func (c *Counter) Reset() int64 {
	return c.v.Swap(0)
}

// CompareAndSwap sets the value to new only if it currently equals old.
func (c *Counter) CompareAndSwap(old, new int64) bool {
	return c.v.CompareAndSwap(old, new)
}
