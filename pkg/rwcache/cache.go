// Package rwcache provides a keyed store guarded by one reader-writer lock.
//
// Any number of Read calls run concurrently; a Write excludes all other
// reads and writes on the same cache. Values are stored and returned by
// value under the lock, so a reader sees a stored value either entirely
// before or entirely after a write, never a mix of fields.
//
// The cache relies on sync.RWMutex's writer preference: once a writer is
// blocked in Lock, new readers queue behind it, so a steady stream of
// readers cannot starve writers.
package rwcache

import (
	"sync"

	"github.com/yndnr/synckit-go/pkg/counter"
)

// Operation names reported to an Observer.
const (
	OpHit    = "hit"
	OpMiss   = "miss"
	OpWrite  = "write"
	OpDelete = "delete"
)

// Observer is notified of each cache operation after the lock is released.
type Observer interface {
	ObserveCacheOp(op string)
}

// Cache maps keys to values under a reader-writer lock.
type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V

	observer Observer

	hits   counter.Counter
	misses counter.Counter
	writes counter.Counter
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	capacityHint int
	observer     Observer
}

// WithCapacityHint pre-sizes the underlying map.
func WithCapacityHint(n int) Option {
	return func(o *options) {
		o.capacityHint = n
	}
}

// WithObserver registers an observer for cache operations.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New creates an empty cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacityHint < 0 {
		o.capacityHint = 0
	}
	return &Cache[K, V]{
		items:    make(map[K]V, o.capacityHint),
		observer: o.observer,
	}
}

// Read returns the value stored under key.
func (c *Cache[K, V]) Read(key K) (V, bool) {
	c.mu.RLock()
	val, ok := c.items[key]
	c.mu.RUnlock()

	if ok {
		c.hits.Increment()
		c.notify(OpHit)
	} else {
		c.misses.Increment()
		c.notify(OpMiss)
	}
	return val, ok
}

// Write stores value under key, replacing any previous value.
func (c *Cache[K, V]) Write(key K, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()

	c.writes.Increment()
	c.notify(OpWrite)
}

// WriteFunc replaces the value under key with fn(current, exists) while
// holding the write lock. fn must not call back into the cache.
func (c *Cache[K, V]) WriteFunc(key K, fn func(current V, exists bool) V) V {
	next := c.writeFunc(key, fn)
	c.writes.Increment()
	c.notify(OpWrite)
	return next
}

func (c *Cache[K, V]) writeFunc(key K, fn func(current V, exists bool) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, exists := c.items[key]
	next := fn(current, exists)
	c.items[key] = next
	return next
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	_, ok := c.items[key]
	delete(c.items, key)
	c.mu.Unlock()

	if ok {
		c.notify(OpDelete)
	}
	return ok
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Keys returns the current keys in no particular order.
func (c *Cache[K, V]) Keys() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]K, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	return keys
}

// Snapshot returns a copy of all entries taken under a single read lock.
func (c *Cache[K, V]) Snapshot() map[K]V {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[K]V, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

// Stats reports cache activity.
type Stats struct {
	Hits   int64
	Misses int64
	Writes int64
}

// HitRatio returns Hits / (Hits + Misses), or 0 when nothing was read.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns activity counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Read(),
		Misses: c.misses.Read(),
		Writes: c.writes.Read(),
	}
}

func (c *Cache[K, V]) notify(op string) {
	if c.observer != nil {
		c.observer.ObserveCacheOp(op)
	}
}
