package cmap

import (
	"encoding/binary"
	"hash/maphash"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultShardCount is the default number of shards.
const DefaultShardCount = 16

// InsertObserver is notified of each TryInsert outcome.
// It is called after the shard lock has been released.
type InsertObserver interface {
	ObserveInsert(accepted bool)
}

// Map is a concurrent-safe sharded map.
type Map[K comparable, V any] struct {
	shards    []*shard[K, V]
	shardMask uint64
	seed      maphash.Seed
	observer  InsertObserver
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

type options struct {
	shardCount int
	observer   InsertObserver
}

// Option configures a Map.
type Option func(*options)

// WithShardCount sets the number of shards. n must be a power of 2;
// other values fall back to DefaultShardCount.
func WithShardCount(n int) Option {
	return func(o *options) {
		o.shardCount = n
	}
}

// WithObserver registers an observer for TryInsert outcomes.
func WithObserver(obs InsertObserver) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// New creates a new sharded map.
func New[K comparable, V any](opts ...Option) *Map[K, V] {
	o := options{shardCount: DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	shardCount := o.shardCount
	if shardCount <= 0 || shardCount&(shardCount-1) != 0 {
		shardCount = DefaultShardCount
	}

	m := &Map[K, V]{
		shards:    make([]*shard[K, V], shardCount),
		shardMask: uint64(shardCount - 1),
		seed:      maphash.MakeSeed(),
		observer:  o.observer,
	}
	for i := 0; i < shardCount; i++ {
		m.shards[i] = &shard[K, V]{
			items: make(map[K]V),
		}
	}
	return m
}

// getShard returns the shard owning key.
func (m *Map[K, V]) getShard(key K) *shard[K, V] {
	return m.shards[m.hashKey(key)&m.shardMask]
}

// hashKey hashes strings and integers with murmur3. Every other key type
// goes through maphash.Comparable, which hashes keys that compare equal
// with == (0.0 and -0.0, a pointer whatever it points at) to the same value.
func (m *Map[K, V]) hashKey(key K) uint64 {
	var buf [8]byte
	switch k := any(key).(type) {
	case string:
		return murmur3.Sum64([]byte(k))
	case int:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int64:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case int32:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	case uint64:
		binary.LittleEndian.PutUint64(buf[:], k)
	case uint32:
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
	default:
		return maphash.Comparable(m.seed, key)
	}
	return murmur3.Sum64(buf[:])
}

// TryInsert stores value under key only if key is absent.
// It returns false, leaving the map unchanged, if the key already exists.
// Of several concurrent inserts of the same key exactly one returns true.
func (m *Map[K, V]) TryInsert(key K, value V) bool {
	accepted := m.insertIfAbsent(key, value)
	if m.observer != nil {
		m.observer.ObserveInsert(accepted)
	}
	return accepted
}

func (m *Map[K, V]) insertIfAbsent(key K, value V) bool {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if _, ok := shard.items[key]; ok {
		return false
	}
	shard.items[key] = value
	return true
}

// TryGet retrieves the value stored under key.
func (m *Map[K, V]) TryGet(key K) (V, bool) {
	shard := m.getShard(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	val, ok := shard.items[key]
	return val, ok
}

// Get is an alias of TryGet.
func (m *Map[K, V]) Get(key K) (V, bool) {
	return m.TryGet(key)
}

// Set stores a key-value pair, replacing any existing value.
func (m *Map[K, V]) Set(key K, value V) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.items[key] = value
}

// Delete removes a key.
func (m *Map[K, V]) Delete(key K) {
	shard := m.getShard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.items, key)
}

// Has checks if a key exists.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.TryGet(key)
	return ok
}

// Count returns the total number of items.
func (m *Map[K, V]) Count() int {
	count := 0
	for _, shard := range m.shards {
		shard.mu.RLock()
		count += len(shard.items)
		shard.mu.RUnlock()
	}
	return count
}

// Clear removes all items.
func (m *Map[K, V]) Clear() {
	for _, shard := range m.shards {
		shard.mu.Lock()
		shard.items = make(map[K]V)
		shard.mu.Unlock()
	}
}
