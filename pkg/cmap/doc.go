// Package cmap provides a concurrent map partitioned into independently
// locked shards.
//
// Keys are routed to a shard by their murmur3 hash, so operations on keys in
// different shards never contend. Every single-key operation runs under its
// shard's lock and is linearizable; operations spanning shards (Count, Range,
// Clear) lock shards one at a time and are not a consistent snapshot.
//
// Usage:
//
//	m := cmap.New[string, *Job](cmap.WithShardCount(32))
//	if !m.TryInsert("job-1", job) {
//		// another writer got there first
//	}
//	j, ok := m.TryGet("job-1")
//
// Thread Safety:
//
// Read operations (TryGet, Get, Has) use RLock, write operations
// (TryInsert, Set, Delete, Update) use Lock.
package cmap
