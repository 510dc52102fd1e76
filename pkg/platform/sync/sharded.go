package sync

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// ShardCount is the number of lock shards used by ShardedMutex and by
// stores that partition their keyspace the same way.
const ShardCount = 32

// ShardedMutex provides fine-grained locking using sharded mutexes.
// Instead of a single global lock, operations are distributed across N shards
// based on a hash of the client key, so distinct clients rarely contend.
type ShardedMutex struct {
	shards [ShardCount]sync.Mutex
}

// NewShardedMutex creates a new ShardedMutex with 32 shards.
func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Lock(key string) {
	m.shards[ShardFor(key, ShardCount)].Lock()
}

// Unlock releases the lock for the given key's shard.
// Empty keys default to shard 0.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[ShardFor(key, ShardCount)].Unlock()
}

// ShardFor maps key onto one of n shards. Empty keys and n <= 1 map to 0.
func ShardFor(key string, n int) int {
	if key == "" || n <= 1 {
		return 0
	}
	return int(xxhash.Sum64String(key) % uint64(n))
}
