// Package expiring provides a bounded, sharded key/value store whose entries
// carry an absolute expiry.
//
// Each shard pairs a map with a min-heap ordered by expiry, so the sweep and
// capacity eviction pop the soonest-to-expire entry in O(log n). Reads apply
// expiry lazily: an entry past its expiry is never returned, whether or not
// the sweep has reached it. All operations on one key run under that key's
// shard lock; keys in different shards never contend.
package expiring

import (
	"container/heap"
	"context"
	"slices"
	"sync"
	"time"

	platformsync "edgeguard/pkg/platform/sync"
	"edgeguard/pkg/requestcontext"
)

// EvictReason labels why an entry left the store without an explicit delete.
type EvictReason string

const (
	EvictExpired  EvictReason = "expired"
	EvictCapacity EvictReason = "capacity"
)

// DefaultMaxKeys is used when no capacity is configured.
const DefaultMaxKeys = 10000

// Item is a live entry returned by Snapshot.
type Item[V any] struct {
	Key       string
	Value     V
	ExpiresAt time.Time
}

type shard[V any] struct {
	mu     sync.Mutex
	items  map[string]*entry[V]
	expiry expiryHeap[V]
}

// Store is an expiring key/value store. The zero value is not usable; call New.
type Store[V any] struct {
	shards   []*shard[V]
	shardCap int
	onEvict  func(EvictReason)
}

type settings struct {
	maxKeys int
	shards  int
	onEvict func(EvictReason)
}

// Option configures a Store.
type Option func(*settings)

// WithMaxKeys bounds the number of live keys. Capacity is split evenly
// across shards, so the bound is enforced per shard.
func WithMaxKeys(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxKeys = n
		}
	}
}

// WithShards overrides the shard count. Defaults to platformsync.ShardCount.
func WithShards(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.shards = n
		}
	}
}

// WithEvictionHook is called, under the shard lock, for every expired or
// capacity eviction. It must not call back into the store.
func WithEvictionHook(fn func(EvictReason)) Option {
	return func(s *settings) {
		s.onEvict = fn
	}
}

// New creates an empty store.
func New[V any](opts ...Option) *Store[V] {
	cfg := settings{maxKeys: DefaultMaxKeys, shards: platformsync.ShardCount}
	for _, opt := range opts {
		opt(&cfg)
	}
	// Never run more shards than keys, or a tiny capacity would round up to
	// one slot per shard.
	cfg.shards = min(cfg.shards, cfg.maxKeys)

	s := &Store[V]{
		shards:   make([]*shard[V], cfg.shards),
		shardCap: (cfg.maxKeys + cfg.shards - 1) / cfg.shards,
		onEvict:  cfg.onEvict,
	}
	for i := range s.shards {
		s.shards[i] = &shard[V]{items: make(map[string]*entry[V])}
	}
	return s
}

func (s *Store[V]) shardFor(key string) *shard[V] {
	return s.shards[platformsync.ShardFor(key, len(s.shards))]
}

// Set inserts or overwrites key with an expiry of now+ttl. A non-positive
// ttl removes the key instead, since an entry must expire in the future.
func (s *Store[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	now := requestcontext.Now(ctx)
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if ttl <= 0 {
		sh.remove(key)
		return
	}
	s.put(sh, now, key, value, now.Add(ttl))
}

// Get returns the live value for key.
func (s *Store[V]) Get(ctx context.Context, key string) (V, bool) {
	now := requestcontext.Now(ctx)
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.live(sh, now, key)
	if e == nil {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes key and reports whether a live entry was removed.
func (s *Store[V]) Delete(ctx context.Context, key string) bool {
	now := requestcontext.Now(ctx)
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	if s.live(sh, now, key) == nil {
		return false
	}
	sh.remove(key)
	return true
}

// RemainingTTL returns the time until key expires.
func (s *Store[V]) RemainingTTL(ctx context.Context, key string) (time.Duration, bool) {
	now := requestcontext.Now(ctx)
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	e := s.live(sh, now, key)
	if e == nil {
		return 0, false
	}
	return e.expiresAt.Sub(now), true
}

// Mutator computes the next state of a key from its current live state.
// ok is false when the key is absent or expired. Returning keep=false, or
// an expiresAt not after now, deletes the key.
type Mutator[V any] func(now time.Time, current V, expiresAt time.Time, ok bool) (next V, nextExpiresAt time.Time, keep bool)

// Update runs fn atomically with respect to every other operation on key
// and returns the state it left behind.
func (s *Store[V]) Update(ctx context.Context, key string, fn Mutator[V]) (V, time.Time, bool) {
	now := requestcontext.Now(ctx)
	sh := s.shardFor(key)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	var current V
	var expiresAt time.Time
	e := s.live(sh, now, key)
	if e != nil {
		current, expiresAt = e.value, e.expiresAt
	}

	next, nextExpiresAt, keep := fn(now, current, expiresAt, e != nil)
	if !keep || !nextExpiresAt.After(now) {
		sh.remove(key)
		var zero V
		return zero, time.Time{}, false
	}
	s.put(sh, now, key, next, nextExpiresAt)
	return next, nextExpiresAt, true
}

// Snapshot returns every live entry ordered by expiry.
func (s *Store[V]) Snapshot(ctx context.Context) []Item[V] {
	now := requestcontext.Now(ctx)
	var items []Item[V]
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.items {
			if e.expiresAt.After(now) {
				items = append(items, Item[V]{Key: e.key, Value: e.value, ExpiresAt: e.expiresAt})
			}
		}
		sh.mu.Unlock()
	}
	slices.SortFunc(items, func(a, b Item[V]) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})
	return items
}

// Sweep evicts expired entries shard by shard, at most batch per shard
// (batch <= 0 means unbounded). It holds one shard lock at a time and stops
// early when ctx is done.
func (s *Store[V]) Sweep(ctx context.Context, batch int) int {
	now := requestcontext.Now(ctx)
	evicted := 0
	for _, sh := range s.shards {
		if ctx.Err() != nil {
			return evicted
		}
		sh.mu.Lock()
		evicted += s.evictExpired(sh, now, batch)
		sh.mu.Unlock()
	}
	return evicted
}

// Len returns the number of stored entries, including expired entries the
// sweep has not reached yet.
func (s *Store[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.items)
		sh.mu.Unlock()
	}
	return n
}

// live returns the entry for key if it has not expired, evicting it otherwise.
// Caller holds sh.mu.
func (s *Store[V]) live(sh *shard[V], now time.Time, key string) *entry[V] {
	e, ok := sh.items[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.After(now) {
		sh.remove(key)
		s.evicted(EvictExpired)
		return nil
	}
	return e
}

// put stores value under key, making room first when the shard is full.
// Caller holds sh.mu.
func (s *Store[V]) put(sh *shard[V], now time.Time, key string, value V, expiresAt time.Time) {
	if e, ok := sh.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		heap.Fix(&sh.expiry, e.index)
		return
	}

	if len(sh.items) >= s.shardCap {
		s.evictExpired(sh, now, 0)
	}
	for len(sh.items) >= s.shardCap {
		victim := heap.Pop(&sh.expiry).(*entry[V])
		delete(sh.items, victim.key)
		s.evicted(EvictCapacity)
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	heap.Push(&sh.expiry, e)
	sh.items[key] = e
}

// evictExpired pops expired entries off the heap. Caller holds sh.mu.
func (s *Store[V]) evictExpired(sh *shard[V], now time.Time, batch int) int {
	n := 0
	for {
		if batch > 0 && n >= batch {
			return n
		}
		top := sh.expiry.peek()
		if top == nil || top.expiresAt.After(now) {
			return n
		}
		heap.Pop(&sh.expiry)
		delete(sh.items, top.key)
		s.evicted(EvictExpired)
		n++
	}
}

func (s *Store[V]) evicted(reason EvictReason) {
	if s.onEvict != nil {
		s.onEvict(reason)
	}
}

// remove deletes key from the map and the heap. Caller holds sh.mu.
func (sh *shard[V]) remove(key string) {
	e, ok := sh.items[key]
	if !ok {
		return
	}
	heap.Remove(&sh.expiry, e.index)
	delete(sh.items, key)
}
