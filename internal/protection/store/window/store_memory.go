// Package window keeps fixed-window request quotas per client.
package window

import (
	"context"
	"time"

	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/store/expiring"
)

// InMemoryWindowStore counts points per key in fixed windows. A window opens
// on the first consume after the previous one expired and closes at ResetAt;
// the entry's expiry is ResetAt, so an expired window is never read back.
type InMemoryWindowStore struct {
	windows *expiring.Store[models.RateWindow]
}

// New creates a window store backed by an expiring store.
func New(opts ...expiring.Option) *InMemoryWindowStore {
	return &InMemoryWindowStore{windows: expiring.New[models.RateWindow](opts...)}
}

// Consume charges points against key's current window. Points that do not fit
// are refused and counted as overflow, never partially admitted.
func (s *InMemoryWindowStore) Consume(ctx context.Context, key string, client models.ClientKey, limit int, window time.Duration, points int) (models.RateWindow, bool) {
	var allowed bool
	state, _, _ := s.windows.Update(ctx, key, func(now time.Time, current models.RateWindow, _ time.Time, ok bool) (models.RateWindow, time.Time, bool) {
		if !ok {
			current = models.RateWindow{Client: client, Limit: limit, ResetAt: now.Add(window)}
		}
		if current.Consumed+points <= current.Limit {
			current.Consumed += points
			allowed = true
		} else {
			current.Overflow += points
		}
		return current, current.ResetAt, true
	})
	return state, allowed
}

// Get returns key's live window, if any.
func (s *InMemoryWindowStore) Get(ctx context.Context, key string) (models.RateWindow, bool) {
	return s.windows.Get(ctx, key)
}

// Reset drops key's window so the next consume opens a fresh one.
func (s *InMemoryWindowStore) Reset(ctx context.Context, key string) bool {
	return s.windows.Delete(ctx, key)
}

// Sweep evicts closed windows, at most batch per shard.
func (s *InMemoryWindowStore) Sweep(ctx context.Context, batch int) int {
	return s.windows.Sweep(ctx, batch)
}

// Len counts stored windows.
func (s *InMemoryWindowStore) Len() int {
	return s.windows.Len()
}
