package testutil

import (
	"context"
	"sync"
	"time"

	"edgeguard/pkg/requestcontext"
)

// Epoch is a fixed instant tests start their clocks from.
var Epoch = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// Clock is a manually advanced clock that hands out request contexts pinned
// to its current time.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock set to start, or to Epoch when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = Epoch
	}
	return &Clock{now: start}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Context returns a background context pinned to the clock's current time.
func (c *Clock) Context() context.Context {
	return c.Bind(context.Background())
}

// Bind pins ctx to the clock's current time.
func (c *Clock) Bind(ctx context.Context) context.Context {
	return requestcontext.WithTime(ctx, c.Now())
}
