package models

import (
	"math"
	"net/netip"
	"time"
)

// ClientKey identifies a requester. All protection state is keyed by it.
type ClientKey string

func (k ClientKey) String() string {
	return string(k)
}

// NormalizeClientKey canonicalises address keys so "::ffff:10.0.0.1" and
// "10.0.0.1" name the same client. Anything that is not an address is kept
// verbatim.
func NormalizeClientKey(raw string) ClientKey {
	if addr, err := netip.ParseAddr(raw); err == nil {
		return ClientKey(addr.Unmap().String())
	}
	return ClientKey(raw)
}

// FailureKind distinguishes why a credential check failed.
type FailureKind string

const (
	FailureMissing FailureKind = "missing"
	FailureInvalid FailureKind = "invalid"
)

// BlockEntry is a temporary, explicitly bounded denial of a client.
type BlockEntry struct {
	Client    ClientKey `json:"ip"`
	Reason    string    `json:"reason"`
	BlockedAt time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsActive reports whether the block still applies at now.
func (b *BlockEntry) IsActive(now time.Time) bool {
	return now.Before(b.ExpiresAt)
}

// RemainingSeconds is the time left on the block, rounded to the nearest
// second and never reported as zero while the block is active.
func (b *BlockEntry) RemainingSeconds(now time.Time) int {
	if !b.IsActive(now) {
		return 0
	}
	secs := int(math.Round(b.ExpiresAt.Sub(now).Seconds()))
	return max(secs, 1)
}

// RateWindow is one fixed window of a client's quota.
type RateWindow struct {
	Client   ClientKey
	Limit    int
	Consumed int
	// Overflow counts points refused inside the window. Escalation reads it;
	// Remaining does not.
	Overflow int
	ResetAt  time.Time
}

// Remaining returns the points still available in the window.
func (w *RateWindow) Remaining() int {
	return max(w.Limit-w.Consumed, 0)
}

// Attempted is every point requested in the window, admitted or not.
func (w *RateWindow) Attempted() int {
	return w.Consumed + w.Overflow
}

// FailureCount tracks consecutive credential failures for a client.
type FailureCount struct {
	Client          ClientKey
	Count           int
	LastKind        FailureKind
	WindowExpiresAt time.Time
}

// RateLimitResult is the outcome of consuming points from a window.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the whole seconds until ResetAt, rounded up.
	RetryAfter int
	// Escalated is set when this rejection pushed the client into a block.
	Escalated bool
}

// SecondsUntil rounds the gap between now and t up to whole seconds.
func SecondsUntil(now, t time.Time) int {
	if !t.After(now) {
		return 0
	}
	return int(math.Ceil(t.Sub(now).Seconds()))
}
