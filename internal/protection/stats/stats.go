// Package stats counts admission verdicts for dashboards. Counts are
// observability only; nothing reads them back into a decision.
package stats

import (
	"context"
	"maps"
	"sync"
	"time"

	"edgeguard/internal/protection/models"
)

// Event is one evaluated request.
type Event struct {
	Client  models.ClientKey
	Verdict models.Verdict
	Method  string
	Path    string
	At      time.Time
}

// Recorder accepts verdict events. Implementations are best-effort: a
// failing recorder must never affect the response.
type Recorder interface {
	Record(ctx context.Context, e Event) error
}

// Summary is a point-in-time view of recorded verdicts.
type Summary = models.DecisionSummary

// Sink records verdicts and reports what it has seen.
type Sink interface {
	Recorder
	Summary(ctx context.Context) (*Summary, error)
}

var (
	_ Sink = (*MemoryRecorder)(nil)
	_ Sink = (*RedisRecorder)(nil)
)

// MemoryRecorder keeps process-lifetime totals.
type MemoryRecorder struct {
	mu        sync.Mutex
	total     int64
	byVerdict map[string]int64
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{byVerdict: make(map[string]int64)}
}

func (m *MemoryRecorder) Record(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.byVerdict[string(e.Verdict)]++
	return nil
}

func (m *MemoryRecorder) Summary(context.Context) (*Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Summary{Total: m.total, ByVerdict: maps.Clone(m.byVerdict)}, nil
}
