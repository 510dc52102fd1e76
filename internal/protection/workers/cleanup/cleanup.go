package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"time"

	"edgeguard/internal/protection/metrics"
)

// BlocksStore names the store whose size feeds the blocked-clients gauge.
const BlocksStore = "blocks"

// Result contains the outcome of one sweep over every registered store.
type Result struct {
	Evicted   map[string]int // per store
	Remaining map[string]int
	Duration  time.Duration
}

// Sweeper is a store the worker can evict expired entries from.
type Sweeper interface {
	Sweep(ctx context.Context, batch int) int
	Len() int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithBatch bounds evictions per shard per sweep.
func WithBatch(batch int) Option {
	return func(s *Service) {
		s.batch = batch
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service periodically evicts expired protection state. Reads already apply
// expiry lazily; the sweep only reclaims memory held by idle clients.
type Service struct {
	stores   map[string]Sweeper
	logger   *slog.Logger
	interval time.Duration
	batch    int
	metrics  *metrics.Metrics
}

func New(stores map[string]Sweeper, opts ...Option) (*Service, error) {
	if len(stores) == 0 {
		return nil, errors.New("at least one store is required")
	}
	service := &Service{
		stores:   stores,
		logger:   slog.Default(),
		interval: 10 * time.Minute,
		batch:    1024,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Start runs the sweep every interval until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			res := s.RunOnce(ctx)
			s.logger.Info("protection_cleanup_completed",
				"evicted", res.Evicted,
				"remaining", res.Remaining,
				"duration_ms", res.Duration.Milliseconds(),
			)
		case <-ctx.Done():
			s.logger.Info("protection cleanup worker stopping", "reason", ctx.Err())
			return ctx.Err()
		}
	}
}

// RunOnce sweeps each store in name order and records the run.
func (s *Service) RunOnce(ctx context.Context) *Result {
	start := time.Now()
	res := &Result{
		Evicted:   make(map[string]int, len(s.stores)),
		Remaining: make(map[string]int, len(s.stores)),
	}

	for _, name := range slices.Sorted(maps.Keys(s.stores)) {
		store := s.stores[name]
		res.Evicted[name] = store.Sweep(ctx, s.batch)
		res.Remaining[name] = store.Len()
	}
	res.Duration = time.Since(start)

	if s.metrics != nil {
		status := "success"
		if ctx.Err() != nil {
			status = "cancelled"
		}
		s.metrics.IncrementCleanupRuns(status)
		s.metrics.ObserveCleanupDuration(res.Duration.Seconds())
		for name, n := range res.Evicted {
			s.metrics.AddCleanupEvicted(name, n)
		}
		if n, ok := res.Remaining[BlocksStore]; ok {
			s.metrics.SetBlockedClients(n)
		}
	}
	return res
}
