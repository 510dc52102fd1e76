// Package authlockout counts failed credential checks per client and blocks
// clients that keep failing.
package authlockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edgeguard/internal/protection/config"
	"edgeguard/internal/protection/metrics"
	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
	"edgeguard/internal/protection/store/expiring"
	platformsync "edgeguard/pkg/platform/sync"
)

type Store interface {
	Get(ctx context.Context, key string) (models.FailureCount, bool)
	Update(ctx context.Context, key string, fn expiring.Mutator[models.FailureCount]) (models.FailureCount, time.Time, bool)
	Delete(ctx context.Context, key string) bool
}

type Blocker interface {
	Block(ctx context.Context, client models.ClientKey, duration time.Duration, reason, source string) (*models.BlockEntry, error)
}

type Metrics interface {
	IncrementAuthFailures(kind string)
}

type Service struct {
	store   Store
	blocker Blocker
	locks   *platformsync.ShardedMutex
	logger  *slog.Logger
	metrics Metrics
	config  *config.AuthLockoutConfig
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithConfig(cfg *config.AuthLockoutConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func New(store Store, blocker Blocker, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("auth lockout store is required")
	}
	if blocker == nil {
		return nil, fmt.Errorf("blocker is required")
	}

	defaultCfg := config.DefaultConfig().AuthLockout
	svc := &Service{
		store:   store,
		blocker: blocker,
		locks:   platformsync.NewShardedMutex(),
		config:  &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecordFailure counts one failed credential check. Every failure pushes the
// counter's expiry out by the failure window. On reaching the threshold the
// client is blocked and its counter cleared; escalated reports that.
//
// The count, the block and the clear run under the client's lock so two
// racing failures cannot both observe the threshold.
func (s *Service) RecordFailure(ctx context.Context, client models.ClientKey, kind models.FailureKind) (bool, error) {
	key := client.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	window := s.config.FailureWindow
	current, _, _ := s.store.Update(ctx, key, func(now time.Time, fc models.FailureCount, _ time.Time, ok bool) (models.FailureCount, time.Time, bool) {
		if !ok {
			fc = models.FailureCount{Client: client}
		}
		fc.Count++
		fc.LastKind = kind
		fc.WindowExpiresAt = now.Add(window)
		return fc, fc.WindowExpiresAt, true
	})

	if s.metrics != nil {
		s.metrics.IncrementAuthFailures(string(kind))
	}
	if current.Count < s.config.MaxFailedAttempts {
		return false, nil
	}

	reason := fmt.Sprintf("Too many %s API key attempts", kind)
	if _, err := s.blocker.Block(ctx, client, s.config.BlockDuration, reason, metrics.SourceAuthFailure); err != nil {
		return false, err
	}
	s.store.Delete(ctx, key)

	observability.LogAudit(ctx, s.logger, "auth_lockout_triggered",
		"ip", key,
		"failures", current.Count,
		"kind", string(kind),
	)
	return true, nil
}

// RecordSuccess clears client's failure counter.
func (s *Service) RecordSuccess(ctx context.Context, client models.ClientKey) {
	key := client.String()
	s.locks.Lock(key)
	defer s.locks.Unlock(key)
	s.store.Delete(ctx, key)
}

// Failures returns client's live failure count.
func (s *Service) Failures(ctx context.Context, client models.ClientKey) int {
	fc, ok := s.store.Get(ctx, client.String())
	if !ok {
		return 0
	}
	return fc.Count
}
