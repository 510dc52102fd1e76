// Package blocklist holds the temporary client blocks imposed by escalation
// and by operators.
package blocklist

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
	"edgeguard/internal/protection/store/expiring"
	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/requestcontext"
)

// MessageLayout renders the block expiry in 403 bodies.
const MessageLayout = "2006-01-02T15:04:05.000Z"

const defaultReason = "Manual block"

type Store interface {
	Set(ctx context.Context, key string, value models.BlockEntry, ttl time.Duration)
	Get(ctx context.Context, key string) (models.BlockEntry, bool)
	Delete(ctx context.Context, key string) bool
	Snapshot(ctx context.Context) []expiring.Item[models.BlockEntry]
}

// FailureCounts is the credential failure store a block resets.
type FailureCounts interface {
	Delete(ctx context.Context, key string) bool
}

type Metrics interface {
	IncrementBlocks(source string)
}

type Service struct {
	store    Store
	failures FailureCounts
	logger   *slog.Logger
	metrics  Metrics
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

// WithFailureCounts clears a client's credential failures whenever it is
// blocked, whatever the block's source.
func WithFailureCounts(f FailureCounts) Option {
	return func(s *Service) {
		s.failures = f
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("block store is required")
	}
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Block denies client for duration. Re-blocking an already blocked client
// replaces the entry, so the latest expiry wins. A successful block also
// clears the client's failure count. source labels the block in
// metrics (manual, auth_failure, rate_escalation).
func (s *Service) Block(ctx context.Context, client models.ClientKey, duration time.Duration, reason, source string) (*models.BlockEntry, error) {
	if client == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "client key is required")
	}
	if duration <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "block duration must be positive")
	}
	if reason == "" {
		reason = defaultReason
	}

	now := requestcontext.Now(ctx)
	entry := models.BlockEntry{
		Client:    client,
		Reason:    reason,
		BlockedAt: now,
		ExpiresAt: now.Add(duration),
	}
	s.store.Set(ctx, client.String(), entry, duration)
	if s.failures != nil {
		s.failures.Delete(ctx, client.String())
	}

	if s.metrics != nil {
		s.metrics.IncrementBlocks(source)
	}
	observability.LogAudit(ctx, s.logger, "client_blocked",
		"ip", client.String(),
		"reason", reason,
		"source", source,
		"expires_at", entry.ExpiresAt,
	)
	return &entry, nil
}

// IsBlocked returns the active block for client, if any.
func (s *Service) IsBlocked(ctx context.Context, client models.ClientKey) (*models.BlockEntry, bool) {
	entry, ok := s.store.Get(ctx, client.String())
	if !ok {
		return nil, false
	}
	return &entry, true
}

// Unblock lifts client's block and reports whether one was active.
func (s *Service) Unblock(ctx context.Context, client models.ClientKey) bool {
	removed := s.store.Delete(ctx, client.String())
	if removed {
		observability.LogAudit(ctx, s.logger, "client_unblocked", "ip", client.String())
	}
	return removed
}

// List returns the active blocks, soonest to expire first.
func (s *Service) List(ctx context.Context) []*models.BlockEntry {
	items := s.store.Snapshot(ctx)
	out := make([]*models.BlockEntry, 0, len(items))
	for _, item := range items {
		entry := item.Value
		out = append(out, &entry)
	}
	return out
}

// Message renders the 403 message for an active block.
func Message(entry *models.BlockEntry) string {
	return "IP blocked until " + entry.ExpiresAt.UTC().Format(MessageLayout)
}
