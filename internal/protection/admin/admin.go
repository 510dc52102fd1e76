// Package admin implements the operator actions on protection state:
// diagnostics, manual blocks and quota resets.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"edgeguard/internal/protection/config"
	"edgeguard/internal/protection/metrics"
	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/requestcontext"
)

type BlockRegistry interface {
	Block(ctx context.Context, client models.ClientKey, duration time.Duration, reason, source string) (*models.BlockEntry, error)
	Unblock(ctx context.Context, client models.ClientKey) bool
	List(ctx context.Context) []*models.BlockEntry
}

type RateLimiter interface {
	Reset(ctx context.Context, client models.ClientKey) bool
	Summary() models.RateLimiterSummary
}

type Allowlist interface {
	List() []models.ClientKey
}

type DecisionStats interface {
	Summary(ctx context.Context) (*models.DecisionSummary, error)
}

type Service struct {
	blocks         BlockRegistry
	limiter        RateLimiter
	allowlist      Allowlist
	decisions      DecisionStats
	logger         *slog.Logger
	manualDuration time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithManualBlockDuration sets the duration used when a block request names none.
func WithManualBlockDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.manualDuration = d
		}
	}
}

// WithDecisionStats adds recorded verdict counts to Stats.
func WithDecisionStats(d DecisionStats) Option {
	return func(s *Service) {
		s.decisions = d
	}
}

func New(blocks BlockRegistry, limiter RateLimiter, allowlist Allowlist, opts ...Option) (*Service, error) {
	if blocks == nil {
		return nil, errors.New("block registry is required")
	}
	if limiter == nil {
		return nil, errors.New("rate limiter is required")
	}
	if allowlist == nil {
		return nil, errors.New("allowlist is required")
	}

	svc := &Service{
		blocks:         blocks,
		limiter:        limiter,
		allowlist:      allowlist,
		manualDuration: config.DefaultConfig().Block.ManualDuration,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Stats returns the diagnostics snapshot.
func (s *Service) Stats(ctx context.Context) *models.SecurityStatsResponse {
	resp := &models.SecurityStatsResponse{
		BlockedIPs:  s.blocks.List(ctx),
		RateLimiter: s.limiter.Summary(),
		Allowlist:   s.allowlist.List(),
		GeneratedAt: requestcontext.Now(ctx).UTC(),
	}
	if s.decisions != nil {
		summary, err := s.decisions.Summary(ctx)
		switch {
		case err == nil:
			resp.Decisions = summary
		case s.logger != nil:
			s.logger.WarnContext(ctx, "failed to read decision stats", "error", err)
		}
	}
	return resp
}

// BlockClient imposes a manual block on behalf of actor.
func (s *Service) BlockClient(ctx context.Context, req *models.BlockRequest, actor string) (*models.BlockEntry, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid block request: %w", err)
	}

	client := models.NormalizeClientKey(req.IP)
	entry, err := s.blocks.Block(ctx, client, req.Duration(s.manualDuration), req.Reason, metrics.SourceManual)
	if err != nil {
		switch dErrors.CodeOf(err) {
		case dErrors.CodeInvalidInput, dErrors.CodeValidation:
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to block client")
	}
	observability.LogAudit(ctx, s.logger, "admin_block",
		"ip", client.String(),
		"actor", actor,
		"expires_at", entry.ExpiresAt,
	)
	return entry, nil
}

// UnblockClient lifts a block. Unblocking a client that is not blocked is
// a not-found error.
func (s *Service) UnblockClient(ctx context.Context, ip, actor string) error {
	req := models.ResetRequest{IP: ip}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid unblock request: %w", err)
	}

	client := models.NormalizeClientKey(req.IP)
	if !s.blocks.Unblock(ctx, client) {
		return dErrors.New(dErrors.CodeNotFound, "client is not blocked")
	}
	observability.LogAudit(ctx, s.logger, "admin_unblock", "ip", client.String(), "actor", actor)
	return nil
}

// ResetRateLimit drops the client's windows. It reports whether any window
// was open.
func (s *Service) ResetRateLimit(ctx context.Context, req *models.ResetRequest, actor string) (bool, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return false, fmt.Errorf("invalid reset request: %w", err)
	}

	client := models.NormalizeClientKey(req.IP)
	cleared := s.limiter.Reset(ctx, client)
	observability.LogAudit(ctx, s.logger, "admin_rate_limit_reset",
		"ip", client.String(),
		"actor", actor,
		"cleared", cleared,
	)
	return cleared, nil
}
