// Package ratelimit enforces fixed-window request quotas per client.
//
// Every request charges the layer-wide window. A request whose path falls
// under a configured route prefix charges that route's window instead, so
// expensive endpoints can carry a tighter quota without touching the rest.
//
// Usage:
//
//	svc, _ := ratelimit.New(windowStore, ratelimit.WithBlocker(blocks))
//	result, _ := svc.Consume(ctx, client, r.URL.Path, 1)
//	if !result.Allowed {
//	    // Return 429 with Retry-After: result.RetryAfter
//	}
//
// A client whose attempted points in one window exceed the capacity times
// the escalation multiplier is handed to the blocker.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"edgeguard/internal/protection/config"
	"edgeguard/internal/protection/metrics"
	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/requestcontext"
)

const (
	escalationReason = "Excessive rate limit violations"
	globalScope      = "global"
)

// WindowStore counts points in fixed windows.
type WindowStore interface {
	Consume(ctx context.Context, key string, client models.ClientKey, limit int, window time.Duration, points int) (models.RateWindow, bool)
	Reset(ctx context.Context, key string) bool
}

// Blocker imposes escalation blocks.
type Blocker interface {
	Block(ctx context.Context, client models.ClientKey, duration time.Duration, reason, source string) (*models.BlockEntry, error)
}

type Service struct {
	windows WindowStore
	blocker Blocker
	logger  *slog.Logger
	config  *config.RateLimitConfig
	routes  []config.RouteLimit
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBlocker enables escalation. Without a blocker, rejections never escalate.
func WithBlocker(b Blocker) Option {
	return func(s *Service) {
		s.blocker = b
	}
}

func WithConfig(cfg *config.RateLimitConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithRouteLimits sets per-prefix windows. The longest matching prefix wins.
func WithRouteLimits(routes []config.RouteLimit) Option {
	return func(s *Service) {
		s.routes = routes
	}
}

func New(windows WindowStore, opts ...Option) (*Service, error) {
	if windows == nil {
		return nil, errors.New("window store is required")
	}

	defaultCfg := config.DefaultConfig().RateLimit
	svc := &Service{
		windows: windows,
		config:  &defaultCfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Consume charges points for client's request to path.
func (s *Service) Consume(ctx context.Context, client models.ClientKey, path string, points int) (*models.RateLimitResult, error) {
	if points <= 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "points must be positive")
	}

	scope, limit, window := s.limitFor(path)
	state, allowed := s.windows.Consume(ctx, windowKey(scope, client), client, limit, window, points)

	now := requestcontext.Now(ctx)
	result := &models.RateLimitResult{
		Allowed:    allowed,
		Limit:      state.Limit,
		Remaining:  state.Remaining(),
		ResetAt:    state.ResetAt,
		RetryAfter: models.SecondsUntil(now, state.ResetAt),
	}
	if allowed {
		return result, nil
	}

	observability.LogAudit(ctx, s.logger, "rate_limit_exceeded",
		observability.ClientAttr(client.String()),
		"scope", scope,
		"attempted", state.Attempted(),
		"limit", state.Limit,
	)

	if s.shouldEscalate(state) {
		if _, err := s.blocker.Block(ctx, client, s.config.EscalationBlock, escalationReason, metrics.SourceRateEscalation); err != nil {
			return nil, err
		}
		result.Escalated = true
	}
	return result, nil
}

// Reset clears client's layer-wide and per-route windows. It reports whether
// any window was open.
func (s *Service) Reset(ctx context.Context, client models.ClientKey) bool {
	cleared := s.windows.Reset(ctx, windowKey(globalScope, client))
	for _, rl := range s.routes {
		if s.windows.Reset(ctx, windowKey(rl.Prefix, client)) {
			cleared = true
		}
	}
	if cleared {
		observability.LogAudit(ctx, s.logger, "rate_limit_reset", "ip", client.String())
	}
	return cleared
}

// Summary reports the layer-wide limiter configuration.
func (s *Service) Summary() models.RateLimiterSummary {
	return models.RateLimiterSummary{
		Points:   s.config.Points,
		Duration: int(s.config.Window / time.Second),
	}
}

func (s *Service) shouldEscalate(state models.RateWindow) bool {
	if s.blocker == nil || s.config.EscalationMultiplier <= 0 {
		return false
	}
	return state.Attempted() > state.Limit*s.config.EscalationMultiplier
}

func (s *Service) limitFor(path string) (scope string, limit int, window time.Duration) {
	scope, limit, window = globalScope, s.config.Points, s.config.Window
	matched := 0
	for _, rl := range s.routes {
		if strings.HasPrefix(path, rl.Prefix) && len(rl.Prefix) > matched {
			scope, limit, window = rl.Prefix, rl.Points, rl.Window
			matched = len(rl.Prefix)
		}
	}
	return scope, limit, window
}

func windowKey(scope string, client models.ClientKey) string {
	return "rl:" + scope + ":" + client.String()
}
