// Package globalthrottle caps the request rate of the whole instance. The
// pipeline consults it once allowlist, exclusion and block checks have passed.
package globalthrottle

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"edgeguard/internal/protection/config"
	"edgeguard/internal/protection/observability"
	"edgeguard/pkg/requestcontext"
)

type Service struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New builds the throttle. A non-positive rate disables it: Allow always
// admits. A zero burst defaults to one second's worth of requests.
func New(cfg config.GlobalLimit, opts ...Option) *Service {
	svc := &Service{}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = max(int(cfg.RequestsPerSecond), 1)
		}
		svc.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Enabled reports whether a rate was configured.
func (s *Service) Enabled() bool {
	return s.limiter != nil
}

// Allow takes one token at the request's time.
func (s *Service) Allow(ctx context.Context) bool {
	if s.limiter == nil {
		return true
	}
	if s.limiter.AllowN(requestcontext.Now(ctx), 1) {
		return true
	}
	observability.LogAudit(ctx, s.logger, "global_throttle_triggered",
		"limit_rps", float64(s.limiter.Limit()),
		"burst", s.limiter.Burst(),
	)
	return false
}
