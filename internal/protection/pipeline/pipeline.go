// Package pipeline decides, per request, whether a client is admitted.
//
// Stages run in a fixed order and the first rejecting stage wins:
//
//  1. allowlist: an allowlisted client skips every other stage
//  2. exclusion: an excluded path skips every other stage
//  3. block: an actively blocked client is refused before its quota is charged
//  4. throttle: the instance-wide rate sheds load once it is spent
//  5. rate: the request is charged against the client's window
//  6. credential: the presented API key is checked
//  7. tracker: a credential failure is counted and may block the client
//
// The pipeline produces a Decision only. Rendering it as an HTTP response is
// the middleware's job.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"edgeguard/internal/protection/metrics"
	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
)

const tracerName = "edgeguard/protection"

// Request is what the pipeline needs to know about one HTTP request.
type Request struct {
	Client     models.ClientKey
	Path       string
	Credential string
	// Points charged against the quota. Zero means one.
	Points int
}

type Pipeline struct {
	allowlist  Allowlist
	blocks     BlockRegistry
	limiter    RateLimiter
	validator  CredentialValidator
	tracker    FailureTracker
	throttle   Throttle
	exclusions *Exclusions
	tracer     trace.Tracer
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithExclusions(e *Exclusions) Option {
	return func(p *Pipeline) {
		p.exclusions = e
	}
}

// WithThrottle adds the instance-wide throttle stage.
func WithThrottle(t Throttle) Option {
	return func(p *Pipeline) {
		p.throttle = t
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

func New(allowlist Allowlist, blocks BlockRegistry, limiter RateLimiter, validator CredentialValidator, tracker FailureTracker, opts ...Option) (*Pipeline, error) {
	switch {
	case allowlist == nil:
		return nil, errors.New("allowlist is required")
	case blocks == nil:
		return nil, errors.New("block registry is required")
	case limiter == nil:
		return nil, errors.New("rate limiter is required")
	case validator == nil:
		return nil, errors.New("credential validator is required")
	case tracker == nil:
		return nil, errors.New("failure tracker is required")
	}

	p := &Pipeline{
		allowlist: allowlist,
		blocks:    blocks,
		limiter:   limiter,
		validator: validator,
		tracker:   tracker,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Evaluate runs every stage for req and returns the verdict. An error means
// a stage failed internally, not that the request was refused.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) (*models.Decision, error) {
	ctx, span := p.tracer.Start(ctx, "protection.evaluate",
		trace.WithAttributes(attribute.String("url.path", req.Path)))
	defer span.End()

	decision, err := p.evaluate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("protection.verdict", string(decision.Verdict)),
		attribute.Bool("protection.escalated", decision.Escalated),
	)
	if p.metrics != nil {
		p.metrics.IncrementDecision(string(decision.Verdict))
	}
	return decision, nil
}

func (p *Pipeline) evaluate(ctx context.Context, req Request) (*models.Decision, error) {
	client := req.Client
	decision := &models.Decision{Client: client}

	if p.allowlist.IsAllowlisted(ctx, client) {
		decision.Verdict = models.VerdictAllowlisted
		return decision, nil
	}
	if p.exclusions.Match(req.Path) {
		decision.Verdict = models.VerdictExcluded
		return decision, nil
	}

	if block, blocked := p.blocks.IsBlocked(ctx, client); blocked {
		decision.Verdict = models.VerdictBlocked
		decision.Block = block
		return decision, nil
	}

	if p.throttle != nil && !p.throttle.Allow(ctx) {
		decision.Verdict = models.VerdictOverloaded
		return decision, nil
	}

	points := max(req.Points, 1)
	result, err := p.limiter.Consume(ctx, client, req.Path, points)
	if err != nil {
		return nil, fmt.Errorf("consume rate limit: %w", err)
	}
	decision.RateLimit = result
	if !result.Allowed {
		decision.Verdict = models.VerdictRateLimited
		decision.Escalated = result.Escalated
		return decision, nil
	}

	var kind models.FailureKind
	switch err := p.validator.Validate(req.Credential); {
	case err == nil:
		p.tracker.RecordSuccess(ctx, client)
		decision.Verdict = models.VerdictAdmit
		return decision, nil
	case errors.Is(err, models.ErrMissingCredential):
		kind = models.FailureMissing
		decision.Verdict = models.VerdictMissingCredential
	case errors.Is(err, models.ErrInvalidCredential):
		kind = models.FailureInvalid
		decision.Verdict = models.VerdictInvalidCredential
	default:
		return nil, fmt.Errorf("validate credential: %w", err)
	}

	if p.logger != nil {
		p.logger.WarnContext(ctx, "credential rejected",
			observability.ClientAttr(client.String()),
			"kind", string(kind),
			"path", req.Path,
		)
	}
	escalated, err := p.tracker.RecordFailure(ctx, client, kind)
	if err != nil {
		return nil, fmt.Errorf("record credential failure: %w", err)
	}
	decision.Escalated = escalated
	return decision, nil
}
