package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/observability"
	"edgeguard/internal/protection/pipeline"
	"edgeguard/internal/protection/service/blocklist"
	"edgeguard/internal/protection/stats"
	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/platform/httputil"
	"edgeguard/pkg/platform/middleware/metadata"
	"edgeguard/pkg/requestcontext"
)

// HeaderAPIKey carries the client credential.
const HeaderAPIKey = "X-Api-Key"

type Evaluator interface {
	Evaluate(ctx context.Context, req pipeline.Request) (*models.Decision, error)
}

type Middleware struct {
	evaluator Evaluator
	recorder  stats.Recorder
	logger    *slog.Logger
}

type Option func(*Middleware)

// WithRecorder sends every verdict to r.
func WithRecorder(r stats.Recorder) Option {
	return func(m *Middleware) {
		m.recorder = r
	}
}

func New(evaluator Evaluator, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		evaluator: evaluator,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Protect runs the protection pipeline and either renders the rejection or
// hands the request on. The client key must already be in the context (see
// metadata.Middleware).
func (m *Middleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		client := requestcontext.ClientIP(ctx)
		if client == "" {
			client = metadata.UnknownClient
		}

		decision, err := m.evaluator.Evaluate(ctx, pipeline.Request{
			Client:     models.ClientKey(client),
			Path:       r.URL.Path,
			Credential: r.Header.Get(HeaderAPIKey),
		})
		if err != nil {
			m.logger.ErrorContext(ctx, "protection pipeline failed",
				"error", err,
				"code", dErrors.CodeOf(err),
				observability.ClientAttr(client),
			)
			httputil.WriteJSON(w, http.StatusInternalServerError, &models.ErrorResponse{Error: "Internal Server Error"})
			return
		}
		m.record(ctx, r, decision)

		if decision.RateLimit != nil && decision.RateLimit.Allowed {
			addRateLimitHeaders(w, decision.RateLimit)
		}

		switch decision.Verdict {
		case models.VerdictBlocked:
			writeBlocked(w, requestcontext.Now(ctx), decision.Block)
		case models.VerdictRateLimited:
			writeRateLimited(w, decision.RateLimit)
		case models.VerdictOverloaded:
			writeServiceOverloaded(w)
		case models.VerdictMissingCredential, models.VerdictInvalidCredential:
			httputil.WriteError(w, decision.Err())
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (m *Middleware) record(ctx context.Context, r *http.Request, d *models.Decision) {
	if m.recorder == nil {
		return
	}
	err := m.recorder.Record(ctx, stats.Event{
		Client:  d.Client,
		Verdict: d.Verdict,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      requestcontext.Now(ctx),
	})
	if err != nil {
		m.logger.DebugContext(ctx, "failed to record verdict", "error", err)
	}
}

// addRateLimitHeaders sets the quota headers. X-RateLimit-Reset is the
// number of seconds until the window resets.
func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(result.RetryAfter))
}

func writeBlocked(w http.ResponseWriter, now time.Time, block *models.BlockEntry) {
	httputil.WriteJSON(w, http.StatusForbidden, &models.BlockedResponse{
		Error:            models.ErrorCodeBlocked,
		Message:          blocklist.Message(block),
		RemainingSeconds: block.RemainingSeconds(now),
	})
}

func writeRateLimited(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitedResponse{
		Error:      models.ErrorCodeRateLimited,
		Message:    models.MessageRateLimited,
		RetryAfter: result.RetryAfter,
	})
}

func writeServiceOverloaded(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "1")
	httputil.WriteJSON(w, http.StatusServiceUnavailable, &models.ServiceOverloadedResponse{
		Error:      models.ErrorCodeOverloaded,
		Message:    models.MessageOverloaded,
		RetryAfter: 1,
	})
}
