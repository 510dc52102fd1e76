package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"edgeguard/internal/protection/config"
	"edgeguard/internal/protection/credential"
	"edgeguard/internal/protection/models"
	"edgeguard/internal/protection/pipeline"
	"edgeguard/internal/protection/service/authlockout"
	"edgeguard/internal/protection/service/blocklist"
	"edgeguard/internal/protection/service/globalthrottle"
	"edgeguard/internal/protection/service/ratelimit"
	"edgeguard/internal/protection/stats"
	"edgeguard/internal/protection/store/allowlist"
	"edgeguard/internal/protection/store/expiring"
	"edgeguard/internal/protection/store/window"
	"edgeguard/pkg/requestcontext"
	"edgeguard/pkg/testutil"
)

const validKey = "test-api-key"

// =============================================================================
// Protection Middleware Test Suite
// =============================================================================
// Justification: These tests drive the real pipeline through HTTP and pin the
// exact status codes, bodies and headers clients depend on.

type ProtectionMiddlewareSuite struct {
	suite.Suite
	clock      *testutil.Clock
	logger     *slog.Logger
	blocks     *blocklist.Service
	recorder   *stats.MemoryRecorder
	middleware *Middleware
	handler    http.Handler
}

func TestProtectionMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(ProtectionMiddlewareSuite))
}

func (s *ProtectionMiddlewareSuite) SetupTest() {
	s.clock = testutil.NewClock(time.Time{})
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.recorder = stats.NewMemoryRecorder()

	cfg := config.DefaultConfig()
	cfg.RateLimit.Points = 3
	cfg.RateLimit.Window = time.Minute
	cfg.ExcludePathPrefixes = []string{"/public/"}

	var err error
	s.blocks, err = blocklist.New(expiring.New[models.BlockEntry](), blocklist.WithLogger(s.logger))
	s.Require().NoError(err)
	limiter, err := ratelimit.New(window.New(),
		ratelimit.WithBlocker(s.blocks),
		ratelimit.WithConfig(&cfg.RateLimit),
		ratelimit.WithLogger(s.logger))
	s.Require().NoError(err)
	tracker, err := authlockout.New(expiring.New[models.FailureCount](), s.blocks,
		authlockout.WithConfig(&cfg.AuthLockout),
		authlockout.WithLogger(s.logger))
	s.Require().NoError(err)
	creds, err := credential.NewSet([]string{validKey})
	s.Require().NoError(err)

	p, err := pipeline.New(allowlist.New(cfg.Allowlist), s.blocks, limiter, creds, tracker,
		pipeline.WithExclusions(pipeline.NewExclusions(cfg.ExcludePathPrefixes, nil)))
	s.Require().NoError(err)

	s.middleware = New(p, s.logger, WithRecorder(s.recorder))
	s.handler = s.middleware.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func (s *ProtectionMiddlewareSuite) do(client, apiKey, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	ctx := requestcontext.WithClientMetadata(s.clock.Bind(req.Context()), client, "test-agent")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func decode[T any](s *ProtectionMiddlewareSuite, rr *httptest.ResponseRecorder) T {
	var body T
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

// =============================================================================
// Rate Limit Scenario
// =============================================================================

func (s *ProtectionMiddlewareSuite) TestCapacityThreeThenRateLimited() {
	const client = "203.0.113.20"

	for _, want := range []string{"2", "1", "0"} {
		rr := s.do(client, validKey, "/api/generate-image")
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("3", rr.Header().Get("X-RateLimit-Limit"))
		s.Equal(want, rr.Header().Get("X-RateLimit-Remaining"))
		s.Equal("60", rr.Header().Get("X-RateLimit-Reset"))
	}

	s.clock.Advance(15 * time.Second)
	rr := s.do(client, validKey, "/api/generate-image")
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.Equal("45", rr.Header().Get("Retry-After"))
	body := decode[models.RateLimitedResponse](s, rr)
	s.Equal("RATE_LIMITED", body.Error)
	s.Equal("Too many requests", body.Message)
	s.Equal(45, body.RetryAfter)

	s.clock.Advance(45 * time.Second)
	rr = s.do(client, validKey, "/api/generate-image")
	s.Equal(http.StatusOK, rr.Code)
	s.Equal("2", rr.Header().Get("X-RateLimit-Remaining"))
}

// =============================================================================
// Credential Scenario
// =============================================================================

func (s *ProtectionMiddlewareSuite) TestMissingKeyFiveTimesBlocksSixth() {
	const client = "203.0.113.21"
	// Keep the quota out of the way of the credential scenario.
	for range 5 {
		rr := s.do(client, "", "/api/generate-video")
		s.Require().Equal(http.StatusBadRequest, rr.Code)
		body := decode[models.ErrorResponse](s, rr)
		s.Equal("Missing API Key in x-api-key header", body.Error)
		s.clock.Advance(time.Minute)
	}

	rr := s.do(client, validKey, "/api/generate-video")
	s.Equal(http.StatusForbidden, rr.Code)
	body := decode[models.BlockedResponse](s, rr)
	s.Equal("IP_BLOCKED", body.Error)
	s.Equal("IP blocked until "+testutil.Epoch.Add(4*time.Minute+time.Hour).Format(blocklist.MessageLayout), body.Message)
	s.Equal(3540, body.RemainingSeconds)

	block, ok := s.blocks.IsBlocked(s.clock.Context(), client)
	s.Require().True(ok)
	s.Equal("Too many missing API key attempts", block.Reason)

	s.clock.Advance(time.Hour)
	rr = s.do(client, validKey, "/api/generate-video")
	s.Equal(http.StatusOK, rr.Code, "the block has lapsed")
	s.Equal("3", rr.Header().Get("X-RateLimit-Limit"))
	s.Equal("2", rr.Header().Get("X-RateLimit-Remaining"))
	s.Equal("60", rr.Header().Get("X-RateLimit-Reset"))
}

func (s *ProtectionMiddlewareSuite) TestInvalidKey() {
	rr := s.do("203.0.113.22", "not-the-key", "/api/generate-image")
	s.Equal(http.StatusUnauthorized, rr.Code)
	body := decode[models.ErrorResponse](s, rr)
	s.Equal("Unauthorized: Invalid API Key", body.Error)
	s.Equal("2", rr.Header().Get("X-RateLimit-Remaining"), "credential failures still consume quota")
}

// =============================================================================
// Bypass
// =============================================================================

func (s *ProtectionMiddlewareSuite) TestAllowlistedClientNeedsNoKey() {
	for range 10 {
		rr := s.do("127.0.0.1", "", "/api/generate-image")
		s.Equal(http.StatusOK, rr.Code)
		s.Empty(rr.Header().Get("X-RateLimit-Limit"))
	}
}

func (s *ProtectionMiddlewareSuite) TestExcludedPath() {
	rr := s.do("203.0.113.23", "", "/public/logo.png")
	s.Equal(http.StatusOK, rr.Code)
}

func (s *ProtectionMiddlewareSuite) TestVerdictsAreRecorded() {
	s.do("203.0.113.24", validKey, "/")
	s.do("203.0.113.24", "", "/")

	summary, err := s.recorder.Summary(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), summary.Total)
	s.Equal(int64(1), summary.ByVerdict["admit"])
	s.Equal(int64(1), summary.ByVerdict["missing_credential"])
}

// =============================================================================
// Failure Handling
// =============================================================================

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, pipeline.Request) (*models.Decision, error) {
	return nil, errors.New("store exploded")
}

func (s *ProtectionMiddlewareSuite) TestPipelineErrorIsInternal() {
	nextCalled := false
	h := New(failingEvaluator{}, s.logger).Protect(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		nextCalled = true
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	s.False(nextCalled, "a failed evaluation must not admit")
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.JSONEq(`{"error":"Internal Server Error"}`, rr.Body.String())
}

type fixedEvaluator struct {
	decision *models.Decision
}

func (e fixedEvaluator) Evaluate(context.Context, pipeline.Request) (*models.Decision, error) {
	return e.decision, nil
}

func (s *ProtectionMiddlewareSuite) TestOverloadedIsServiceUnavailable() {
	nextCalled := false
	h := New(fixedEvaluator{&models.Decision{Verdict: models.VerdictOverloaded, Client: "203.0.113.25"}}, s.logger).
		Protect(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { nextCalled = true }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(s.clock.Context()))

	s.False(nextCalled)
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Equal("1", rr.Header().Get("Retry-After"))
	body := decode[models.ServiceOverloadedResponse](s, rr)
	s.Equal("SERVICE_UNAVAILABLE", body.Error)
	s.Equal(1, body.RetryAfter)
}

func (s *ProtectionMiddlewareSuite) TestGlobalThrottleSparesAllowlistedClients() {
	cfg := config.DefaultConfig()
	limiter, err := ratelimit.New(window.New(), ratelimit.WithBlocker(s.blocks), ratelimit.WithConfig(&cfg.RateLimit))
	s.Require().NoError(err)
	tracker, err := authlockout.New(expiring.New[models.FailureCount](), s.blocks)
	s.Require().NoError(err)
	creds, err := credential.NewSet([]string{validKey})
	s.Require().NoError(err)
	p, err := pipeline.New(allowlist.New(cfg.Allowlist), s.blocks, limiter, creds, tracker,
		pipeline.WithThrottle(globalthrottle.New(config.GlobalLimit{RequestsPerSecond: 1, Burst: 1})))
	s.Require().NoError(err)
	s.handler = New(p, s.logger).Protect(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	s.Equal(http.StatusOK, s.do("203.0.113.26", validKey, "/api/generate-image").Code)
	s.Equal(http.StatusServiceUnavailable, s.do("203.0.113.26", validKey, "/api/generate-image").Code)
	for range 3 {
		s.Equal(http.StatusOK, s.do("127.0.0.1", "", "/api/generate-image").Code)
	}

	s.clock.Advance(time.Second)
	s.Equal(http.StatusOK, s.do("203.0.113.26", validKey, "/api/generate-image").Code)
}
