package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	platformconfig "edgeguard/internal/platform/config"
	"edgeguard/internal/platform/health"
	"edgeguard/internal/platform/redis"
	"edgeguard/internal/protection/admin"
	"edgeguard/internal/protection/credential"
	protectionhandler "edgeguard/internal/protection/handler"
	"edgeguard/internal/protection/metrics"
	protection "edgeguard/internal/protection/middleware"
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
	"edgeguard/internal/protection/workers/cleanup"
	"edgeguard/pkg/platform/middleware/metadata"
)

// protectionModule is the assembled protection layer.
type protectionModule struct {
	Middleware *protection.Middleware
	Metadata   *metadata.Middleware
	Admin      *protectionhandler.Handler
	Cleanup    *cleanup.Service
	Redis      *redis.Client
}

func buildProtection(ctx context.Context, cfg *platformconfig.Server, reg prometheus.Registerer, h *health.Handler, log *slog.Logger) (*protectionModule, error) {
	pc := cfg.Protection
	m := metrics.New(reg)

	storeOpts := func(name string) []expiring.Option {
		return []expiring.Option{
			expiring.WithMaxKeys(pc.Store.MaxKeys),
			expiring.WithEvictionHook(m.EvictionHook(name)),
		}
	}
	blockStore := expiring.New[models.BlockEntry](storeOpts(cleanup.BlocksStore)...)
	failureStore := expiring.New[models.FailureCount](storeOpts("failures")...)
	windowStore := window.New(storeOpts("windows")...)

	blocks, err := blocklist.New(blockStore,
		blocklist.WithLogger(log),
		blocklist.WithMetrics(m),
		blocklist.WithFailureCounts(failureStore),
	)
	if err != nil {
		return nil, fmt.Errorf("init block registry: %w", err)
	}
	limiter, err := ratelimit.New(windowStore,
		ratelimit.WithLogger(log),
		ratelimit.WithBlocker(blocks),
		ratelimit.WithConfig(&pc.RateLimit),
		ratelimit.WithRouteLimits(pc.RouteLimits),
	)
	if err != nil {
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}
	tracker, err := authlockout.New(failureStore, blocks,
		authlockout.WithLogger(log),
		authlockout.WithMetrics(m),
		authlockout.WithConfig(&pc.AuthLockout),
	)
	if err != nil {
		return nil, fmt.Errorf("init failure tracker: %w", err)
	}
	creds, err := credential.NewSet(pc.APIKeys)
	if err != nil {
		return nil, err
	}
	allow := allowlist.New(pc.Allowlist)

	patterns, err := pc.ExclusionPatterns()
	if err != nil {
		return nil, err
	}
	proxies, err := pc.TrustedProxyPrefixes()
	if err != nil {
		return nil, err
	}

	pipelineOpts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithMetrics(m),
		pipeline.WithExclusions(pipeline.NewExclusions(pc.ExcludePathPrefixes, patterns)),
	}
	if throttle := globalthrottle.New(pc.Global, globalthrottle.WithLogger(log)); throttle.Enabled() {
		pipelineOpts = append(pipelineOpts, pipeline.WithThrottle(throttle))
		log.Info("global throttle enabled",
			"rps", pc.Global.RequestsPerSecond,
			"burst", pc.Global.Burst,
		)
	}
	p, err := pipeline.New(allow, blocks, limiter, creds, tracker, pipelineOpts...)
	if err != nil {
		return nil, fmt.Errorf("init pipeline: %w", err)
	}

	mod := &protectionModule{
		Metadata: metadata.NewMiddleware(&metadata.Config{TrustedProxies: proxies}),
	}

	var recorder stats.Sink = stats.NewMemoryRecorder()
	if cfg.Redis.URL != "" {
		client, err := redis.New(ctx, cfg.Redis, redis.NewPoolMetrics(reg))
		if err != nil {
			return nil, fmt.Errorf("init stats redis: %w", err)
		}
		recorder, err = stats.NewRedisRecorder(client, cfg.Redis.StatsTTL)
		if err != nil {
			return nil, err
		}
		h.RegisterCheck("redis", client.Health)
		mod.Redis = client
		log.Info("decision statistics stored in redis")
	}

	mod.Middleware = protection.New(p, log, protection.WithRecorder(recorder))

	adminSvc, err := admin.New(blocks, limiter, allow,
		admin.WithLogger(log),
		admin.WithManualBlockDuration(pc.Block.ManualDuration),
		admin.WithDecisionStats(recorder),
	)
	if err != nil {
		return nil, fmt.Errorf("init admin service: %w", err)
	}
	mod.Admin = protectionhandler.New(adminSvc, log)

	mod.Cleanup, err = cleanup.New(map[string]cleanup.Sweeper{
		cleanup.BlocksStore: blockStore,
		"failures":          failureStore,
		"windows":           windowStore,
	},
		cleanup.WithLogger(log),
		cleanup.WithMetrics(m),
		cleanup.WithInterval(pc.Store.SweepInterval),
		cleanup.WithBatch(pc.Store.SweepBatch),
	)
	if err != nil {
		return nil, fmt.Errorf("init cleanup worker: %w", err)
	}

	return mod, nil
}
