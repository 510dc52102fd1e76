package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"edgeguard/internal/completion"
	"edgeguard/internal/platform/config"
	"edgeguard/internal/platform/health"
	"edgeguard/internal/platform/logger"
	platformmetrics "edgeguard/internal/platform/metrics"
	"edgeguard/internal/render"
	httptransport "edgeguard/internal/transport/http"
	request "edgeguard/pkg/platform/middleware/request"
	"edgeguard/pkg/secrets"
)

const imageFetchTimeout = 30 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing edgeguard",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"api_keys", keyFingerprints(cfg.Protection.APIKeys),
		"rate_limit_points", cfg.Protection.RateLimit.Points,
		"rate_limit_window", cfg.Protection.RateLimit.Window,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := platformmetrics.NewRegistry()
	healthHandler := health.New(cfg.Environment)

	mod, err := buildProtection(ctx, cfg, reg, healthHandler, log)
	if err != nil {
		log.Error("failed to initialize protection", "error", err)
		os.Exit(1)
	}

	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set; only GET /admin/security/stats is mounted")
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		RequestMetrics: request.NewMetrics(reg),
		Metadata:       mod.Metadata,
		Protection:     mod.Middleware,
		Health:         healthHandler,
		Metrics:        platformmetrics.Handler(reg),
		Admin:          mod.Admin,
		AdminToken:     cfg.AdminToken,
		Proxy: completion.NewHandler(
			completion.New(cfg.Completion.URL,
				completion.WithLogger(log),
				completion.WithHTTPClient(&http.Client{Timeout: cfg.Completion.Timeout}),
			), log),
		Render: render.NewHandler(
			render.New(cfg.Render.FFmpegPath, cfg.Render.HTMLRendererPath,
				render.WithHTTPClient(&http.Client{Timeout: imageFetchTimeout}),
			), log),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := mod.Cleanup.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if mod.Redis != nil {
		g.Go(func() error {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mod.Redis.RecordPoolStats()
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if mod.Redis != nil {
			return mod.Redis.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// keyFingerprints identifies configured keys in logs without exposing them.
func keyFingerprints(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, secrets.Fingerprint(k))
	}
	return out
}
