package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"edgeguard/internal/protection/models"
	"edgeguard/pkg/platform/httputil"
	"edgeguard/pkg/platform/middleware/admin"
	"edgeguard/pkg/requestcontext"
)

type Service interface {
	Stats(ctx context.Context) *models.SecurityStatsResponse
	BlockClient(ctx context.Context, req *models.BlockRequest, actor string) (*models.BlockEntry, error)
	UnblockClient(ctx context.Context, ip, actor string) error
	ResetRateLimit(ctx context.Context, req *models.ResetRequest, actor string) (bool, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterStats mounts the read-only stats route.
func (h *Handler) RegisterStats(r chi.Router) {
	r.Get("/admin/security/stats", h.HandleStats)
}

// RegisterAdmin mounts stats plus the routes that change protection state.
// Callers must put it behind authentication.
func (h *Handler) RegisterAdmin(r chi.Router) {
	h.RegisterStats(r)
	r.Post("/admin/security/blocks", h.HandleBlock)
	r.Delete("/admin/security/blocks/{ip}", h.HandleUnblock)
	r.Post("/admin/security/rate-limit/reset", h.HandleResetRateLimit)
}

// HandleStats implements GET /admin/security/stats.
// Output: { "blockedIPs": [...], "rateLimiter": { "points": 60, "duration": 60 }, "allowlist": [...] }
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Stats(r.Context()))
}

// HandleBlock implements POST /admin/security/blocks.
// Input: { "ip": "203.0.113.9", "durationSeconds": 3600, "reason": "..." }
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	req, ok := httputil.DecodeAndPrepare[models.BlockRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.BlockClient(ctx, req, admin.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to block client",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &models.BlockResponse{Block: entry})
}

// HandleUnblock implements DELETE /admin/security/blocks/{ip}.
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ip := chi.URLParam(r, "ip")

	if err := h.service.UnblockClient(ctx, ip, admin.ActorID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "failed to unblock client",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.StatusResponse{
		Status: "unblocked",
		IP:     models.NormalizeClientKey(ip),
	})
}

// HandleResetRateLimit implements POST /admin/security/rate-limit/reset.
// Input: { "ip": "203.0.113.9" }
// Output: { "status": "reset" | "no_window", "ip": "203.0.113.9" }
func (h *Handler) HandleResetRateLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, 64*1024)

	req, ok := httputil.DecodeAndPrepare[models.ResetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cleared, err := h.service.ResetRateLimit(ctx, req, admin.ActorID(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to reset rate limit",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	status := "reset"
	if !cleared {
		status = "no_window"
	}
	httputil.WriteJSON(w, http.StatusOK, &models.StatusResponse{
		Status: status,
		IP:     models.NormalizeClientKey(req.IP),
	})
}
