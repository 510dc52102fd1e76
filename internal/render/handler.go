package render

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"edgeguard/pkg/platform/httputil"
	request "edgeguard/pkg/platform/middleware/request"
	"edgeguard/pkg/requestcontext"
)

const maxRequestBytes = 10 << 20

type Service interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
	Video(ctx context.Context, image []byte, opts VideoOptions) ([]byte, error)
	Image(ctx context.Context, html, selector string) ([]byte, error)
}

// VideoRequest is the body of POST /generate-video.
type VideoRequest struct {
	ImageURL        string `json:"imageUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// ImageRequest is the body of POST /generate-image.
type ImageRequest struct {
	HTMLContent string `json:"htmlContent"`
	Selector    string `json:"selector"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) Register(r chi.Router) {
	limited := r.With(request.BodyLimit(maxRequestBytes))
	limited.Post("/generate-video", h.HandleGenerateVideo)
	limited.Post("/generate-image", h.HandleGenerateImage)
}

func (h *Handler) HandleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[VideoRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.ImageURL == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "imageUrl is required."})
		return
	}

	image, err := h.service.FetchImage(ctx, req.ImageURL)
	if err != nil {
		h.fail(ctx, w, "failed to fetch video source image", err)
		return
	}
	video, err := h.service.Video(ctx, image, VideoOptions{
		Width:           req.Width,
		Height:          req.Height,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		h.fail(ctx, w, "failed to render video", err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	_, _ = w.Write(video)
}

func (h *Handler) HandleGenerateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[ImageRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.HTMLContent == "" || req.Selector == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, errorResponse{Error: "htmlContent and selector are required."})
		return
	}

	image, err := h.service.Image(ctx, req.HTMLContent, req.Selector)
	if err != nil {
		h.fail(ctx, w, "failed to render image", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(image)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal Server Error"})
}
