package completion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/platform/httputil"
	"edgeguard/pkg/requestcontext"
)

const maxRequestBytes = 10 << 20

type Forwarder interface {
	Forward(ctx context.Context, body []byte, authorization string) ([]byte, error)
}

// FailureResponse is the body returned when the upstream call fails.
type FailureResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
}

type Handler struct {
	forwarder Forwarder
	logger    *slog.Logger
}

func NewHandler(forwarder Forwarder, logger *slog.Logger) *Handler {
	return &Handler{
		forwarder: forwarder,
		logger:    logger,
	}
}

// Register mounts /proxy. Both GET and POST are accepted; the body is
// forwarded either way.
func (h *Handler) Register(r chi.Router) {
	r.Get("/proxy", h.HandleProxy)
	r.Post("/proxy", h.HandleProxy)
}

func (h *Handler) HandleProxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read proxy body",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	payload, err := h.forwarder.Forward(ctx, body, r.Header.Get("Authorization"))
	if err != nil {
		h.logger.WarnContext(ctx, "completion proxy failed",
			"error", err,
			"request_id", requestID,
		)
		h.writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := json.RawMessage("null")

	var upstream *UpstreamError
	switch {
	case errors.As(err, &upstream):
		status = upstream.Status
		if json.Valid(upstream.Body) {
			detail = upstream.Body
		} else if len(upstream.Body) > 0 {
			detail, _ = json.Marshal(string(upstream.Body))
		}
	case dErrors.HasCode(err, dErrors.CodeUnavailable):
		status = http.StatusServiceUnavailable
	}

	httputil.WriteJSON(w, status, &FailureResponse{
		Success: false,
		Message: err.Error(),
		Error:   detail,
	})
}
