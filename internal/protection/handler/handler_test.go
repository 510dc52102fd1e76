package handler

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks Service

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"edgeguard/internal/protection/handler/mocks"
	"edgeguard/internal/protection/models"
	dErrors "edgeguard/pkg/domain-errors"
	"edgeguard/pkg/platform/middleware/admin"
)

// =============================================================================
// Admin Handler Test Suite
// =============================================================================
// Justification: The handler owns decoding, status mapping and actor
// propagation. Service behavior is covered in the admin package.

type HandlerSuite struct {
	suite.Suite
	router      http.Handler
	ctrl        *gomock.Controller
	mockService *mocks.MockService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockService = mocks.NewMockService(s.ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.mockService, logger)

	r := chi.NewRouter()
	r.Use(admin.RequireAdminToken("secret", logger))
	h.RegisterAdmin(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) send(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "secret")
	req.Header.Set("X-Admin-Actor-ID", "ops@example.com")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// =============================================================================
// Stats
// =============================================================================

func (s *HandlerSuite) TestStats() {
	s.mockService.EXPECT().Stats(gomock.Any()).Return(&models.SecurityStatsResponse{
		BlockedIPs:  []*models.BlockEntry{},
		RateLimiter: models.RateLimiterSummary{Points: 60, Duration: 60},
		Allowlist:   []models.ClientKey{"127.0.0.1"},
	})

	rec := s.send(http.MethodGet, "/admin/security/stats", "")
	s.Equal(http.StatusOK, rec.Code)

	var body models.SecurityStatsResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal(60, body.RateLimiter.Points)
	s.Equal([]models.ClientKey{"127.0.0.1"}, body.Allowlist)
}

func (s *HandlerSuite) TestRequiresAdminToken() {
	req := httptest.NewRequest(http.MethodGet, "/admin/security/stats", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

// =============================================================================
// Block / Unblock
// =============================================================================

func (s *HandlerSuite) TestBlock() {
	s.Run("created with actor", func() {
		expires := time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC)
		s.mockService.EXPECT().
			BlockClient(gomock.Any(), &models.BlockRequest{IP: "203.0.113.9", DurationSeconds: 3600}, "ops@example.com").
			Return(&models.BlockEntry{Client: "203.0.113.9", Reason: "Manual block", ExpiresAt: expires}, nil)

		rec := s.send(http.MethodPost, "/admin/security/blocks", `{"ip":" 203.0.113.9 ","durationSeconds":3600}`)
		s.Equal(http.StatusCreated, rec.Code)

		var body models.BlockResponse
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal(models.ClientKey("203.0.113.9"), body.Block.Client)
		s.True(expires.Equal(body.Block.ExpiresAt))
	})

	s.Run("invalid JSON", func() {
		rec := s.send(http.MethodPost, "/admin/security/blocks", "not valid json")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("missing ip is rejected before the service", func() {
		rec := s.send(http.MethodPost, "/admin/security/blocks", `{"durationSeconds":10}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.JSONEq(`{"error":"ip is required"}`, rec.Body.String())
	})
}

func (s *HandlerSuite) TestUnblock() {
	s.Run("unblocked", func() {
		s.mockService.EXPECT().UnblockClient(gomock.Any(), "203.0.113.9", "ops@example.com").Return(nil)
		rec := s.send(http.MethodDelete, "/admin/security/blocks/203.0.113.9", "")
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"unblocked","ip":"203.0.113.9"}`, rec.Body.String())
	})

	s.Run("not blocked", func() {
		s.mockService.EXPECT().UnblockClient(gomock.Any(), "203.0.113.10", gomock.Any()).
			Return(dErrors.New(dErrors.CodeNotFound, "client is not blocked"))
		rec := s.send(http.MethodDelete, "/admin/security/blocks/203.0.113.10", "")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

// =============================================================================
// Rate Limit Reset
// =============================================================================

func (s *HandlerSuite) TestResetRateLimit() {
	s.Run("window cleared", func() {
		s.mockService.EXPECT().ResetRateLimit(gomock.Any(), &models.ResetRequest{IP: "203.0.113.9"}, "ops@example.com").
			Return(true, nil)
		rec := s.send(http.MethodPost, "/admin/security/rate-limit/reset", `{"ip":"203.0.113.9"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"reset","ip":"203.0.113.9"}`, rec.Body.String())
	})

	s.Run("no open window", func() {
		s.mockService.EXPECT().ResetRateLimit(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)
		rec := s.send(http.MethodPost, "/admin/security/rate-limit/reset", `{"ip":"203.0.113.11"}`)
		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"status":"no_window","ip":"203.0.113.11"}`, rec.Body.String())
	})

	s.Run("invalid JSON", func() {
		rec := s.send(http.MethodPost, "/admin/security/rate-limit/reset", "not valid json")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
