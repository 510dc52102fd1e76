package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "edgeguard/pkg/domain-errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blockRequest struct {
	IP string `json:"ip"`
}

func (r *blockRequest) Normalize() {
	r.IP = strings.TrimSpace(r.IP)
}

func (r *blockRequest) Validate() error {
	if r.IP == "" {
		return errors.New("ip is required")
	}
	return nil
}

type domainErrorRequest struct {
	ID string `json:"id"`
}

func (r *domainErrorRequest) Validate() error {
	if r.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	return nil
}

func TestDecodeJSON(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("successful decode", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"ip":"9.9.9.9"}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[blockRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "9.9.9.9", result.IP)
	})

	t.Run("invalid JSON returns 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{invalid json}`))
		w := httptest.NewRecorder()

		result, ok := DecodeJSON[blockRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Nil(t, result)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var errResp map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, "invalid request body", errResp["error"])
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("normalizes before validating", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"ip":"  9.9.9.9  "}`))
		w := httptest.NewRecorder()

		result, ok := DecodeAndPrepare[blockRequest](w, req, logger, ctx, "req-1")

		assert.True(t, ok)
		require.NotNil(t, result)
		assert.Equal(t, "9.9.9.9", result.IP)
	})

	t.Run("plain validation error becomes 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"ip":"   "}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[blockRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "ip is required")
	})

	t.Run("preserves domain error code", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"id":""}`))
		w := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[domainErrorRequest](w, req, logger, ctx, "req-1")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "id is required")
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"missing credential", dErrors.New(dErrors.CodeBadRequest, "Missing API Key in x-api-key header"), http.StatusBadRequest, `{"error":"Missing API Key in x-api-key header"}`},
		{"invalid credential", dErrors.New(dErrors.CodeUnauthorized, "Unauthorized: Invalid API Key"), http.StatusUnauthorized, `{"error":"Unauthorized: Invalid API Key"}`},
		{"code without message", &dErrors.Error{Code: dErrors.CodeNotFound}, http.StatusNotFound, `{"error":"not_found"}`},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestDomainCodeToHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, DomainCodeToHTTPStatus(dErrors.CodeTooManyRequests))
	assert.Equal(t, http.StatusForbidden, DomainCodeToHTTPStatus(dErrors.CodeForbidden))
	assert.Equal(t, http.StatusServiceUnavailable, DomainCodeToHTTPStatus(dErrors.CodeUnavailable))
	assert.Equal(t, http.StatusBadGateway, DomainCodeToHTTPStatus(dErrors.CodeUpstream))
	assert.Equal(t, http.StatusInternalServerError, DomainCodeToHTTPStatus(dErrors.CodeConfiguration))
}
