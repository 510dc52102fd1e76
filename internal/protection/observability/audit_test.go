package observability

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"edgeguard/pkg/requestcontext"
)

func TestLogAudit(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := requestcontext.WithRequestID(context.Background(), "req-123")
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	LogAudit(ctx, logger, "client_blocked", "ip", "203.0.113.7", "reason", "Manual block")

	out := buf.String()
	assert.Contains(t, out, "event=client_blocked")
	assert.Contains(t, out, "log_type=audit")
	assert.Contains(t, out, "request_id=req-123")
	assert.Contains(t, out, "ua_family=")
	assert.Contains(t, out, "Chrome/")
	assert.Contains(t, out, "ip=203.0.113.7")
}

func TestLogAuditNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogAudit(context.Background(), nil, "client_blocked")
	})
}

func TestUserAgentFamily(t *testing.T) {
	t.Run("empty agent", func(t *testing.T) {
		assert.Empty(t, UserAgentFamily(context.Background()))
	})

	t.Run("crawler is marked as bot", func(t *testing.T) {
		ctx := requestcontext.WithClientMetadata(context.Background(), "1.2.3.4",
			"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
		assert.True(t, strings.HasPrefix(UserAgentFamily(ctx), "bot:"))
	})
}

func TestClientAttr(t *testing.T) {
	attr := ClientAttr("203.0.113.77")
	assert.Equal(t, "client_prefix", attr.Key)
	assert.NotContains(t, attr.Value.String(), "203.0.113.77")
}
