// Package observability provides audit logging helpers for the protection module.
package observability

import (
	"context"
	"log/slog"

	"github.com/mssola/useragent"

	"edgeguard/pkg/platform/privacy"
	"edgeguard/pkg/requestcontext"
)

// LogAudit logs a security-relevant event with the request ID and the
// caller's user agent family attached. Audit lines carry log_type=audit so
// they can be routed separately from access logs.
func LogAudit(ctx context.Context, logger *slog.Logger, event string, attrList ...any) {
	if logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrList = append(attrList, "request_id", requestID)
	}
	if family := UserAgentFamily(ctx); family != "" {
		attrList = append(attrList, "ua_family", family)
	}
	args := append(attrList, "event", event, "log_type", "audit")
	logger.InfoContext(ctx, event, args...)
}

// UserAgentFamily reduces the request's User-Agent to "<browser>/<os>", or a
// "bot:<name>" marker for crawlers. Empty when no agent was sent.
func UserAgentFamily(ctx context.Context) string {
	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, _ := ua.Browser()
	if ua.Bot() {
		return "bot:" + name
	}
	if os := ua.OS(); os != "" {
		return name + "/" + os
	}
	return name
}

// ClientAttr returns the anonymised client prefix for log lines that leave
// the audit stream.
func ClientAttr(client string) slog.Attr {
	return slog.String("client_prefix", privacy.AnonymizeIP(client))
}
