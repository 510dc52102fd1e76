package admin

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"edgeguard/pkg/platform/httputil"
	"edgeguard/pkg/requestcontext"
)

type contextKeyAdminActor struct{}

// ActorID returns the operator named by X-Admin-Actor-ID on an authorized
// admin request, or "" otherwise.
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(contextKeyAdminActor{}).(string); ok {
		return actor
	}
	return ""
}

// RequireAdminToken rejects requests whose X-Admin-Token does not match
// expectedToken. The comparison is constant-time.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "admin token required",
				})
				return
			}

			actor := r.Header.Get("X-Admin-Actor-ID")
			if actor == "" {
				actor = "admin"
			}
			ctx = context.WithValue(ctx, contextKeyAdminActor{}, actor)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
