// Package requesttime pins a single "now" to each request so every protection
// stage (block expiry, window rollover, failure window) judges the request
// against the same instant.
package requesttime

import (
	"net/http"
	"time"

	"edgeguard/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request
// and stores it in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
