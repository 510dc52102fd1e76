package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"edgeguard/internal/completion"
	"edgeguard/internal/platform/health"
	protectionhandler "edgeguard/internal/protection/handler"
	protection "edgeguard/internal/protection/middleware"
	"edgeguard/internal/render"
	"edgeguard/pkg/platform/middleware/admin"
	"edgeguard/pkg/platform/middleware/metadata"
	request "edgeguard/pkg/platform/middleware/request"
	"edgeguard/pkg/platform/middleware/requesttime"
)

// Dependencies are the handlers and middleware the router mounts.
type Dependencies struct {
	Logger         *slog.Logger
	RequestMetrics *request.Metrics
	Metadata       *metadata.Middleware
	Protection     *protection.Middleware
	Health         *health.Handler
	Metrics        http.Handler
	Admin          *protectionhandler.Handler
	// AdminToken gates /admin. Without it only the read-only stats route is
	// mounted.
	AdminToken string
	Proxy      *completion.Handler
	Render     *render.Handler
}

// NewRouter wires all public endpoints with middleware.
//
// Health, metrics, the completion proxy and the admin surface are mounted
// outside the protection pipeline. Everything else, including unknown
// routes, is evaluated by it before being served.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(deps.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(deps.Metadata.Handler)
	r.Use(request.Logger(deps.Logger, deps.RequestMetrics))

	deps.Health.Register(r)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
	if deps.Proxy != nil {
		deps.Proxy.Register(r)
	}
	switch {
	case deps.Admin == nil:
	case deps.AdminToken != "":
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAdminToken(deps.AdminToken, deps.Logger))
			deps.Admin.RegisterAdmin(r)
		})
	default:
		deps.Admin.RegisterStats(r)
	}

	r.Group(func(r chi.Router) {
		r.Use(deps.Protection.Protect)
		r.Route("/api", func(r chi.Router) {
			// Already evaluated by the group; do not wrap again.
			r.NotFound(request.NotFound)
			if deps.Render != nil {
				deps.Render.Register(r)
			}
		})
	})

	r.NotFound(deps.Protection.Protect(http.HandlerFunc(request.NotFound)).ServeHTTP)

	return r
}
