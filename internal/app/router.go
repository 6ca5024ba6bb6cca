package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/alumnihub/alumnihub/internal/actors"
	"github.com/alumnihub/alumnihub/internal/branches"
	"github.com/alumnihub/alumnihub/internal/content"
	"github.com/alumnihub/alumnihub/internal/observability"
	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/rbac"
	"github.com/alumnihub/alumnihub/internal/roles"
)

// HealthChecker reports whether backing stores are reachable.
type HealthChecker func(r *http.Request) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics
	Health  HealthChecker

	Identify           func(http.Handler) http.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	ActorsHandler      *actors.Handler
	BranchesHandler    *branches.Handler
	ContentHandler     *content.Handler
}

// NewRouter constructs the chi.Router with AlumniHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:   params.Logger,
		Config:   params.Config,
		Metrics:  params.Metrics,
		Identify: params.Identify,
	}) {
		r.Use(mw)
	}

	if !InTestMode() {
		r.Use(chimw.Logger)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if params.Health != nil {
			if err := params.Health(r); err != nil {
				if params.Logger != nil {
					params.Logger.Warn("health check failed", slog.Any("error", err))
				}
				httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if params.RolesHandler != nil {
		r.Route("/roles", params.RolesHandler.MountRoutes)
	}
	if params.PermissionsHandler != nil {
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	}
	if params.ActorsHandler != nil {
		r.Route("/actors", params.ActorsHandler.MountRoutes)
	}
	if params.BranchesHandler != nil {
		r.Route("/branches", params.BranchesHandler.MountRoutes)
	}
	if params.ContentHandler != nil {
		r.Route("/content", params.ContentHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
