package actors

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/platform/validate"
	"github.com/alumnihub/alumnihub/internal/rbac"
	"github.com/alumnihub/alumnihub/internal/shared"
)

// Handler manages actor endpoints: the directory, role assignment and
// effective permissions.
type Handler struct {
	logger  *slog.Logger
	service *Service
	access  *rbac.Service
	gate    *rbac.Gate
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, access *rbac.Service, gate *rbac.Gate, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, access: access, gate: gate, rbac: rbac}
}

// MountRoutes registers actor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermUsersView))
		r.Get("/", h.listActors)
		r.Get("/{id}/roles", h.listRoles)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(shared.PermUsersEdit))
		r.Post("/{id}/roles", h.assignRole)
		r.Delete("/{id}/roles", h.unassignRole)
	})
	// Actors may always inspect themselves.
	r.Group(func(r chi.Router) {
		r.Use(h.selfOrPermission(shared.PermUsersView))
		r.Get("/{id}", h.showActor)
		r.Get("/{id}/permissions", h.listPermissions)
		r.Get("/{id}/authorize", h.authorize)
	})
}

type roleRequest struct {
	RoleID int64 `json:"role_id" validate:"gt=0"`
}

func (h *Handler) selfOrPermission(perm string) func(http.Handler) http.Handler {
	key := rbac.MustParsePermissionKey(perm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, h.logger, httpx.ErrUnauthorized)
				return
			}
			id, err := httpx.IDParam(r, "id")
			if err == nil && id == principal.ActorID {
				next.ServeHTTP(w, r)
				return
			}
			if h.gate.Authorize(r.Context(), principal.ActorID, key) != rbac.Allow {
				httpx.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) listActors(w http.ResponseWriter, r *http.Request) {
	actors, err := h.service.ListActors(r.Context())
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	views := make([]ActorView, 0, len(actors))
	for _, a := range actors {
		views = append(views, viewOf(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actors": views})
}

func (h *Handler) showActor(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	actor, err := h.service.GetActor(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, viewOf(actor))
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if _, err := h.service.GetActor(r.Context(), id); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	roles, err := h.access.ActorRoles(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if roles == nil {
		roles = []rbac.Role{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.access.AssignRole)
}

func (h *Handler) unassignRole(w http.ResponseWriter, r *http.Request) {
	h.changeRole(w, r, h.access.UnassignRole)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, actorID, roleID int64) error) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	var req roleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	if err := apply(r.Context(), id, req.RoleID); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	perms, err := h.access.EffectivePermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	keys := make([]string, 0, len(perms))
	for _, p := range perms {
		keys = append(keys, p.Key().String())
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"actor_id": id, "permissions": keys})
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	raw := strings.TrimSpace(r.URL.Query().Get("permission"))
	if _, err := rbac.ParsePermissionKey(raw); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	decision := h.gate.AuthorizeKey(r.Context(), id, raw)
	httpx.JSON(w, http.StatusOK, map[string]any{"actor_id": id, "permission": raw, "decision": decision})
}
