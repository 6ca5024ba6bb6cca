package rbac

import (
	"log/slog"
	"net/http"

	"github.com/alumnihub/alumnihub/internal/platform/httpx"
	"github.com/alumnihub/alumnihub/internal/shared"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Gate   *Gate
	Logger *slog.Logger
}

// RequireAny ensures the current actor has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	keys := normalizePermissions(perms)
	return m.require(keys, func(snap *Snapshot, r *http.Request) bool {
		for _, k := range keys {
			if snap.Allows(r.Context(), k) {
				return true
			}
		}
		return false
	})
}

// RequireAll ensures the current actor has all required permissions.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	keys := normalizePermissions(perms)
	return m.require(keys, func(snap *Snapshot, r *http.Request) bool {
		for _, k := range keys {
			if !snap.Allows(r.Context(), k) {
				return false
			}
		}
		return true
	})
}

func (m Middleware) require(keys []PermissionKey, check func(*Snapshot, *http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(keys) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, m.Logger, httpx.ErrUnauthorized)
				return
			}
			if m.Gate == nil || !check(m.Gate.For(r.Context(), principal.ActorID), r) {
				httpx.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// normalizePermissions parses and dedupes route permissions. Routes are
// declared at startup, so a malformed key is a programming error.
func normalizePermissions(perms []string) []PermissionKey {
	seen := make(map[PermissionKey]struct{}, len(perms))
	keys := make([]PermissionKey, 0, len(perms))
	for _, p := range perms {
		k := MustParsePermissionKey(p)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}
