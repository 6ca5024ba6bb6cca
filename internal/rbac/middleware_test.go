package rbac

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/shared"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

func asActor(r *http.Request, actorID int64) *http.Request {
	return r.WithContext(shared.ContextWithPrincipal(r.Context(), shared.Principal{ActorID: actorID, Scope: tenancy.Central()}))
}

func TestMiddlewareRequireAnyAndAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role := f.role(t, "editor", "news.view")
	require.NoError(t, f.svc.AssignRole(ctx, 1, role.ID))
	mw := Middleware{Gate: NewGate(f.repo, NewResolver(f.repo), 0, nil, nil)}

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	anyOf := mw.RequireAny("news.delete", "news.view")(ok)
	allOf := mw.RequireAll("news.delete", "news.view")(ok)

	cases := []struct {
		name    string
		handler http.Handler
		actor   int64
		want    int
	}{
		{name: "any granted", handler: anyOf, actor: 1, want: http.StatusTeapot},
		{name: "all missing one", handler: allOf, actor: 1, want: http.StatusForbidden},
		{name: "no roles", handler: anyOf, actor: 2, want: http.StatusForbidden},
		{name: "anonymous", handler: anyOf, actor: 0, want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.actor > 0 {
				req = asActor(req, tc.actor)
			}
			rec := httptest.NewRecorder()
			tc.handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMiddlewareDenyDoesNotLeakPermission(t *testing.T) {
	f := newFixture(t)
	mw := Middleware{Gate: NewGate(f.repo, NewResolver(f.repo), 0, nil, nil)}
	h := mw.RequireAll("news.delete")(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodDelete, "/", nil), 3))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "news")
}

func TestMiddlewareStoreErrorDenies(t *testing.T) {
	mw := Middleware{Gate: NewGate(failingGraph{err: errStoreDown}, NewResolver(failingGraph{err: errStoreDown}), 0, nil, nil)}
	h := mw.RequireAny("news.view")(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodGet, "/", nil), 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionsHandlerGroupsByModule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.repo.EnsurePermission(ctx, MustParsePermissionKey("permissions.view"), "")
	require.NoError(t, err)
	viewer := f.role(t, "viewer")
	perm, err := f.repo.PermissionByKey(ctx, MustParsePermissionKey("permissions.view"))
	require.NoError(t, err)
	require.NoError(t, f.svc.GrantPermission(ctx, viewer.ID, perm.ID))
	require.NoError(t, f.svc.AssignRole(ctx, 1, viewer.ID))

	mw := Middleware{Gate: NewGate(f.repo, NewResolver(f.repo), 0, nil, nil)}
	r := chi.NewRouter()
	r.Route("/permissions", NewPermissionsHandler(nil, f.svc, mw).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodGet, "/permissions", nil), 1))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Index(body, `"module":"alumni"`) < strings.Index(body, `"module":"news"`))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asActor(httptest.NewRequest(http.MethodDelete, "/permissions/1", nil), 1))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
