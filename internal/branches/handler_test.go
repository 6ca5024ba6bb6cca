package branches

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/rbac/rbactest"
	"github.com/alumnihub/alumnihub/internal/shared"
	"github.com/alumnihub/alumnihub/internal/tenancy"
)

func newTestRouter(t *testing.T) (http.Handler, *rbactest.Fixture) {
	t.Helper()
	authz := rbactest.New(t)
	h := NewHandler(nil, NewService(NewMemoryRepository(), nil), authz.Middleware())
	r := chi.NewRouter()
	r.Route("/branches", h.MountRoutes)
	return r, authz
}

func do(r http.Handler, method, path, body string, actorID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(shared.ContextWithPrincipal(req.Context(), shared.Principal{ActorID: actorID, Scope: tenancy.Central()}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndList(t *testing.T) {
	r, authz := newTestRouter(t)
	authz.Grant(t, 1, "branches.view", "branches.edit")

	rec := do(r, http.MethodPost, "/branches", `{"name":"Jakarta"}`, 1)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Branch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Jakarta", created.Name)

	rec = do(r, http.MethodPost, "/branches", `{"name":"Jakarta"}`, 1)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, http.MethodPost, "/branches", `{"name":""}`, 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name"`)

	rec = do(r, http.MethodGet, "/branches", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
}

func TestHandlerRequiresPermissions(t *testing.T) {
	r, authz := newTestRouter(t)
	authz.Grant(t, 2, "branches.view")

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/branches", `{"name":"Bali"}`, 2).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/branches", "", 2).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/branches/9", "", 2).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/branches", "", 3).Code)
}
