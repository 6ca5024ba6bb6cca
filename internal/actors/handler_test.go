package actors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/rbac/rbactest"
)

type testEnv struct {
	router http.Handler
	authz  *rbactest.Fixture
	admin  int64
	member int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	svc := NewService(NewMemoryRepository(), nil, nil)
	admin, err := svc.Provision(ctx, ProvisionRequest{DisplayName: "admin"})
	require.NoError(t, err)
	member, err := svc.Provision(ctx, ProvisionRequest{DisplayName: "member"})
	require.NoError(t, err)

	authz := rbactest.New(t)
	authz.Service.WithActors(svc)
	authz.Grant(t, admin.ID, "users.view", "users.edit")

	r := chi.NewRouter()
	r.Use(svc.Identify("X-Actor-ID", nil))
	r.Route("/actors", NewHandler(nil, svc, authz.Service, authz.Gate, authz.Middleware()).MountRoutes)
	return &testEnv{router: r, authz: authz, admin: admin.ID, member: member.ID}
}

func (e *testEnv) do(method, path, body string, actorID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if actorID > 0 {
		req.Header.Set("X-Actor-ID", fmt.Sprint(actorID))
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAssignAndUnassignOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	role, err := env.authz.Service.CreateRole(context.Background(), "news-editor", "")
	require.NoError(t, err)
	path := fmt.Sprintf("/actors/%d/roles", env.member)
	body := fmt.Sprintf(`{"role_id":%d}`, role.ID)

	for range 2 {
		assert.Equal(t, http.StatusNoContent, env.do(http.MethodPost, path, body, env.admin).Code)
	}
	rec := env.do(http.MethodGet, path, "", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"news-editor"`)

	for range 2 {
		assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, path, body, env.admin).Code)
	}
	rec = env.do(http.MethodGet, path, "", env.admin)
	assert.JSONEq(t, `{"roles":[]}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/actors/99/roles", body, env.admin).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, path, `{"role_id":999}`, env.admin).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, path, `{"role_id":0}`, env.admin).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, path, body, env.member).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, path, body, 0).Code)
}

func TestEffectivePermissionsAndAuthorize(t *testing.T) {
	env := newTestEnv(t)
	env.authz.Grant(t, env.member, "news.view")

	rec := env.do(http.MethodGet, fmt.Sprintf("/actors/%d/permissions", env.member), "", env.member)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Permissions []string `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"news.view"}, body.Permissions)

	rec = env.do(http.MethodGet, fmt.Sprintf("/actors/%d/authorize?permission=news.view", env.member), "", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decision":"Allow"`)

	rec = env.do(http.MethodGet, fmt.Sprintf("/actors/%d/authorize?permission=news.delete", env.member), "", env.member)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decision":"Deny"`)

	rec = env.do(http.MethodGet, "/actors/999/authorize?permission=news.view", "", env.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"decision":"Deny"`)

	rec = env.do(http.MethodGet, fmt.Sprintf("/actors/%d/authorize?permission=news", env.member), "", env.member)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, fmt.Sprintf("/actors/%d/permissions", env.admin), "", env.member)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestShowActor(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, fmt.Sprintf("/actors/%d", env.member), "", env.member)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scope":"CENTRAL"`)

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/actors/99", "", env.admin).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/actors/99", "", env.member).Code)
}
