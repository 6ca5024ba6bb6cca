package content

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alumnihub/alumnihub/internal/shared"
)

func (e *env) router() http.Handler {
	r := chi.NewRouter()
	r.Route("/content", NewHandler(nil, e.svc).MountRoutes)
	return r
}

func serve(h http.Handler, method, path, body string, p *shared.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if p != nil {
		req = req.WithContext(shared.ContextWithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerScenario(t *testing.T) {
	e := newEnv(t)
	h := e.router()

	bodies := []string{
		`{"kind":"article","title":"X","visibility":{"mode":"ALL_BRANCHES"}}`,
		fmt.Sprintf(`{"kind":"article","title":"Y","visibility":{"mode":"SPECIFIC_BRANCHES","targets":[%d]}}`, e.jakarta),
		fmt.Sprintf(`{"kind":"article","title":"Z","visibility":{"mode":"SPECIFIC_BRANCHES","targets":[%d,%d]}}`, e.jatim, e.jakarta),
	}
	for _, b := range bodies {
		rec := serve(h, http.MethodPost, "/content", b, &e.central)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := serve(h, http.MethodGet, "/content?kind=article", "", &e.branch)
	require.Equal(t, http.StatusOK, rec.Code)
	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.ElementsMatch(t, []string{"X", "Z"}, titles(page.Records))

	rec = serve(h, http.MethodGet, "/content?kind=article", "", &e.central)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.ElementsMatch(t, []string{"X", "Y", "Z"}, titles(page.Records))
}

func TestHandlerErrors(t *testing.T) {
	e := newEnv(t)
	h := e.router()

	rec := serve(h, http.MethodPost, "/content", `{"kind":"article","title":"t","visibility":{"mode":"SPECIFIC_BRANCHES","targets":[]}}`, &e.central)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "visibility.targets")
	assert.Zero(t, e.repo.Len())

	rec = serve(h, http.MethodPost, "/content", `{"kind":"event","title":"t","visibility":{"mode":"ALL_BRANCHES"}}`, &e.central)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "events")

	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/content", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/content/42", "", &e.central).Code)
	assert.Equal(t, http.StatusBadRequest, serve(h, http.MethodDelete, "/content/abc", "", &e.central).Code)
}

func TestHandlerDelete(t *testing.T) {
	e := newEnv(t)
	h := e.router()
	rec := serve(h, http.MethodPost, "/content", fmt.Sprintf(`{"kind":"article","title":"Y","visibility":{"mode":"SPECIFIC_BRANCHES","targets":[%d]}}`, e.jakarta), &e.central)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/content/%d", created.ID)

	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodDelete, path, "", &e.branch).Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodDelete, path, "", &e.central).Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, path, "", &e.central).Code)
}

func TestHandlerListQueryEdges(t *testing.T) {
	e := newEnv(t)
	h := e.router()
	rec := serve(h, http.MethodPost, "/content", `{"kind":"article","title":"X","visibility":{"mode":"ALL_BRANCHES"}}`, &e.central)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(h, http.MethodGet, "/content?kind=+Article+", "", &e.branch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, []string{"X"}, titles(page.Records))

	rec = serve(h, http.MethodGet, "/content?page=922337203685477580&limit=200", "", &e.central)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page = Page{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Records)
	assert.Equal(t, 1, page.Pagination.Total)
}
