package shared

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 45)
	assert.Equal(t, Pagination{Page: 1, PerPage: 20, Total: 45, TotalPages: 3}, p)
}

func TestListFiltersFromRequest(t *testing.T) {
	f := ListFiltersFromRequest(httptest.NewRequest("GET", "/?page=3&limit=999&search=+jat+", nil))
	assert.Equal(t, ListFilters{Page: 3, Limit: MaxLimit, Search: "jat"}, f)

	f = ListFiltersFromRequest(httptest.NewRequest("GET", "/?page=-1&limit=x", nil))
	assert.Equal(t, ListFilters{Page: 1, Limit: DefaultLimit}, f)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, ListFilters{Page: 1, Limit: 2}))
	assert.Equal(t, []int{5}, Paginate(items, ListFilters{Page: 3, Limit: 2}))
	assert.Empty(t, Paginate(items, ListFilters{Page: 4, Limit: 2}))
}

func TestPaginateHugePage(t *testing.T) {
	f := ListFiltersFromRequest(httptest.NewRequest("GET", "/?page=922337203685477580&limit=200", nil))
	assert.Equal(t, MaxPage, f.Page)
	assert.GreaterOrEqual(t, f.Offset(), 0)
	assert.Empty(t, Paginate([]int{1, 2, 3}, f))

	raw := ListFilters{Page: 922337203685477580, Limit: 200}
	assert.Equal(t, math.MaxInt, raw.Offset())
	assert.Empty(t, Paginate([]int{1, 2, 3}, raw))
	assert.Zero(t, ListFilters{Page: 5, Limit: -1}.Offset())
}
