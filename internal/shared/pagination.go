package shared

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// Default pagination.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 200
	// MaxPage keeps (page-1)*MaxLimit within int.
	MaxPage = math.MaxInt / MaxLimit
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultLimit
	}
	if page <= 0 {
		page = DefaultPage
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// ListFilters represents standard list filters.
type ListFilters struct {
	Page   int
	Limit  int
	Search string
}

// Offset returns the row offset of the current page. It saturates at
// math.MaxInt instead of overflowing, so an absurd page selects nothing.
func (f ListFilters) Offset() int {
	if f.Page <= 1 || f.Limit <= 0 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.Limit {
		return math.MaxInt
	}
	return (f.Page - 1) * f.Limit
}

// ListFiltersFromRequest reads page, limit and search query parameters,
// clamping out-of-range values.
func ListFiltersFromRequest(r *http.Request) ListFilters {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return ListFilters{Page: page, Limit: limit, Search: strings.TrimSpace(q.Get("search"))}
}

// Paginate returns the page of items selected by f.
func Paginate[T any](items []T, f ListFilters) []T {
	start := f.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := len(items)
	if f.Limit > 0 && f.Limit < end-start {
		end = start + f.Limit
	}
	return items[start:end]
}
