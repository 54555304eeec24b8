package helpers

import (
	"net/http"
	"strconv"

	"devevents/internal/domain"
)

// Pagination query parameter defaults and limits.
const (
	DefaultPage     = 1
	DefaultPageSize = 12
	MaxPageSize     = 100
	MaxPage         = 1_000_000
	// AllPages is the page_size value that requests every event in one response.
	AllPages = "all"
)

// ParsePagination reads page and page_size from the request query string and
// clamps them to valid ranges. Invalid or missing values fall back to defaults.
// page_size=all yields unbounded params (PageSize 0).
func ParsePagination(r *http.Request) domain.PaginationParams {
	q := r.URL.Query()
	if q.Get("page_size") == AllPages {
		return domain.PaginationParams{Page: DefaultPage}
	}
	page := DefaultPage
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 1 {
		page = min(v, MaxPage)
	}
	pageSize := DefaultPageSize
	if v, err := strconv.Atoi(q.Get("page_size")); err == nil && v >= 1 {
		pageSize = min(v, MaxPageSize)
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPaginationMeta builds PaginationMeta for params and the total count.
// An unbounded request reports a single page.
func NewPaginationMeta(params domain.PaginationParams, total int) PaginationMeta {
	totalPages := 0
	switch {
	case params.Unbounded() && total > 0:
		totalPages = 1
	case params.PageSize > 0:
		totalPages = (total + params.PageSize - 1) / params.PageSize
	}
	return PaginationMeta{
		Page:       params.Page,
		PageSize:   params.PageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
