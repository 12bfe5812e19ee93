package common

import (
	"net/http"
	"strconv"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// PaginationParams are the page window requested by the client.
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// ExtractPaginationParams reads page/page_size from the query string,
// clamping anything out of range back to sane values.
func ExtractPaginationParams(r *http.Request) PaginationParams {
	q := r.URL.Query()
	params := PaginationParams{
		Page:     queryInt(q.Get("page"), 1),
		PageSize: queryInt(q.Get("page_size"), defaultPageSize),
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = defaultPageSize
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	return params
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// Offset is the zero-based index of the first item on the requested page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PaginationInfo describes the window a PaginatedResult covers.
type PaginationInfo struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// PaginatedResult pairs one page of items with its window descriptor.
type PaginatedResult struct {
	Items      interface{}     `json:"items"`
	Pagination *PaginationInfo `json:"pagination"`
}

// NewPaginatedResult assembles a page of items with computed page counts.
func NewPaginatedResult(items interface{}, page, pageSize, total int) *PaginatedResult {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return &PaginatedResult{
		Items: items,
		Pagination: &PaginationInfo{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: pages,
			HasNext:    page < pages,
			HasPrev:    page > 1,
		},
	}
}
