// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"stockreturn/internal/domain"
)

// --- Pagination ---

// PageQuery is the limit/offset pair accepted by list endpoints.
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ToListFilter converts into the shared domain filter.
func (p PageQuery) ToListFilter(search, orderBy string) domain.ListFilter {
	f := domain.DefaultListFilter()
	if p.Limit > 0 {
		f.Limit = p.Limit
	}
	f.Offset = p.Offset
	f.Search = search
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	return f
}

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ErrorResponse documents the body rendered by the error middleware.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
