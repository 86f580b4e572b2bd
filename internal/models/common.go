package models

// Pagination describes offset-based pagination metadata.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes derived pagination fields.
func NewPagination(page, perPage, total int) *Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return &Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}
