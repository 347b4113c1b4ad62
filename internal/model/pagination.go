package model

// Pagination describes one page of a listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes Pages as ceil(total/limit) without overflowing.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 && total > 0 {
		pages = total / limit
		if total%limit != 0 {
			pages++
		}
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// AuditRequestPage is a page of audit requests, most recent first.
type AuditRequestPage struct {
	Records    []*AuditRequest
	Pagination Pagination
}

// Store identifies which backend serviced an operation.
type Store string

const (
	StorePrimary  Store = "primary"
	StoreFallback Store = "fallback"
)
