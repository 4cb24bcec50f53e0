package common

import (
	"net/http"
	"strconv"
)

// Pagination is echoed back in order-history list responses so clients can
// page without counting on their own.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
}

// ParsePagination reads `page` and `limit` from the query string. Missing or
// malformed values fall back to page 1 and defaultPerPage.
func ParsePagination(r *http.Request, defaultPerPage int) (page, perPage int) {
	q := r.URL.Query()
	page = positiveOr(q.Get("page"), 1)
	perPage = positiveOr(q.Get("limit"), defaultPerPage)
	return page, perPage
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
