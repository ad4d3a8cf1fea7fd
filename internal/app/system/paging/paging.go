// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// DefaultLimit is the page size for opportunity and program listings.
const DefaultLimit = 12

// MaxLimit caps client-supplied page sizes.
const MaxLimit = 100

// MaxPage caps client-supplied page numbers so Skip cannot overflow.
const MaxPage = math.MaxInt32 / MaxLimit

// Params is a parsed 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Skip is the number of rows before the page. It saturates instead of
// overflowing.
func (p Params) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	pages, limit := int64(p.Page-1), int64(p.Limit)
	if pages > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return pages * limit
}

// Limit64 is Limit as int64 for FindOptions.SetLimit.
func (p Params) Limit64() int64 { return int64(p.Limit) }

// Parse reads the "page" and "limit" query parameters, falling back to page
// 1 and DefaultLimit on missing or invalid input and clamping the page to
// MaxPage and the limit to MaxLimit.
func Parse(r *http.Request) Params {
	return Params{
		Page:  clamp(parsePositive(query.Get(r, "page"), 1), MaxPage),
		Limit: clamp(parsePositive(query.Get(r, "limit"), DefaultLimit), MaxLimit),
	}
}

// Pagination is the block returned alongside list results.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(p Params, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// Slice returns the page window of rows that are already in memory.
func Slice[T any](rows []T, p Params) []T {
	skip := p.Skip()
	if skip < 0 || skip >= int64(len(rows)) {
		return []T{}
	}
	start := int(skip)
	end := start + p.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func parsePositive(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}
