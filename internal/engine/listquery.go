package engine

import "math"

const (
	// DefaultLimit applies when a list request carries no limit.
	DefaultLimit = 20
	// MaxLimit caps the page size of any list request.
	MaxLimit = 1000
)

// ListQuery is a request-scoped list specification: pagination, free-text
// search, sort expression, requested output fields, and an open map of
// filter key/value pairs. Role and Actor identify the caller for field
// projection and audit logging. Treated as immutable once constructed.
type ListQuery struct {
	Page    int
	Limit   int
	Search  string
	Sort    string
	Fields  []string
	Filters map[string]string
	Role    string
	Actor   string
}

// Normalized returns a copy with page and limit clamped to valid bounds.
func (q ListQuery) Normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// Pagination describes the position of one page within a filtered result
// set. Total always reflects the filtered count, not the full table.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PageResult is one page of entities plus its pagination envelope.
type PageResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPageResult builds a PageResult with computed totalPages, hasNext, and
// hasPrev. A nil item slice is normalized to an empty one.
func NewPageResult[T any](items []T, total int64, page, limit int) *PageResult[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	if items == nil {
		items = []T{}
	}

	return &PageResult[T]{
		Data: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}
