package model

// Page sizes of the listing views.
const (
	PartsPageSize    = 12
	LowStockPageSize = 10
	UsagePageSize    = 15
)

// Page is one page of a listing plus the metadata needed to render a pager.
type Page[T any] struct {
	Data        []T `json:"data"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

// NewPage builds a page. A nil data slice is replaced by an empty one.
func NewPage[T any](data []T, page, perPage, total int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data:        data,
		CurrentPage: page,
		LastPage:    LastPage(total, perPage),
		PerPage:     perPage,
		Total:       total,
	}
}

// LastPage returns the number of the last page, at least 1.
func LastPage(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// PageOffset clamps page to at least 1 and returns it with the row offset.
func PageOffset(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * perPage
}
