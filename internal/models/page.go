package models

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Page*Size within int for every accepted size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// SortOrder is one ORDER BY term expressed in API field names.
type SortOrder struct {
	Field string
	Desc  bool
}

// PageRequest selects a zero-based page of results.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Normalized clamps page and size into their valid ranges.
func (p PageRequest) Normalized() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the first element on the page.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// WithDefaultSort returns p unchanged when it already carries a sort,
// otherwise p ordered by the given defaults.
func (p PageRequest) WithDefaultSort(defaults ...SortOrder) PageRequest {
	if len(p.Sort) == 0 {
		p.Sort = defaults
	}
	return p
}

// ValidateSort fails with InvalidInput naming the first field not in allowed.
func (p PageRequest) ValidateSort(allowed map[string]string) error {
	for _, o := range p.Sort {
		if _, ok := allowed[o.Field]; !ok {
			return NewInvalidInputError("sort", "Unsupported sort field: "+o.Field)
		}
	}
	return nil
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// NewPage assembles a Page from a window of rows and the total row count.
func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
	}
}

// ReviewSortColumns maps sortable review fields to their columns.
var ReviewSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"rating":    "rating",
}

// CommentSortColumns maps sortable comment fields to their columns.
var CommentSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// WineSortColumns maps sortable wine fields to their columns.
var WineSortColumns = map[string]string{
	"name":      "name",
	"year":      "year",
	"createdAt": "created_at",
}
