package model

import "math"

// SortDirection orders a sorted list.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// QueryDescriptor is the normalized shape of a list request.
// Page and PageSize are always positive. SortDirection is set only when
// SortField is set; an empty SortField means natural storage order.
type QueryDescriptor struct {
	EntityKind    EntityKind    `json:"entity_kind"`
	SortField     string        `json:"sort_field,omitempty"`
	SortDirection SortDirection `json:"sort_direction,omitempty"`
	Page          int           `json:"page"`
	PageSize      int           `json:"page_size"`
	FilterField   string        `json:"filter_field,omitempty"`
	FilterValue   string        `json:"filter_value,omitempty"`
}

// Offset is the number of rows skipped before the requested page. Pages
// whose offset does not fit in an int saturate at a whole page window
// past any real table, one short of the largest so that offset/size+1
// still fits too.
func (d QueryDescriptor) Offset() int {
	if d.Page <= 1 || d.PageSize <= 0 {
		return 0
	}
	if last := math.MaxInt/d.PageSize - 1; d.Page-1 > last {
		return last * d.PageSize
	}
	return (d.Page - 1) * d.PageSize
}

// PagedResult is one page of a list plus the unpaged total.
type PagedResult[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	PageCount  int `json:"page_count"`
}

// PageCount returns ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ListPage is a PagedResult with its item type erased, plus the descriptor
// that produced it. It feeds templates and the JSON envelope.
type ListPage struct {
	Kind       EntityKind
	Items      any
	Records    []Record // Items as records; nil for pages of non-record items
	Len        int
	TotalCount int
	Page       int
	PageSize   int
	PageCount  int
	Query      QueryDescriptor
}

// Erase converts a typed result into a ListPage.
func Erase[T any](r *PagedResult[T], desc QueryDescriptor) *ListPage {
	return &ListPage{
		Kind:       desc.EntityKind,
		Items:      r.Items,
		Len:        len(r.Items),
		TotalCount: r.TotalCount,
		Page:       r.Page,
		PageSize:   r.PageSize,
		PageCount:  r.PageCount,
		Query:      desc,
	}
}
