package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status     string      `json:"status"`
	RequestID  string      `json:"request_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       any         `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Error      *APIError   `json:"error"`
}

// Pagination holds pagination metadata for list endpoints.
type Pagination struct {
	Page      int  `json:"page"`
	PageSize  int  `json:"page_size"`
	Total     int  `json:"total"`
	PageCount int  `json:"page_count"`
	HasMore   bool `json:"has_more"`
}

// NewPagination derives envelope metadata from a list page.
func NewPagination(p *ListPage) *Pagination {
	return &Pagination{
		Page:      p.Page,
		PageSize:  p.PageSize,
		Total:     p.TotalCount,
		PageCount: p.PageCount,
		HasMore:   p.Page < p.PageCount,
	}
}
