package listquery

import (
	"context"
	"fmt"

	"github.com/me/cinedex/pkg/model"
)

// CountFunc counts the rows matching a query's predicate.
type CountFunc func(ctx context.Context, q Query) (int, error)

// FindFunc loads one window of rows for a query.
type FindFunc[T any] func(ctx context.Context, q Query) ([]T, error)

// Paginate runs count and find for q. A page past the last one yields no
// items and the unchanged total; the page is never clamped.
func Paginate[T any](ctx context.Context, q Query, count CountFunc, find FindFunc[T]) (*model.PagedResult[T], error) {
	total, err := count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count %s: %w", q.Table, err)
	}

	items := []T{}
	if q.Offset < total {
		found, err := find(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", q.Table, err)
		}
		if found != nil {
			items = found
		}
	}

	page := 1
	if q.Limit > 0 {
		page = q.Offset/q.Limit + 1
	}
	return &model.PagedResult[T]{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   q.Limit,
		PageCount:  model.PageCount(total, q.Limit),
	}, nil
}
