package listquery

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/me/cinedex/pkg/model"
)

// NoSort is the sort value that selects natural storage order.
const NoSort = "none"

// Request parameter names shared by every kind.
const (
	ParamPage     = "page"
	ParamPageSize = "pageSize"
	ParamSearch   = "search"
)

// Limits bounds the page size accepted from requests.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// DefaultLimits returns a page size of 10, capped at 100.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: 10, MaxPageSize: 100}
}

func (l Limits) withDefaults() Limits {
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = 10
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = 100
	}
	if l.DefaultPageSize > l.MaxPageSize {
		l.DefaultPageSize = l.MaxPageSize
	}
	return l
}

// SortParam is the request parameter holding the sort field for kind,
// e.g. "moviesSortBy".
func SortParam(kind model.EntityKind) string {
	return string(kind) + "SortBy"
}

// DirectionParam is the request parameter holding the sort direction for
// kind, e.g. "moviesAscOrDesc".
func DirectionParam(kind model.EntityKind) string {
	return string(kind) + "AscOrDesc"
}

// SearchParam is the kind-scoped alias of the search parameter.
func SearchParam(kind model.EntityKind) string {
	return string(kind) + "Search"
}

// Normalize turns raw request parameters into a QueryDescriptor for e.
// Bad input is defaulted, never rejected:
//   - a page that is missing, non-numeric or below 1 becomes 1
//   - a missing sort or "none" clears both field and direction
//   - a sort without direction is ascending
//   - an unknown sort field becomes the entity's default field
func Normalize(e Entity, values url.Values, limits Limits) model.QueryDescriptor {
	limits = limits.withDefaults()
	kind := e.Kind()

	desc := model.QueryDescriptor{
		EntityKind: kind,
		Page:       positiveInt(values.Get(ParamPage), 1),
		PageSize:   positiveInt(values.Get(ParamPageSize), limits.DefaultPageSize),
	}
	if desc.PageSize > limits.MaxPageSize {
		desc.PageSize = limits.MaxPageSize
	}

	sort := strings.TrimSpace(values.Get(SortParam(kind)))
	if sort != "" && !strings.EqualFold(sort, NoSort) {
		if _, ok := e.SortColumn(sort); !ok {
			sort = e.DefaultSort()
		}
		desc.SortField = sort
		desc.SortDirection = model.SortAsc
		if strings.EqualFold(strings.TrimSpace(values.Get(DirectionParam(kind))), string(model.SortDesc)) {
			desc.SortDirection = model.SortDesc
		}
	}

	search := strings.TrimSpace(values.Get(ParamSearch))
	if search == "" {
		search = strings.TrimSpace(values.Get(SearchParam(kind)))
	}
	if search != "" {
		desc.FilterField = e.FilterField()
		desc.FilterValue = search
	}

	return desc
}

// Values renders desc back into request parameters, the inverse of Normalize.
func Values(desc model.QueryDescriptor) url.Values {
	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(desc.Page))
	v.Set(ParamPageSize, strconv.Itoa(desc.PageSize))
	if desc.SortField != "" {
		v.Set(SortParam(desc.EntityKind), desc.SortField)
		v.Set(DirectionParam(desc.EntityKind), string(desc.SortDirection))
	}
	if desc.FilterValue != "" {
		v.Set(ParamSearch, desc.FilterValue)
	}
	return v
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
