package ui

import (
	"net/url"
	"strconv"

	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/pkg/model"
)

// pagerWindow is how many page numbers are shown either side of the
// current page.
const pagerWindow = 2

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

// pager drives the first/prev/numbers/next/last control.
type pager struct {
	Page       int
	PageCount  int
	TotalCount int
	First      string
	Prev       string
	Next       string
	Last       string
	Numbers    []pageLink
}

// newPager builds links for page. base is the path the links point to;
// the query string is rebuilt from the page's descriptor so sorting and
// searching survive navigation.
func newPager(base string, page *model.ListPage) pager {
	p := pager{Page: page.Page, PageCount: page.PageCount, TotalCount: page.TotalCount}
	if page.PageCount <= 1 {
		return p
	}

	link := func(n int) string {
		v := listquery.Values(page.Query)
		v.Set(listquery.ParamPage, strconv.Itoa(n))
		return base + "?" + v.Encode()
	}

	if page.Page > 1 {
		p.First = link(1)
		p.Prev = link(min(page.Page-1, page.PageCount))
	}
	if page.Page < page.PageCount {
		p.Next = link(page.Page + 1)
		p.Last = link(page.PageCount)
	}

	from := max(1, page.Page-pagerWindow)
	to := page.PageCount
	if page.Page < page.PageCount-pagerWindow {
		to = page.Page + pagerWindow
	}
	for n := from; n <= to; n++ {
		p.Numbers = append(p.Numbers, pageLink{Number: n, URL: link(n), Current: n == page.Page})
	}
	return p
}

// sortLink returns the URL that sorts the list by field, flipping the
// direction when the list is already sorted by it.
func sortLink(base string, desc model.QueryDescriptor, field string) string {
	v := listquery.Values(desc)
	v.Set(listquery.ParamPage, "1")
	dir := model.SortAsc
	if desc.SortField == field && desc.SortDirection == model.SortAsc {
		dir = model.SortDesc
	}
	v.Set(listquery.SortParam(desc.EntityKind), field)
	v.Set(listquery.DirectionParam(desc.EntityKind), string(dir))
	return base + "?" + v.Encode()
}

// pageParam reads a positive page number from q, defaulting to 1.
func pageParam(q url.Values, name string) int {
	n, err := strconv.Atoi(q.Get(name))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
