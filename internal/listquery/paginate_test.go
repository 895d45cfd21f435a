package listquery

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/me/cinedex/pkg/model"
)

// rows simulates a table of n integers with natural order.
func rows(n int) (CountFunc, FindFunc[int], *int) {
	finds := 0
	count := func(ctx context.Context, q Query) (int, error) { return n, nil }
	find := func(ctx context.Context, q Query) ([]int, error) {
		finds++
		var out []int
		for i := q.Offset; i < n && i < q.Offset+q.Limit; i++ {
			out = append(out, i+1)
		}
		return out, nil
	}
	return count, find, &finds
}

func TestPaginate_SecondPage(t *testing.T) {
	count, find, _ := rows(25)
	res, err := Paginate(context.Background(), Query{Table: "movies", Limit: 10, Offset: 10}, count, find)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(res.Items) != 10 || res.Items[0] != 11 || res.Items[9] != 20 {
		t.Errorf("items = %v, want 11..20", res.Items)
	}
	if res.TotalCount != 25 || res.PageCount != 3 || res.Page != 2 || res.PageSize != 10 {
		t.Errorf("result = %+v", res)
	}
}

func TestPaginate_PastLastPage(t *testing.T) {
	count, find, finds := rows(25)
	res, err := Paginate(context.Background(), Query{Table: "movies", Limit: 10, Offset: 40}, count, find)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if res.Items == nil || len(res.Items) != 0 {
		t.Errorf("items = %#v, want empty non-nil", res.Items)
	}
	if res.TotalCount != 25 || res.PageCount != 3 || res.Page != 5 {
		t.Errorf("result = %+v", res)
	}
	if *finds != 0 {
		t.Errorf("find called %d times past the last page", *finds)
	}
}

func TestPaginate_Empty(t *testing.T) {
	count, find, _ := rows(0)
	res, err := Paginate(context.Background(), Query{Table: "genres", Limit: 10}, count, find)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if res.TotalCount != 0 || res.PageCount != 0 || len(res.Items) != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestPaginate_Errors(t *testing.T) {
	boom := errors.New("db down")
	_, find, _ := rows(5)

	_, err := Paginate(context.Background(), Query{Table: "actors", Limit: 5},
		func(context.Context, Query) (int, error) { return 0, boom }, find)
	if !errors.Is(err, boom) {
		t.Errorf("count error = %v, want wrapped %v", err, boom)
	}

	_, err = Paginate(context.Background(), Query{Table: "actors", Limit: 5},
		func(context.Context, Query) (int, error) { return 5, nil },
		func(context.Context, Query) ([]int, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("find error = %v, want wrapped %v", err, boom)
	}
}

func TestPaginate_HugePageIsPastTheEnd(t *testing.T) {
	e, err := DefaultRegistry().Lookup(model.KindMovies)
	if err != nil {
		t.Fatal(err)
	}
	d := Normalize(e, url.Values{"page": {"92233720368547760"}, "pageSize": {"100"}}, DefaultLimits())
	q, err := testBuilder().Build(d)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Offset < 0 {
		t.Fatalf("offset overflowed: %d", q.Offset)
	}

	count, find, finds := rows(25)
	res, err := Paginate(context.Background(), q, count, find)
	if err != nil {
		t.Fatalf("Paginate: %v", err)
	}
	if len(res.Items) != 0 || *finds != 0 {
		t.Errorf("items = %v (find called %d times), want none", res.Items, *finds)
	}
	if res.Page < 1 || res.TotalCount != 25 || res.PageCount != 1 {
		t.Errorf("result = %+v", res)
	}
}
