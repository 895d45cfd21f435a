package listquery

import (
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/me/cinedex/pkg/model"
)

func testBuilder() *Builder {
	return NewBuilder(DefaultRegistry(), DefaultLimits())
}

func TestBuild_OffsetLimit(t *testing.T) {
	q, err := testBuilder().Build(model.QueryDescriptor{EntityKind: model.KindMovies, Page: 3, PageSize: 10})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Offset != 20 || q.Limit != 10 {
		t.Errorf("offset/limit = %d/%d, want 20/10", q.Offset, q.Limit)
	}
	if q.OrderBy != "" {
		t.Errorf("OrderBy = %q, want natural order", q.OrderBy)
	}
	if q.Where != "" {
		t.Errorf("Where = %q, want empty", q.Where)
	}
}

func TestBuild_BadPageActsAsFirst(t *testing.T) {
	b := testBuilder()
	for _, kind := range model.AllKinds {
		first, err := b.Build(model.QueryDescriptor{EntityKind: kind, Page: 1, PageSize: 10})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		for _, page := range []int{0, -1, -100} {
			q, err := b.Build(model.QueryDescriptor{EntityKind: kind, Page: page, PageSize: 10})
			if err != nil {
				t.Fatalf("%s page %d: %v", kind, page, err)
			}
			if !reflect.DeepEqual(q, first) {
				t.Errorf("%s page %d: %+v, want %+v", kind, page, q, first)
			}
		}
		for _, raw := range []string{"0", "-3", "abc", ""} {
			e, _ := DefaultRegistry().Lookup(kind)
			d := Normalize(e, url.Values{"page": {raw}}, DefaultLimits())
			q, _ := b.Build(d)
			if !reflect.DeepEqual(q, first) {
				t.Errorf("%s page %q: %+v, want %+v", kind, raw, q, first)
			}
		}
	}
}

func TestBuild_Sort(t *testing.T) {
	tests := []struct {
		name string
		desc model.QueryDescriptor
		want string
	}{
		{"actors desc", model.QueryDescriptor{EntityKind: model.KindActors, SortField: "fullname", SortDirection: model.SortDesc, Page: 1, PageSize: 5}, "fullname DESC"},
		{"movies year", model.QueryDescriptor{EntityKind: model.KindMovies, SortField: "releaseYear", SortDirection: model.SortAsc, Page: 1, PageSize: 5}, "release_year ASC"},
		{"users camel", model.QueryDescriptor{EntityKind: model.KindUsers, SortField: "userName", SortDirection: model.SortAsc, Page: 1, PageSize: 5}, "user_name ASC"},
		{"episodes air date", model.QueryDescriptor{EntityKind: model.KindEpisodes, SortField: "airDate", SortDirection: model.SortDesc, Page: 1, PageSize: 5}, "air_date DESC"},
		{"unknown falls back", model.QueryDescriptor{EntityKind: model.KindGenres, SortField: "nope", SortDirection: model.SortAsc, Page: 1, PageSize: 5}, "name ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := testBuilder().Build(tt.desc)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if q.OrderBy != tt.want {
				t.Errorf("OrderBy = %q, want %q", q.OrderBy, tt.want)
			}
		})
	}
}

func TestBuild_Filter(t *testing.T) {
	q, err := testBuilder().Build(model.QueryDescriptor{
		EntityKind:  model.KindUsers,
		Page:        1,
		PageSize:    10,
		FilterField: "userName",
		FilterValue: "Al_ce%",
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Where != "LOWER(user_name) LIKE ? ESCAPE '!'" {
		t.Errorf("Where = %q", q.Where)
	}
	if len(q.Args) != 1 || q.Args[0] != "%al!_ce!%%" {
		t.Errorf("Args = %v", q.Args)
	}

	sel, args := q.SelectSQL()
	wantSel := "SELECT id, user_name, email, role, password_hash, created_at, updated_at FROM users WHERE LOWER(user_name) LIKE ? ESCAPE '!' LIMIT ? OFFSET ?"
	if sel != wantSel {
		t.Errorf("SelectSQL = %q\nwant      %q", sel, wantSel)
	}
	if len(args) != 3 || args[1] != 10 || args[2] != 0 {
		t.Errorf("select args = %v", args)
	}

	count, cargs := q.CountSQL()
	if count != "SELECT COUNT(*) FROM users WHERE LOWER(user_name) LIKE ? ESCAPE '!'" {
		t.Errorf("CountSQL = %q", count)
	}
	if len(cargs) != 1 {
		t.Errorf("count args = %v", cargs)
	}
}

func TestBuild_FilterColumnPerKind(t *testing.T) {
	want := map[model.EntityKind]string{
		model.KindMovies:   "title",
		model.KindSeries:   "title",
		model.KindSeasons:  "title",
		model.KindEpisodes: "title",
		model.KindActors:   "fullname",
		model.KindCrew:     "fullname",
		model.KindGenres:   "name",
		model.KindUsers:    "user_name",
	}
	for kind, col := range want {
		q, err := testBuilder().Build(model.QueryDescriptor{EntityKind: kind, Page: 1, PageSize: 1, FilterValue: "x"})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if q.Where != "LOWER("+col+") LIKE ? ESCAPE '!'" {
			t.Errorf("%s: Where = %q", kind, q.Where)
		}
	}
}

func TestBuild_UnsupportedEntity(t *testing.T) {
	_, err := testBuilder().Build(model.QueryDescriptor{EntityKind: "nonexistent", Page: 1, PageSize: 10})
	var ue *model.UnsupportedEntityError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UnsupportedEntityError", err)
	}
	if ue.Kind != "nonexistent" {
		t.Errorf("Kind = %q", ue.Kind)
	}
}

func TestBuild_ClampsPageSize(t *testing.T) {
	q, err := NewBuilder(DefaultRegistry(), Limits{DefaultPageSize: 20, MaxPageSize: 50}).
		Build(model.QueryDescriptor{EntityKind: model.KindGenres, Page: 2, PageSize: 1000})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if q.Limit != 50 || q.Offset != 50 {
		t.Errorf("limit/offset = %d/%d, want 50/50", q.Limit, q.Offset)
	}
}
