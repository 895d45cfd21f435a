package catalog

import (
	"context"

	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/pkg/model"
)

// kindOps is the per-kind behaviour of the service. Each kind has exactly
// one implementation; there is no string switch to fall through.
type kindOps interface {
	// list runs a built query through the cache and the paginator.
	list(ctx context.Context, s *Service, e listquery.Entity, desc model.QueryDescriptor, q listquery.Query) (*model.ListPage, error)
	// newRecord returns an empty record for decoding payloads.
	newRecord() model.Record
	idPrefix() string
}

type typedOps[T model.Record] struct {
	find   func(store.Store) listquery.FindFunc[T]
	create func() model.Record
	prefix string
}

func (o typedOps[T]) list(ctx context.Context, s *Service, e listquery.Entity, desc model.QueryDescriptor, q listquery.Query) (*model.ListPage, error) {
	key := cache.Key("list:"+string(e.Kind()), desc)
	res, err := cache.Fetch(ctx, s.cache, key, e.Tags(), func(ctx context.Context) (*model.PagedResult[T], error) {
		return listquery.Paginate(ctx, q, s.store.Count, o.find(s.store))
	})
	if err != nil {
		return nil, err
	}
	page := model.Erase(res, desc)
	page.Records = make([]model.Record, len(res.Items))
	for i, rec := range res.Items {
		page.Records[i] = rec
	}
	return page, nil
}

func (o typedOps[T]) newRecord() model.Record { return o.create() }
func (o typedOps[T]) idPrefix() string        { return o.prefix }

var ops = map[model.EntityKind]kindOps{
	model.KindMovies: typedOps[*model.Movie]{
		find:   func(st store.Store) listquery.FindFunc[*model.Movie] { return st.ListMovies },
		create: func() model.Record { return &model.Movie{} },
		prefix: "mov_",
	},
	model.KindSeries: typedOps[*model.Series]{
		find:   func(st store.Store) listquery.FindFunc[*model.Series] { return st.ListSeries },
		create: func() model.Record { return &model.Series{} },
		prefix: "ser_",
	},
	model.KindSeasons: typedOps[*model.Season]{
		find:   func(st store.Store) listquery.FindFunc[*model.Season] { return st.ListSeasons },
		create: func() model.Record { return &model.Season{} },
		prefix: "sea_",
	},
	model.KindEpisodes: typedOps[*model.Episode]{
		find:   func(st store.Store) listquery.FindFunc[*model.Episode] { return st.ListEpisodes },
		create: func() model.Record { return &model.Episode{} },
		prefix: "epi_",
	},
	model.KindActors: typedOps[*model.Actor]{
		find:   func(st store.Store) listquery.FindFunc[*model.Actor] { return st.ListActors },
		create: func() model.Record { return &model.Actor{} },
		prefix: "act_",
	},
	model.KindCrew: typedOps[*model.Crew]{
		find:   func(st store.Store) listquery.FindFunc[*model.Crew] { return st.ListCrew },
		create: func() model.Record { return &model.Crew{} },
		prefix: "crw_",
	},
	model.KindGenres: typedOps[*model.Genre]{
		find:   func(st store.Store) listquery.FindFunc[*model.Genre] { return st.ListGenres },
		create: func() model.Record { return &model.Genre{} },
		prefix: "gen_",
	},
	model.KindUsers: typedOps[*model.User]{
		find:   func(st store.Store) listquery.FindFunc[*model.User] { return st.ListUsers },
		create: func() model.Record { return &model.User{} },
		prefix: "usr_",
	},
}

func opsFor(kind model.EntityKind) (kindOps, error) {
	o, ok := ops[kind]
	if !ok {
		return nil, &model.UnsupportedEntityError{Kind: string(kind)}
	}
	return o, nil
}
