// Package listquery turns list request parameters into paged storage
// queries for every catalog entity kind.
package listquery

import (
	"github.com/me/cinedex/pkg/model"
)

// Entity describes how one entity kind is listed: its table, the text
// column searched by the filter, and the fields it can be sorted by.
type Entity interface {
	Kind() model.EntityKind
	Table() string
	// Columns are the selected columns, in scan order.
	Columns() []string
	// FilterField is the request-level name of the searched field.
	FilterField() string
	FilterColumn() string
	// DefaultSort replaces unknown sort fields.
	DefaultSort() string
	SortColumn(field string) (string, bool)
	SortFields() []string
	// Tags label cached reads of this kind; a write to the kind clears them.
	Tags() []string
}

type field struct {
	name   string
	column string
}

type entity struct {
	kind    model.EntityKind
	table   string
	columns []string
	filter  field
	sorts   []field // first entry is the default
}

func (e *entity) Kind() model.EntityKind { return e.kind }
func (e *entity) Table() string          { return e.table }
func (e *entity) Columns() []string      { return e.columns }
func (e *entity) FilterField() string    { return e.filter.name }
func (e *entity) FilterColumn() string   { return e.filter.column }
func (e *entity) DefaultSort() string    { return e.sorts[0].name }
func (e *entity) Tags() []string         { return []string{string(e.kind)} }

func (e *entity) SortColumn(name string) (string, bool) {
	for _, f := range e.sorts {
		if f.name == name {
			return f.column, true
		}
	}
	return "", false
}

func (e *entity) SortFields() []string {
	names := make([]string, len(e.sorts))
	for i, f := range e.sorts {
		names[i] = f.name
	}
	return names
}

var (
	title     = field{"title", "title"}
	fullname  = field{"fullname", "fullname"}
	createdAt = field{"createdAt", "created_at"}
	year      = field{"releaseYear", "release_year"}
	rating    = field{"rating", "rating"}
	duration  = field{"duration", "duration"}
	birthday  = field{"birthday", "birthday"}
)

// Movies through Users are the built-in entity definitions.
var (
	Movies Entity = &entity{
		kind:    model.KindMovies,
		table:   "movies",
		columns: []string{"id", "title", "description", "release_year", "duration", "rating", "genres", "created_at", "updated_at"},
		filter:  title,
		sorts:   []field{title, year, rating, duration, createdAt},
	}
	Series Entity = &entity{
		kind:    model.KindSeries,
		table:   "series",
		columns: []string{"id", "title", "description", "release_year", "end_year", "rating", "genres", "created_at", "updated_at"},
		filter:  title,
		sorts:   []field{title, year, {"endYear", "end_year"}, rating, createdAt},
	}
	Seasons Entity = &entity{
		kind:    model.KindSeasons,
		table:   "seasons",
		columns: []string{"id", "series_id", "title", "season_number", "release_year", "created_at", "updated_at"},
		filter:  title,
		sorts:   []field{title, {"seasonNumber", "season_number"}, year, createdAt},
	}
	Episodes Entity = &entity{
		kind:    model.KindEpisodes,
		table:   "episodes",
		columns: []string{"id", "season_id", "title", "episode_number", "duration", "air_date", "description", "created_at", "updated_at"},
		filter:  title,
		sorts:   []field{title, {"episodeNumber", "episode_number"}, duration, {"airDate", "air_date"}, createdAt},
	}
	Actors Entity = &entity{
		kind:    model.KindActors,
		table:   "actors",
		columns: []string{"id", "fullname", "birthday", "nationality", "bio", "created_at", "updated_at"},
		filter:  fullname,
		sorts:   []field{fullname, birthday, {"nationality", "nationality"}, createdAt},
	}
	Crew Entity = &entity{
		kind:    model.KindCrew,
		table:   "crew",
		columns: []string{"id", "fullname", "role", "birthday", "bio", "created_at", "updated_at"},
		filter:  fullname,
		sorts:   []field{fullname, {"role", "role"}, birthday, createdAt},
	}
	Genres Entity = &entity{
		kind:    model.KindGenres,
		table:   "genres",
		columns: []string{"id", "name", "created_at", "updated_at"},
		filter:  field{"name", "name"},
		sorts:   []field{{"name", "name"}, createdAt},
	}
	Users Entity = &entity{
		kind:    model.KindUsers,
		table:   "users",
		columns: []string{"id", "user_name", "email", "role", "password_hash", "created_at", "updated_at"},
		filter:  field{"userName", "user_name"},
		sorts:   []field{{"userName", "user_name"}, {"email", "email"}, {"role", "role"}, createdAt},
	}
)

// Registry maps entity kinds to their definitions.
type Registry struct {
	entities map[model.EntityKind]Entity
	order    []model.EntityKind
}

// NewRegistry creates a registry holding the given entities.
func NewRegistry(entities ...Entity) *Registry {
	r := &Registry{entities: make(map[model.EntityKind]Entity, len(entities))}
	for _, e := range entities {
		if _, dup := r.entities[e.Kind()]; !dup {
			r.order = append(r.order, e.Kind())
		}
		r.entities[e.Kind()] = e
	}
	return r
}

// DefaultRegistry holds all eight catalog entities.
func DefaultRegistry() *Registry {
	return NewRegistry(Movies, Series, Seasons, Episodes, Actors, Crew, Genres, Users)
}

// Lookup returns the entity for kind or an *model.UnsupportedEntityError.
func (r *Registry) Lookup(kind model.EntityKind) (Entity, error) {
	e, ok := r.entities[kind]
	if !ok {
		return nil, &model.UnsupportedEntityError{Kind: string(kind)}
	}
	return e, nil
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []model.EntityKind {
	return append([]model.EntityKind(nil), r.order...)
}
