package model

import "strings"

// EntityKind names a catalog record type that supports list, sort, filter
// and paginate.
type EntityKind string

const (
	KindMovies   EntityKind = "movies"
	KindSeries   EntityKind = "series"
	KindSeasons  EntityKind = "seasons"
	KindEpisodes EntityKind = "episodes"
	KindActors   EntityKind = "actors"
	KindCrew     EntityKind = "crew"
	KindGenres   EntityKind = "genres"
	KindUsers    EntityKind = "users"
)

// AllKinds lists every entity kind in navigation order.
var AllKinds = []EntityKind{
	KindMovies, KindSeries, KindSeasons, KindEpisodes,
	KindActors, KindCrew, KindGenres, KindUsers,
}

var kindAliases = map[string]EntityKind{
	"movie":   KindMovies,
	"serie":   KindSeries,
	"season":  KindSeasons,
	"episode": KindEpisodes,
	"actor":   KindActors,
	"genre":   KindGenres,
	"user":    KindUsers,
}

// ParseEntityKind resolves a plural or singular kind name.
// Anything else yields an *UnsupportedEntityError.
func ParseEntityKind(s string) (EntityKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, k := range AllKinds {
		if string(k) == name {
			return k, nil
		}
	}
	if k, ok := kindAliases[name]; ok {
		return k, nil
	}
	return "", &UnsupportedEntityError{Kind: s}
}

// IsMedia reports whether records of this kind can carry reviews and bookmarks.
func (k EntityKind) IsMedia() bool {
	return k == KindMovies || k == KindSeries
}

// Title returns a display label for the kind.
func (k EntityKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// Record is implemented by every catalog entity.
type Record interface {
	RecordID() string
	RecordKind() EntityKind
	Metadata() *Meta
	// Label is the human-readable name shown in lists.
	Label() string
}
