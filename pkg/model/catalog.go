package model

import "time"

// Meta carries the identity and timestamps shared by every record.
type Meta struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// RecordID returns the record identifier.
func (m *Meta) RecordID() string { return m.ID }

// Metadata exposes the shared fields for stamping on save.
func (m *Meta) Metadata() *Meta { return m }

// Movie is a feature film.
type Movie struct {
	Meta        `yaml:",inline"`
	Title       string   `json:"title" yaml:"title" validate:"required,max=255"`
	Description string   `json:"description" yaml:"description" validate:"max=4000"`
	ReleaseYear int      `json:"release_year" yaml:"release_year" validate:"gte=0,lte=3000"`
	Duration    int      `json:"duration" yaml:"duration" validate:"gte=0"` // minutes
	Rating      float64  `json:"rating" yaml:"rating" validate:"gte=0,lte=10"`
	Genres      []string `json:"genres" yaml:"genres"`
}

func (m *Movie) RecordKind() EntityKind { return KindMovies }
func (m *Movie) Label() string          { return m.Title }

// Series is a television show made of seasons.
type Series struct {
	Meta        `yaml:",inline"`
	Title       string   `json:"title" yaml:"title" validate:"required,max=255"`
	Description string   `json:"description" yaml:"description" validate:"max=4000"`
	ReleaseYear int      `json:"release_year" yaml:"release_year" validate:"gte=0,lte=3000"`
	EndYear     int      `json:"end_year" yaml:"end_year" validate:"gte=0,lte=3000"` // 0 while still airing
	Rating      float64  `json:"rating" yaml:"rating" validate:"gte=0,lte=10"`
	Genres      []string `json:"genres" yaml:"genres"`
}

func (s *Series) RecordKind() EntityKind { return KindSeries }
func (s *Series) Label() string          { return s.Title }

// Season belongs to a series.
type Season struct {
	Meta         `yaml:",inline"`
	SeriesID     string `json:"series_id" yaml:"series_id" validate:"required"`
	Title        string `json:"title" yaml:"title" validate:"required,max=255"`
	SeasonNumber int    `json:"season_number" yaml:"season_number" validate:"gte=0"`
	ReleaseYear  int    `json:"release_year" yaml:"release_year" validate:"gte=0,lte=3000"`
}

func (s *Season) RecordKind() EntityKind { return KindSeasons }
func (s *Season) Label() string          { return s.Title }

// Episode belongs to a season.
type Episode struct {
	Meta          `yaml:",inline"`
	SeasonID      string `json:"season_id" yaml:"season_id" validate:"required"`
	Title         string `json:"title" yaml:"title" validate:"required,max=255"`
	EpisodeNumber int    `json:"episode_number" yaml:"episode_number" validate:"gte=0"`
	Duration      int    `json:"duration" yaml:"duration" validate:"gte=0"`
	AirDate       string `json:"air_date" yaml:"air_date" validate:"omitempty,datetime=2006-01-02"`
	Description   string `json:"description" yaml:"description" validate:"max=4000"`
}

func (e *Episode) RecordKind() EntityKind { return KindEpisodes }
func (e *Episode) Label() string          { return e.Title }

// Actor is a cast member.
type Actor struct {
	Meta        `yaml:",inline"`
	Fullname    string `json:"fullname" yaml:"fullname" validate:"required,max=255"`
	Birthday    string `json:"birthday" yaml:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Nationality string `json:"nationality" yaml:"nationality" validate:"max=128"`
	Bio         string `json:"bio" yaml:"bio" validate:"max=4000"`
}

func (a *Actor) RecordKind() EntityKind { return KindActors }
func (a *Actor) Label() string          { return a.Fullname }

// Crew is an off-screen contributor (director, writer, composer).
type Crew struct {
	Meta     `yaml:",inline"`
	Fullname string `json:"fullname" yaml:"fullname" validate:"required,max=255"`
	Role     string `json:"role" yaml:"role" validate:"max=128"`
	Birthday string `json:"birthday" yaml:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Bio      string `json:"bio" yaml:"bio" validate:"max=4000"`
}

func (c *Crew) RecordKind() EntityKind { return KindCrew }
func (c *Crew) Label() string          { return c.Fullname }

// Genre is a catalog classification.
type Genre struct {
	Meta `yaml:",inline"`
	Name string `json:"name" yaml:"name" validate:"required,max=128"`
}

func (g *Genre) RecordKind() EntityKind { return KindGenres }
func (g *Genre) Label() string          { return g.Name }
