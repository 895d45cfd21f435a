// Package seed loads catalog fixtures from YAML and saves them through the
// catalog service.
package seed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/pkg/model"
)

// Fixture is the document layout of a seed file. Include lists further
// fixture files, resolved relative to the including file.
type Fixture struct {
	Include  []string         `yaml:"include"`
	Genres   []*model.Genre   `yaml:"genres"`
	Movies   []*model.Movie   `yaml:"movies"`
	Series   []*model.Series  `yaml:"series"`
	Seasons  []*model.Season  `yaml:"seasons"`
	Episodes []*model.Episode `yaml:"episodes"`
	Actors   []*model.Actor   `yaml:"actors"`
	Crew     []*model.Crew    `yaml:"crew"`
	Users    []*UserEntry     `yaml:"users"`
}

// UserEntry is a user account with its plain password.
type UserEntry struct {
	model.User `yaml:",inline"`
	Password   string `yaml:"password"`
}

// Saver stores one record.
type Saver interface {
	Save(ctx context.Context, rec model.Record) error
}

// Result counts the records saved per kind.
type Result map[model.EntityKind]int

// Total is the number of records saved.
func (r Result) Total() int {
	n := 0
	for _, c := range r {
		n += c
	}
	return n
}

// Load reads a fixture and every file it includes.
func Load(path string) (*Fixture, error) {
	out := &Fixture{}
	if err := load(path, out, map[string]bool{}); err != nil {
		return nil, err
	}
	return out, nil
}

func load(path string, into *Fixture, seen map[string]bool) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if seen[absPath] {
		return fmt.Errorf("include cycle at %s", path)
	}
	seen[absPath] = true

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var doc Fixture
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse fixture %s: %w", filepath.Base(path), err)
	}

	baseDir := filepath.Dir(absPath)
	for _, inc := range doc.Include {
		if !filepath.IsAbs(inc) {
			inc = filepath.Join(baseDir, inc)
		}
		if err := load(inc, into, seen); err != nil {
			return err
		}
	}

	into.Genres = append(into.Genres, doc.Genres...)
	into.Movies = append(into.Movies, doc.Movies...)
	into.Series = append(into.Series, doc.Series...)
	into.Seasons = append(into.Seasons, doc.Seasons...)
	into.Episodes = append(into.Episodes, doc.Episodes...)
	into.Actors = append(into.Actors, doc.Actors...)
	into.Crew = append(into.Crew, doc.Crew...)
	into.Users = append(into.Users, doc.Users...)
	return nil
}

// Records returns the fixture's records in save order: parents before the
// records that reference them. User passwords are hashed here.
func (f *Fixture) Records() ([]model.Record, error) {
	var out []model.Record
	for _, r := range f.Genres {
		out = append(out, r)
	}
	for _, r := range f.Movies {
		out = append(out, r)
	}
	for _, r := range f.Series {
		out = append(out, r)
	}
	for _, r := range f.Seasons {
		out = append(out, r)
	}
	for _, r := range f.Episodes {
		out = append(out, r)
	}
	for _, r := range f.Actors {
		out = append(out, r)
	}
	for _, r := range f.Crew {
		out = append(out, r)
	}
	for _, u := range f.Users {
		// Accounts are matched by id, so reseeding updates them in place.
		if u.ID == "" {
			return nil, fmt.Errorf("user %q: id is required", u.UserName)
		}
		if u.Password != "" {
			if err := catalog.SetPassword(&u.User, u.Password); err != nil {
				return nil, fmt.Errorf("user %q: %w", u.UserName, err)
			}
		}
		out = append(out, &u.User)
	}
	return out, nil
}

// Apply saves every record of f. Records with an id are upserted, so
// applying the same fixture twice leaves one copy of each.
func Apply(ctx context.Context, svc Saver, f *Fixture) (Result, error) {
	recs, err := f.Records()
	if err != nil {
		return nil, err
	}
	res := Result{}
	for _, rec := range recs {
		if err := svc.Save(ctx, rec); err != nil {
			return res, fmt.Errorf("seed %s %q: %w", rec.RecordKind(), rec.Label(), err)
		}
		res[rec.RecordKind()]++
	}
	return res, nil
}

// File loads path and applies it.
func File(ctx context.Context, svc Saver, path string) (Result, error) {
	f, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Apply(ctx, svc, f)
}
