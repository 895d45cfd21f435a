package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/pkg/model"
)

type scanner interface {
	Scan(dest ...any) error
}

// recordTable is the type-erased view of a table used by Get, Save and Delete.
type recordTable interface {
	name() string
	get(ctx context.Context, s *SQLStore, id string) (model.Record, error)
	save(ctx context.Context, s *SQLStore, rec model.Record) error
}

// table binds an entity definition to the row codec of its record type.
// values must return one value per entity column, in column order.
type table[T model.Record] struct {
	entity listquery.Entity
	scan   func(row scanner) (T, error)
	values func(rec T) []any
}

func (t table[T]) name() string { return t.entity.Table() }

func (t table[T]) list(ctx context.Context, s *SQLStore, q listquery.Query) ([]T, error) {
	s.logger.Debug("sql", "op", "list", "table", q.Table, "order", q.OrderBy, "limit", q.Limit, "offset", q.Offset)
	start := time.Now()

	query, args := q.SelectSQL()
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		s.record("list", q.Table, start, err)
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			s.record("list", q.Table, start, err)
			return nil, err
		}
		out = append(out, rec)
	}
	err = rows.Err()
	s.record("list", q.Table, start, err)
	return out, err
}

func (t table[T]) get(ctx context.Context, s *SQLStore, id string) (model.Record, error) {
	s.logger.Debug("sql", "op", "select", "table", t.name(), "id", id)
	start := time.Now()

	query := `SELECT ` + strings.Join(t.entity.Columns(), ", ") + ` FROM ` + t.name() + ` WHERE id = ?`
	rec, err := t.scan(s.db.QueryRowContext(ctx, s.rebind(query), id))
	s.record("select", t.name(), start, err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// save inserts rec, or updates every column except id and created_at when
// a row with the same id exists.
func (t table[T]) save(ctx context.Context, s *SQLStore, rec model.Record) error {
	r, ok := rec.(T)
	if !ok {
		return fmt.Errorf("save %s: unexpected record type %T", t.name(), rec)
	}
	id := rec.RecordID()
	s.logger.Debug("sql", "op", "save", "table", t.name(), "id", id)
	start := time.Now()

	cols := t.entity.Columns()
	vals := t.values(r)
	if len(vals) != len(cols) {
		return fmt.Errorf("save %s: %d values for %d columns", t.name(), len(vals), len(cols))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM `+t.name()+` WHERE id = ?`), id).Scan(&n); err != nil {
		s.record("save", t.name(), start, err)
		return err
	}

	if n == 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
		_, err = tx.ExecContext(ctx,
			s.rebind(`INSERT INTO `+t.name()+` (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders+`)`),
			vals...)
	} else {
		var sets []string
		var args []any
		for i, c := range cols {
			if c == "id" || c == "created_at" {
				continue
			}
			sets = append(sets, c+" = ?")
			args = append(args, vals[i])
		}
		args = append(args, id)
		_, err = tx.ExecContext(ctx,
			s.rebind(`UPDATE `+t.name()+` SET `+strings.Join(sets, ", ")+` WHERE id = ?`),
			args...)
	}
	s.record("save", t.name(), start, err)
	if err != nil {
		return err
	}
	return tx.Commit()
}

var tables = map[model.EntityKind]recordTable{
	model.KindMovies:   movieTable,
	model.KindSeries:   seriesTable,
	model.KindSeasons:  seasonTable,
	model.KindEpisodes: episodeTable,
	model.KindActors:   actorTable,
	model.KindCrew:     crewTable,
	model.KindGenres:   genreTable,
	model.KindUsers:    userTable,
}

func tableFor(kind model.EntityKind) (recordTable, error) {
	t, ok := tables[kind]
	if !ok {
		return nil, &model.UnsupportedEntityError{Kind: string(kind)}
	}
	return t, nil
}

func stamp(m *model.Meta, created, updated int64) {
	m.CreatedAt = fromMillis(created)
	m.UpdatedAt = fromMillis(updated)
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodeList(s string) []string {
	var v []string
	if s == "" {
		return v
	}
	json.Unmarshal([]byte(s), &v)
	return v
}

var movieTable = table[*model.Movie]{
	entity: listquery.Movies,
	scan: func(row scanner) (*model.Movie, error) {
		var m model.Movie
		var genres string
		var created, updated int64
		if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ReleaseYear, &m.Duration, &m.Rating,
			&genres, &created, &updated); err != nil {
			return nil, err
		}
		m.Genres = decodeList(genres)
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Movie) []any {
		return []any{m.ID, m.Title, m.Description, m.ReleaseYear, m.Duration, m.Rating,
			encodeList(m.Genres), millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var seriesTable = table[*model.Series]{
	entity: listquery.Series,
	scan: func(row scanner) (*model.Series, error) {
		var m model.Series
		var genres string
		var created, updated int64
		if err := row.Scan(&m.ID, &m.Title, &m.Description, &m.ReleaseYear, &m.EndYear, &m.Rating,
			&genres, &created, &updated); err != nil {
			return nil, err
		}
		m.Genres = decodeList(genres)
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Series) []any {
		return []any{m.ID, m.Title, m.Description, m.ReleaseYear, m.EndYear, m.Rating,
			encodeList(m.Genres), millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var seasonTable = table[*model.Season]{
	entity: listquery.Seasons,
	scan: func(row scanner) (*model.Season, error) {
		var m model.Season
		var created, updated int64
		if err := row.Scan(&m.ID, &m.SeriesID, &m.Title, &m.SeasonNumber, &m.ReleaseYear,
			&created, &updated); err != nil {
			return nil, err
		}
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Season) []any {
		return []any{m.ID, m.SeriesID, m.Title, m.SeasonNumber, m.ReleaseYear,
			millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var episodeTable = table[*model.Episode]{
	entity: listquery.Episodes,
	scan: func(row scanner) (*model.Episode, error) {
		var m model.Episode
		var created, updated int64
		if err := row.Scan(&m.ID, &m.SeasonID, &m.Title, &m.EpisodeNumber, &m.Duration, &m.AirDate,
			&m.Description, &created, &updated); err != nil {
			return nil, err
		}
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Episode) []any {
		return []any{m.ID, m.SeasonID, m.Title, m.EpisodeNumber, m.Duration, m.AirDate,
			m.Description, millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var actorTable = table[*model.Actor]{
	entity: listquery.Actors,
	scan: func(row scanner) (*model.Actor, error) {
		var m model.Actor
		var created, updated int64
		if err := row.Scan(&m.ID, &m.Fullname, &m.Birthday, &m.Nationality, &m.Bio,
			&created, &updated); err != nil {
			return nil, err
		}
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Actor) []any {
		return []any{m.ID, m.Fullname, m.Birthday, m.Nationality, m.Bio,
			millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var crewTable = table[*model.Crew]{
	entity: listquery.Crew,
	scan: func(row scanner) (*model.Crew, error) {
		var m model.Crew
		var created, updated int64
		if err := row.Scan(&m.ID, &m.Fullname, &m.Role, &m.Birthday, &m.Bio,
			&created, &updated); err != nil {
			return nil, err
		}
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Crew) []any {
		return []any{m.ID, m.Fullname, m.Role, m.Birthday, m.Bio,
			millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var genreTable = table[*model.Genre]{
	entity: listquery.Genres,
	scan: func(row scanner) (*model.Genre, error) {
		var m model.Genre
		var created, updated int64
		if err := row.Scan(&m.ID, &m.Name, &created, &updated); err != nil {
			return nil, err
		}
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.Genre) []any {
		return []any{m.ID, m.Name, millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}

var userTable = table[*model.User]{
	entity: listquery.Users,
	scan: func(row scanner) (*model.User, error) {
		var m model.User
		var role string
		var created, updated int64
		if err := row.Scan(&m.ID, &m.UserName, &m.Email, &role, &m.PasswordHash,
			&created, &updated); err != nil {
			return nil, err
		}
		m.Role = model.UserRole(role)
		stamp(&m.Meta, created, updated)
		return &m, nil
	},
	values: func(m *model.User) []any {
		role := m.Role
		if role == "" {
			role = model.RoleUser
		}
		return []any{m.ID, m.UserName, m.Email, string(role), m.PasswordHash,
			millis(m.CreatedAt), millis(m.UpdatedAt)}
	},
}
