package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/internal/metrics"
	"github.com/me/cinedex/pkg/model"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour spoken by the underlying driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect validates a driver name from configuration.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(s)); d {
	case DialectSQLite, DialectMySQL, DialectPostgres:
		return d, nil
	case "sqlite3":
		return DialectSQLite, nil
	case "postgresql", "pq":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// SQLStore implements Store on database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Open connects to the database described by dialect and dsn.
// For SQLite, dsn is a file path or ":memory:".
func Open(dialect Dialect, dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == DialectSQLite {
		// A single connection keeps ":memory:" databases shared and
		// serializes writers.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma wal: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma fk: %w", err)
		}
	}

	return NewWithDB(db, dialect, logger), nil
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLStore, error) {
	return Open(DialectSQLite, dbPath, logger)
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB, dialect Dialect, logger *slog.Logger) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: dialect,
		logger:  logger.With("component", "store", "dialect", string(dialect)),
	}
}

// Dialect reports the store's SQL dialect.
func (s *SQLStore) Dialect() Dialect { return s.dialect }

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates all required tables and indexes.
func (s *SQLStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db, s.dialect)
}

// rebind rewrites "?" placeholders into the dialect's form.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

func (s *SQLStore) record(op, table string, start time.Time, err error) {
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
	}
	metrics.RecordDBQuery(op, table, time.Since(start), err)
	if err != nil {
		s.logger.Warn("sql failed", "op", op, "table", table, "error", err)
	}
}

// --- Catalog lists ---

func (s *SQLStore) Count(ctx context.Context, q listquery.Query) (int, error) {
	s.logger.Debug("sql", "op", "count", "table", q.Table, "where", q.Where)
	start := time.Now()

	query, args := q.CountSQL()
	var total int
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&total)
	s.record("count", q.Table, start, err)
	return total, err
}

func (s *SQLStore) ListMovies(ctx context.Context, q listquery.Query) ([]*model.Movie, error) {
	return movieTable.list(ctx, s, q)
}

func (s *SQLStore) ListSeries(ctx context.Context, q listquery.Query) ([]*model.Series, error) {
	return seriesTable.list(ctx, s, q)
}

func (s *SQLStore) ListSeasons(ctx context.Context, q listquery.Query) ([]*model.Season, error) {
	return seasonTable.list(ctx, s, q)
}

func (s *SQLStore) ListEpisodes(ctx context.Context, q listquery.Query) ([]*model.Episode, error) {
	return episodeTable.list(ctx, s, q)
}

func (s *SQLStore) ListActors(ctx context.Context, q listquery.Query) ([]*model.Actor, error) {
	return actorTable.list(ctx, s, q)
}

func (s *SQLStore) ListCrew(ctx context.Context, q listquery.Query) ([]*model.Crew, error) {
	return crewTable.list(ctx, s, q)
}

func (s *SQLStore) ListGenres(ctx context.Context, q listquery.Query) ([]*model.Genre, error) {
	return genreTable.list(ctx, s, q)
}

func (s *SQLStore) ListUsers(ctx context.Context, q listquery.Query) ([]*model.User, error) {
	return userTable.list(ctx, s, q)
}

// --- Record CRUD ---

func (s *SQLStore) Get(ctx context.Context, kind model.EntityKind, id string) (model.Record, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	return t.get(ctx, s, id)
}

func (s *SQLStore) Save(ctx context.Context, rec model.Record) error {
	t, err := tableFor(rec.RecordKind())
	if err != nil {
		return err
	}
	return t.save(ctx, s, rec)
}

func (s *SQLStore) Delete(ctx context.Context, kind model.EntityKind, id string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	s.logger.Debug("sql", "op", "delete", "table", t.name(), "id", id)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if kind.IsMedia() {
		cleanup := []string{
			`DELETE FROM review_votes WHERE review_id IN (SELECT id FROM reviews WHERE media_kind = ? AND media_id = ?)`,
			`DELETE FROM reviews WHERE media_kind = ? AND media_id = ?`,
			`DELETE FROM bookmarks WHERE media_kind = ? AND media_id = ?`,
		}
		for _, stmt := range cleanup {
			if _, err := tx.ExecContext(ctx, s.rebind(stmt), string(kind), id); err != nil {
				return err
			}
		}
	}

	result, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM `+t.name()+` WHERE id = ?`), id)
	s.record("delete", t.name(), start, err)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return tx.Commit()
}

func (s *SQLStore) GetUserByName(ctx context.Context, userName string) (*model.User, error) {
	s.logger.Debug("sql", "op", "select_by_name", "table", "users", "user_name", userName)

	query := `SELECT ` + strings.Join(listquery.Users.Columns(), ", ") + ` FROM users WHERE user_name = ?`
	u, err := userTable.scan(s.db.QueryRowContext(ctx, s.rebind(query), userName))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
