package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// schema contains the DDL for all cinedex tables.
// Types are restricted to those SQLite, MySQL and PostgreSQL all accept;
// timestamps are unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id           VARCHAR(64) PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		description  TEXT NOT NULL,
		release_year INTEGER NOT NULL,
		duration     INTEGER NOT NULL,
		rating       DOUBLE PRECISION NOT NULL,
		genres       TEXT NOT NULL,
		created_at   BIGINT NOT NULL,
		updated_at   BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS series (
		id           VARCHAR(64) PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		description  TEXT NOT NULL,
		release_year INTEGER NOT NULL,
		end_year     INTEGER NOT NULL,
		rating       DOUBLE PRECISION NOT NULL,
		genres       TEXT NOT NULL,
		created_at   BIGINT NOT NULL,
		updated_at   BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS seasons (
		id            VARCHAR(64) PRIMARY KEY,
		series_id     VARCHAR(64) NOT NULL,
		title         VARCHAR(255) NOT NULL,
		season_number INTEGER NOT NULL,
		release_year  INTEGER NOT NULL,
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS episodes (
		id             VARCHAR(64) PRIMARY KEY,
		season_id      VARCHAR(64) NOT NULL,
		title          VARCHAR(255) NOT NULL,
		episode_number INTEGER NOT NULL,
		duration       INTEGER NOT NULL,
		air_date       VARCHAR(32) NOT NULL,
		description    TEXT NOT NULL,
		created_at     BIGINT NOT NULL,
		updated_at     BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS actors (
		id          VARCHAR(64) PRIMARY KEY,
		fullname    VARCHAR(255) NOT NULL,
		birthday    VARCHAR(32) NOT NULL,
		nationality VARCHAR(128) NOT NULL,
		bio         TEXT NOT NULL,
		created_at  BIGINT NOT NULL,
		updated_at  BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS crew (
		id         VARCHAR(64) PRIMARY KEY,
		fullname   VARCHAR(255) NOT NULL,
		role       VARCHAR(128) NOT NULL,
		birthday   VARCHAR(32) NOT NULL,
		bio        TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS genres (
		id         VARCHAR(64) PRIMARY KEY,
		name       VARCHAR(128) NOT NULL,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            VARCHAR(64) PRIMARY KEY,
		user_name     VARCHAR(64) NOT NULL UNIQUE,
		email         VARCHAR(255) NOT NULL,
		role          VARCHAR(16) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS reviews (
		id         VARCHAR(64) PRIMARY KEY,
		media_kind VARCHAR(16) NOT NULL,
		media_id   VARCHAR(64) NOT NULL,
		user_id    VARCHAR(64) NOT NULL,
		user_name  VARCHAR(64) NOT NULL,
		rating     INTEGER NOT NULL,
		body       TEXT NOT NULL,
		upvotes    INTEGER NOT NULL,
		downvotes  INTEGER NOT NULL,
		created_at BIGINT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS review_votes (
		review_id VARCHAR(64) NOT NULL,
		user_id   VARCHAR(64) NOT NULL,
		value     INTEGER NOT NULL,
		PRIMARY KEY (review_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS bookmarks (
		user_id    VARCHAR(64) NOT NULL,
		media_kind VARCHAR(16) NOT NULL,
		media_id   VARCHAR(64) NOT NULL,
		created_at BIGINT NOT NULL,
		PRIMARY KEY (user_id, media_kind, media_id)
	)`,

	// Sessions table for UI authentication
	`CREATE TABLE IF NOT EXISTS sessions (
		id         VARCHAR(128) PRIMARY KEY,
		user_id    VARCHAR(64) NOT NULL,
		username   VARCHAR(64) NOT NULL,
		role       VARCHAR(16) NOT NULL,
		created_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL
	)`,
}

// indexes back the default sort and filter columns of each list.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title)`,
	`CREATE INDEX IF NOT EXISTS idx_series_title ON series(title)`,
	`CREATE INDEX IF NOT EXISTS idx_seasons_series_id ON seasons(series_id)`,
	`CREATE INDEX IF NOT EXISTS idx_episodes_season_id ON episodes(season_id)`,
	`CREATE INDEX IF NOT EXISTS idx_actors_fullname ON actors(fullname)`,
	`CREATE INDEX IF NOT EXISTS idx_crew_fullname ON crew(fullname)`,
	`CREATE INDEX IF NOT EXISTS idx_genres_name ON genres(name)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_media ON reviews(media_kind, media_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookmarks_media ON bookmarks(media_kind, media_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
}

// mysqlDuplicateKeyName is returned when an index already exists.
const mysqlDuplicateKeyName = 1061

// migrate executes all schema DDL statements, then the index statements.
func migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, stmt := range indexes {
		if err := createIndex(ctx, db, dialect, stmt); err != nil {
			return err
		}
	}
	return nil
}

// createIndex runs an index statement idempotently. MySQL has no
// CREATE INDEX IF NOT EXISTS, so the clause is removed and a duplicate
// key name error is treated as success.
func createIndex(ctx context.Context, db *sql.DB, dialect Dialect, stmt string) error {
	if dialect != DialectMySQL {
		_, err := db.ExecContext(ctx, stmt)
		return err
	}

	stmt = strings.Replace(stmt, "IF NOT EXISTS ", "", 1)
	_, err := db.ExecContext(ctx, stmt)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateKeyName {
		return nil
	}
	return err
}
