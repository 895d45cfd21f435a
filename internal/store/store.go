package store

import (
	"context"
	"errors"

	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/pkg/model"
)

// ErrNotFound is returned by writes that address a missing record.
// Reads return a nil record and a nil error instead.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence layer for cinedex entities.
type Store interface {
	// Catalog lists
	Count(ctx context.Context, q listquery.Query) (int, error)
	ListMovies(ctx context.Context, q listquery.Query) ([]*model.Movie, error)
	ListSeries(ctx context.Context, q listquery.Query) ([]*model.Series, error)
	ListSeasons(ctx context.Context, q listquery.Query) ([]*model.Season, error)
	ListEpisodes(ctx context.Context, q listquery.Query) ([]*model.Episode, error)
	ListActors(ctx context.Context, q listquery.Query) ([]*model.Actor, error)
	ListCrew(ctx context.Context, q listquery.Query) ([]*model.Crew, error)
	ListGenres(ctx context.Context, q listquery.Query) ([]*model.Genre, error)
	ListUsers(ctx context.Context, q listquery.Query) ([]*model.User, error)

	// Record CRUD
	Get(ctx context.Context, kind model.EntityKind, id string) (model.Record, error)
	Save(ctx context.Context, rec model.Record) error
	Delete(ctx context.Context, kind model.EntityKind, id string) error
	GetUserByName(ctx context.Context, userName string) (*model.User, error)

	// Reviews
	CreateReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, id string) (*model.Review, error)
	ListReviews(ctx context.Context, kind model.EntityKind, mediaID string, limit, offset int) ([]*model.Review, int, error)
	VoteReview(ctx context.Context, reviewID, userID string, value int) (*model.Review, error)

	// Bookmarks
	ToggleBookmark(ctx context.Context, userID string, kind model.EntityKind, mediaID string) (bool, error)
	IsBookmarked(ctx context.Context, userID string, kind model.EntityKind, mediaID string) (bool, error)
	ListBookmarks(ctx context.Context, userID string) ([]*model.Bookmark, error)

	// Sessions
	CreateSession(ctx context.Context, sess *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
}
