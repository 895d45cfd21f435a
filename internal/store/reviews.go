package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/me/cinedex/pkg/model"
)

const reviewColumns = `id, media_kind, media_id, user_id, user_name, rating, body, upvotes, downvotes, created_at`

func scanReview(row scanner) (*model.Review, error) {
	var r model.Review
	var kind string
	var createdAt int64
	if err := row.Scan(&r.ID, &kind, &r.MediaID, &r.UserID, &r.UserName, &r.Rating, &r.Body,
		&r.Upvotes, &r.Downvotes, &createdAt); err != nil {
		return nil, err
	}
	r.MediaKind = model.EntityKind(kind)
	r.CreatedAt = fromMillis(createdAt)
	return &r, nil
}

// --- Review operations ---

// CreateReview stores r and recomputes the average rating of the reviewed
// movie or series.
func (s *SQLStore) CreateReview(ctx context.Context, r *model.Review) error {
	if !r.MediaKind.IsMedia() {
		return &model.UnsupportedEntityError{Kind: string(r.MediaKind)}
	}
	media, err := tableFor(r.MediaKind)
	if err != nil {
		return err
	}
	s.logger.Debug("sql", "op", "insert", "table", "reviews", "id", r.ID, "media_id", r.MediaID)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO reviews (`+reviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, string(r.MediaKind), r.MediaID, r.UserID, r.UserName, r.Rating, r.Body,
		r.Upvotes, r.Downvotes, millis(r.CreatedAt),
	)
	if err != nil {
		s.record("insert", "reviews", start, err)
		return err
	}

	var avg sql.NullFloat64
	err = tx.QueryRowContext(ctx, s.rebind(
		`SELECT AVG(rating) FROM reviews WHERE media_kind = ? AND media_id = ?`),
		string(r.MediaKind), r.MediaID).Scan(&avg)
	if err != nil {
		s.record("insert", "reviews", start, err)
		return err
	}

	_, err = tx.ExecContext(ctx, s.rebind(
		`UPDATE `+media.name()+` SET rating = ? WHERE id = ?`), avg.Float64, r.MediaID)
	s.record("insert", "reviews", start, err)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) GetReview(ctx context.Context, id string) (*model.Review, error) {
	s.logger.Debug("sql", "op", "select", "table", "reviews", "id", id)

	r, err := scanReview(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

// ListReviews returns one page of reviews for a title, newest first, and
// the total number of reviews for it.
func (s *SQLStore) ListReviews(ctx context.Context, kind model.EntityKind, mediaID string, limit, offset int) ([]*model.Review, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "reviews", "media_id", mediaID, "limit", limit, "offset", offset)
	start := time.Now()

	var total int
	if err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM reviews WHERE media_kind = ? AND media_id = ?`),
		string(kind), mediaID).Scan(&total); err != nil {
		s.record("list", "reviews", start, err)
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+reviewColumns+` FROM reviews WHERE media_kind = ? AND media_id = ?
		 ORDER BY created_at DESC LIMIT ? OFFSET ?`),
		string(kind), mediaID, limit, offset)
	if err != nil {
		s.record("list", "reviews", start, err)
		return nil, 0, err
	}
	defer rows.Close()

	var out []*model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	err = rows.Err()
	s.record("list", "reviews", start, err)
	return out, total, err
}

// VoteReview records userID's vote on a review. value is 1 (up), -1 (down)
// or 0 to withdraw a previous vote. The review's tallies are recounted from
// the votes table and the updated review is returned.
func (s *SQLStore) VoteReview(ctx context.Context, reviewID, userID string, value int) (*model.Review, error) {
	if value < -1 || value > 1 {
		return nil, fmt.Errorf("vote value %d out of range", value)
	}
	s.logger.Debug("sql", "op", "vote", "table", "review_votes", "review_id", reviewID, "value", value)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM reviews WHERE id = ?`), reviewID).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("review %s: %w", reviewID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM review_votes WHERE review_id = ? AND user_id = ?`), reviewID, userID); err != nil {
		s.record("vote", "review_votes", start, err)
		return nil, err
	}
	if value != 0 {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO review_votes (review_id, user_id, value) VALUES (?, ?, ?)`),
			reviewID, userID, value); err != nil {
			s.record("vote", "review_votes", start, err)
			return nil, err
		}
	}

	var up, down int
	if err := tx.QueryRowContext(ctx, s.rebind(
		`SELECT COALESCE(SUM(CASE WHEN value > 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN value < 0 THEN 1 ELSE 0 END), 0)
		 FROM review_votes WHERE review_id = ?`), reviewID).Scan(&up, &down); err != nil {
		s.record("vote", "review_votes", start, err)
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, s.rebind(
		`UPDATE reviews SET upvotes = ?, downvotes = ? WHERE id = ?`), up, down, reviewID); err != nil {
		s.record("vote", "review_votes", start, err)
		return nil, err
	}

	r, err := scanReview(tx.QueryRowContext(ctx, s.rebind(
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`), reviewID))
	s.record("vote", "review_votes", start, err)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r, nil
}

// --- Bookmark operations ---

// ToggleBookmark adds the bookmark if absent and removes it otherwise.
// It reports whether the title is bookmarked afterwards.
func (s *SQLStore) ToggleBookmark(ctx context.Context, userID string, kind model.EntityKind, mediaID string) (bool, error) {
	s.logger.Debug("sql", "op", "toggle", "table", "bookmarks", "user_id", userID, "media_id", mediaID)
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM bookmarks WHERE user_id = ? AND media_kind = ? AND media_id = ?`),
		userID, string(kind), mediaID)
	if err != nil {
		s.record("toggle", "bookmarks", start, err)
		return false, err
	}
	removed, _ := result.RowsAffected()

	if removed == 0 {
		_, err = tx.ExecContext(ctx, s.rebind(
			`INSERT INTO bookmarks (user_id, media_kind, media_id, created_at) VALUES (?, ?, ?, ?)`),
			userID, string(kind), mediaID, time.Now().UnixMilli())
		if err != nil {
			s.record("toggle", "bookmarks", start, err)
			return false, err
		}
	}
	s.record("toggle", "bookmarks", start, nil)
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return removed == 0, nil
}

func (s *SQLStore) IsBookmarked(ctx context.Context, userID string, kind model.EntityKind, mediaID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM bookmarks WHERE user_id = ? AND media_kind = ? AND media_id = ?`),
		userID, string(kind), mediaID).Scan(&n)
	return n > 0, err
}

// ListBookmarks returns a user's bookmarks, most recent first.
func (s *SQLStore) ListBookmarks(ctx context.Context, userID string) ([]*model.Bookmark, error) {
	s.logger.Debug("sql", "op", "list", "table", "bookmarks", "user_id", userID)

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT user_id, media_kind, media_id, created_at FROM bookmarks
		 WHERE user_id = ? ORDER BY created_at DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		var kind string
		var createdAt int64
		if err := rows.Scan(&b.UserID, &kind, &b.MediaID, &createdAt); err != nil {
			return nil, err
		}
		b.MediaKind = model.EntityKind(kind)
		b.CreatedAt = fromMillis(createdAt)
		out = append(out, &b)
	}
	return out, rows.Err()
}
