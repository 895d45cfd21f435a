package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/events"
	"github.com/me/cinedex/internal/validation"
	"github.com/me/cinedex/pkg/model"
)

// ReviewInput is the user-supplied part of a review.
type ReviewInput struct {
	Rating int    `json:"rating"`
	Body   string `json:"body"`
}

// mediaExists checks that kind is a movie or series kind and that the
// record exists.
func (s *Service) mediaExists(ctx context.Context, kind model.EntityKind, id string) error {
	if !kind.IsMedia() {
		return &model.UnsupportedEntityError{Kind: string(kind)}
	}
	_, err := s.Get(ctx, kind, id)
	return err
}

// CreateReview adds a review by the session's user and refreshes the
// media's average rating.
func (s *Service) CreateReview(ctx context.Context, sess *model.Session, kind model.EntityKind, mediaID string, in ReviewInput) (*model.Review, error) {
	if err := s.mediaExists(ctx, kind, mediaID); err != nil {
		return nil, err
	}
	r := &model.Review{
		ID:        "rev_" + uuid.New().String(),
		MediaKind: kind,
		MediaID:   mediaID,
		UserID:    sess.UserID,
		UserName:  sess.Username,
		Rating:    in.Rating,
		Body:      in.Body,
		CreatedAt: s.now().UTC(),
	}
	if apiErr := validation.Struct(r); apiErr != nil {
		return nil, apiErr
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.logger.Info("review created", "kind", kind, "media_id", mediaID, "review_id", r.ID)
	s.invalidate(ctx, kind, events.ActionReviewed, mediaID, TagReviews)
	return r, nil
}

type reviewKey struct {
	Kind     model.EntityKind `json:"kind"`
	MediaID  string           `json:"media_id"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ListReviews returns one page of reviews for a title, newest first.
func (s *Service) ListReviews(ctx context.Context, kind model.EntityKind, mediaID string, page, pageSize int) (*model.PagedResult[*model.Review], error) {
	if !kind.IsMedia() {
		return nil, &model.UnsupportedEntityError{Kind: string(kind)}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.limits.DefaultPageSize
	}
	if pageSize > s.limits.MaxPageSize {
		pageSize = s.limits.MaxPageSize
	}

	key := cache.Key("reviews", reviewKey{kind, mediaID, page, pageSize})
	return cache.Fetch(ctx, s.cache, key, []string{TagReviews}, func(ctx context.Context) (*model.PagedResult[*model.Review], error) {
		items, total, err := s.store.ListReviews(ctx, kind, mediaID, pageSize, (page-1)*pageSize)
		if err != nil {
			return nil, fmt.Errorf("list reviews: %w", err)
		}
		if items == nil {
			items = []*model.Review{}
		}
		return &model.PagedResult[*model.Review]{
			Items:      items,
			TotalCount: total,
			Page:       page,
			PageSize:   pageSize,
			PageCount:  model.PageCount(total, pageSize),
		}, nil
	})
}

// VoteReview records an up (1) or down (-1) vote, or withdraws one (0).
// Voting again replaces the earlier vote.
func (s *Service) VoteReview(ctx context.Context, sess *model.Session, reviewID string, value int) (*model.Review, error) {
	if value < -1 || value > 1 {
		return nil, model.NewValidationError("vote must be -1, 0 or 1",
			model.FieldError{Field: "value", Message: fmt.Sprint(value)})
	}
	r, err := s.store.VoteReview(ctx, reviewID, sess.UserID, value)
	if err != nil {
		return nil, fmt.Errorf("vote review %s: %w", reviewID, err)
	}
	s.cache.Invalidate(ctx, TagReviews)
	s.publish(ctx, events.Event{Entity: TagReviews, Action: events.ActionUpdated, ResourceID: reviewID, Tags: []string{TagReviews}})
	return r, nil
}

// ToggleBookmark flips a bookmark and reports whether it is now set.
func (s *Service) ToggleBookmark(ctx context.Context, sess *model.Session, kind model.EntityKind, mediaID string) (bool, error) {
	if err := s.mediaExists(ctx, kind, mediaID); err != nil {
		return false, err
	}
	on, err := s.store.ToggleBookmark(ctx, sess.UserID, kind, mediaID)
	if err != nil {
		return false, fmt.Errorf("toggle bookmark: %w", err)
	}
	return on, nil
}

// IsBookmarked reports whether the session's user bookmarked a title.
// Anonymous sessions never have bookmarks.
func (s *Service) IsBookmarked(ctx context.Context, sess *model.Session, kind model.EntityKind, mediaID string) (bool, error) {
	if sess == nil {
		return false, nil
	}
	return s.store.IsBookmarked(ctx, sess.UserID, kind, mediaID)
}

// BookmarkEntry is a bookmark resolved to its title.
type BookmarkEntry struct {
	*model.Bookmark
	Title string `json:"title"`
}

// ListBookmarks returns the user's bookmarks with titles. Bookmarks whose
// title has since been deleted are skipped.
func (s *Service) ListBookmarks(ctx context.Context, sess *model.Session) ([]BookmarkEntry, error) {
	marks, err := s.store.ListBookmarks(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	out := make([]BookmarkEntry, 0, len(marks))
	for _, b := range marks {
		rec, err := s.store.Get(ctx, b.MediaKind, b.MediaID)
		if err != nil {
			return nil, fmt.Errorf("resolve bookmark %s: %w", b.MediaID, err)
		}
		if rec == nil {
			continue
		}
		out = append(out, BookmarkEntry{Bookmark: b, Title: rec.Label()})
	}
	return out, nil
}
