package model

import "time"

// Review is a user's rating and comment on a movie or series.
type Review struct {
	ID        string     `json:"id"`
	MediaKind EntityKind `json:"media_kind"`
	MediaID   string     `json:"media_id"`
	UserID    string     `json:"user_id"`
	UserName  string     `json:"user_name"`
	Rating    int        `json:"rating" validate:"required,gte=1,lte=10"`
	Body      string     `json:"body" validate:"max=4000"`
	Upvotes   int        `json:"upvotes"`
	Downvotes int        `json:"downvotes"`
	CreatedAt time.Time  `json:"created_at"`
}

// Score is the net vote tally.
func (r *Review) Score() int {
	return r.Upvotes - r.Downvotes
}

// Bookmark marks a movie or series on a user's watch list.
type Bookmark struct {
	UserID    string     `json:"user_id"`
	MediaKind EntityKind `json:"media_kind"`
	MediaID   string     `json:"media_id"`
	CreatedAt time.Time  `json:"created_at"`
}
