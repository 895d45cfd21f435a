package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/internal/listquery"
	"github.com/me/cinedex/internal/ui"
	"github.com/me/cinedex/pkg/model"
)

// handleListReviews returns one page of reviews for a movie or series.
// GET /api/v1/{kind}/{id}/reviews?page=&pageSize=
func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjReviews, authz.ActRead) {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := s.catalog.Get(r.Context(), kind, id); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get(listquery.ParamPage))
	pageSize, _ := strconv.Atoi(q.Get(listquery.ParamPageSize))

	res, err := s.catalog.ListReviews(r.Context(), kind, id, page, pageSize)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondList(w, reqID, res.Items, &model.Pagination{
		Page:      res.Page,
		PageSize:  res.PageSize,
		Total:     res.TotalCount,
		PageCount: res.PageCount,
		HasMore:   res.Page < res.PageCount,
	})
}

// handleCreateReview adds a review by the caller.
// POST /api/v1/{kind}/{id}/reviews {rating, body}
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjReviews, authz.ActWrite) {
		return
	}

	var in catalog.ReviewInput
	if apiErr := decodeBody(r, &in); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	review, err := s.catalog.CreateReview(r.Context(), ui.SessionFromContext(r.Context()), kind, chi.URLParam(r, "id"), in)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondCreated(w, reqID, review)
}

// handleVote records the caller's vote on a review.
// POST /api/v1/reviews/{id}/vote {value}
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.allowed(w, r, authz.ObjReviews, authz.ActWrite) {
		return
	}

	var req struct {
		Value int `json:"value"`
	}
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	review, err := s.catalog.VoteReview(r.Context(), ui.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Value)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, review)
}

// handleToggleBookmark flips the caller's bookmark on a title.
// POST /api/v1/{kind}/{id}/bookmark
func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjBookmarks, authz.ActWrite) {
		return
	}
	id := chi.URLParam(r, "id")

	on, err := s.catalog.ToggleBookmark(r.Context(), ui.SessionFromContext(r.Context()), kind, id)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, map[string]any{"kind": kind, "id": id, "bookmarked": on})
}

// handleListBookmarks returns the caller's bookmarks.
// GET /api/v1/bookmarks
func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if !s.allowed(w, r, authz.ObjBookmarks, authz.ActRead) {
		return
	}

	marks, err := s.catalog.ListBookmarks(r.Context(), ui.SessionFromContext(r.Context()))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, marks)
}
