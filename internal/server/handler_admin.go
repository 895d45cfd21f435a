package server

import (
	"net/http"

	"github.com/me/cinedex/internal/ui"
	"github.com/me/cinedex/pkg/model"
)

// handleCacheStats reports cache activity.
// GET /api/v1/admin/cache
func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	respondOK(w, RequestIDFromContext(r.Context()), s.catalog.CacheStats())
}

// handleInvalidateCache drops cached lists for one tag.
// POST /api/v1/admin/cache/invalidate {tag}
func (s *Server) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req struct {
		Tag string `json:"tag"`
	}
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if req.Tag == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("tag is required",
			model.FieldError{Field: "tag", Message: "required"}))
		return
	}
	if err := s.catalog.InvalidateTag(r.Context(), req.Tag); err != nil {
		s.respondFailure(w, r, err)
		return
	}

	by := ""
	if sess := ui.SessionFromContext(r.Context()); sess != nil {
		by = sess.Username
	}
	s.logger.Info("cache invalidated", "tag", req.Tag, "by", by)
	respondOK(w, reqID, map[string]any{"tag": req.Tag, "invalidated": true})
}
