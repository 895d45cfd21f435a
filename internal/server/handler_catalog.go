package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/pkg/model"
)

// maxBodyBytes caps record payloads.
const maxBodyBytes = 1 << 20

// kindParam resolves {kind} to a registered entity kind. Aliases such as
// "movie" are accepted.
func (s *Server) kindParam(w http.ResponseWriter, r *http.Request) (model.EntityKind, bool) {
	kind, err := model.ParseEntityKind(chi.URLParam(r, "kind"))
	if err == nil {
		_, err = s.catalog.Entity(kind)
	}
	if err != nil {
		s.respondFailure(w, r, err)
		return "", false
	}
	return kind, true
}

// handleList returns one page of a kind.
// GET /api/v1/{kind}?page=&pageSize=&<kind>SortBy=&<kind>AscOrDesc=&search=
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjectFor(kind), authz.ActRead) {
		return
	}

	page, err := s.catalog.List(r.Context(), kind, r.URL.Query())
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	var items any = page.Items
	if page.Len == 0 {
		items = []any{}
	}
	respondList(w, reqID, items, model.NewPagination(page))
}

// handleGet returns one record.
// GET /api/v1/{kind}/{id}
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjectFor(kind), authz.ActRead) {
		return
	}

	rec, err := s.catalog.Get(r.Context(), kind, chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, rec)
}

// recordPayload decodes a record of kind from the request body. A user
// payload may also carry a plain "password", which is hashed onto the
// record.
func (s *Server) recordPayload(r *http.Request, kind model.EntityKind) (model.Record, string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, "", model.NewValidationError("read body: " + err.Error())
	}
	rec, err := s.catalog.NewRecord(kind)
	if err != nil {
		return nil, "", err
	}
	if err := json.Unmarshal(body, rec); err != nil {
		return nil, "", model.NewValidationError("invalid JSON body: " + err.Error())
	}

	var password string
	if kind == model.KindUsers {
		var extra struct {
			Password string `json:"password"`
		}
		if err := json.Unmarshal(body, &extra); err != nil {
			return nil, "", model.NewValidationError("invalid JSON body: " + err.Error())
		}
		password = extra.Password
	}
	return rec, password, nil
}

// handleCreate stores a new record. Any id in the payload is ignored.
// POST /api/v1/{kind}
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjectFor(kind), authz.ActWrite) {
		return
	}

	rec, password, err := s.recordPayload(r, kind)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	rec.Metadata().ID = ""
	if u, isUser := rec.(*model.User); isUser {
		if password == "" {
			respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("password is required",
				model.FieldError{Field: "password", Message: "required for new users"}))
			return
		}
		if err := catalog.SetPassword(u, password); err != nil {
			s.respondFailure(w, r, err)
			return
		}
	}

	if err := s.catalog.Save(r.Context(), rec); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondCreated(w, reqID, rec)
}

// handleUpdate replaces an existing record. Created timestamps are kept,
// and a user saved without a password keeps the old one.
// PUT /api/v1/{kind}/{id}
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjectFor(kind), authz.ActWrite) {
		return
	}
	id := chi.URLParam(r, "id")

	if _, err := s.catalog.Get(r.Context(), kind, id); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	rec, password, err := s.recordPayload(r, kind)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	rec.Metadata().ID = id
	if u, isUser := rec.(*model.User); isUser && password != "" {
		if err := catalog.SetPassword(u, password); err != nil {
			s.respondFailure(w, r, err)
			return
		}
	}

	if err := s.catalog.Save(r.Context(), rec); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, rec)
}

// handleDelete removes a record.
// DELETE /api/v1/{kind}/{id}
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	kind, ok := s.kindParam(w, r)
	if !ok || !s.allowed(w, r, authz.ObjectFor(kind), authz.ActWrite) {
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.catalog.Delete(r.Context(), kind, id); err != nil {
		s.respondFailure(w, r, err)
		return
	}
	respondOK(w, reqID, map[string]any{"kind": kind, "id": id, "deleted": true})
}
