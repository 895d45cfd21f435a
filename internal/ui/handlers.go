package ui

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/pkg/model"
)

// recentCount is the number of titles shown per kind on the home page.
const recentCount = 6

// ratingScale is offered on the review form, best first.
var ratingScale = []int{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

// UI handles the web user interface.
type UI struct {
	catalog   *catalog.Service
	sessions  *SessionManager
	authz     *authz.Enforcer
	logger    *slog.Logger
	startTime time.Time
	secure    bool // Use secure cookies (HTTPS)
}

// Config holds UI configuration.
type Config struct {
	Secure bool // Use secure cookies for HTTPS
}

// New creates a new UI handler.
func New(svc *catalog.Service, sessions *SessionManager, enf *authz.Enforcer, logger *slog.Logger, cfg Config) *UI {
	return &UI{
		catalog:   svc,
		sessions:  sessions,
		authz:     enf,
		logger:    logger.With("component", "ui"),
		startTime: time.Now(),
		secure:    cfg.Secure,
	}
}

// HandleLogin renders the login page.
func (ui *UI) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if SessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ui.render(w, r, http.StatusOK, "login", map[string]any{
		"Title": "Sign in - Cinedex",
		"Error": r.URL.Query().Get("error"),
		"Next":  r.URL.Query().Get("next"),
	})
}

// HandleLoginPost processes the login form.
func (ui *UI) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=Invalid+request", http.StatusSeeOther)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	if username == "" || password == "" {
		http.Redirect(w, r, "/login?error=Username+and+password+required", http.StatusSeeOther)
		return
	}

	user, err := ui.catalog.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, catalog.ErrInvalidCredentials) {
			ui.logger.Error("login failed", "username", username, "error", err)
		} else {
			ui.logger.Warn("login rejected", "username", username)
		}
		http.Redirect(w, r, "/login?error=Invalid+credentials", http.StatusSeeOther)
		return
	}

	sess, err := ui.sessions.CreateSession(r.Context(), user)
	if err != nil {
		ui.logger.Error("create session failed", "error", err)
		http.Redirect(w, r, "/login?error=Session+creation+failed", http.StatusSeeOther)
		return
	}
	SetSessionCookie(w, sess, ui.secure)

	ui.logger.Info("user logged in", "username", user.UserName, "role", user.Role)
	http.Redirect(w, r, safeNext(r.FormValue("next")), http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

// HandleLogout clears the session and redirects home.
func (ui *UI) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := SessionFromContext(r.Context()); sess != nil {
		_ = ui.sessions.DeleteSession(r.Context(), sess.ID)
		ui.logger.Info("user logged out", "username", sess.Username)
	}
	ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleHome shows the most recently added movies and series.
func (ui *UI) HandleHome(w http.ResponseWriter, r *http.Request) {
	movies, err := ui.catalog.Recent(r.Context(), model.KindMovies, recentCount)
	if err != nil {
		ui.renderError(w, r, "Failed to load movies", err)
		return
	}
	series, err := ui.catalog.Recent(r.Context(), model.KindSeries, recentCount)
	if err != nil {
		ui.renderError(w, r, "Failed to load series", err)
		return
	}
	ui.render(w, r, http.StatusOK, "home", map[string]any{
		"Title":  "Cinedex",
		"Movies": movies.Records,
		"Series": series.Records,
	})
}

// HandleBrowse renders one page of any kind with sorting, searching and
// numbered pagination.
func (ui *UI) HandleBrowse(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	if !ui.authz.Allow(model.RoleOf(SessionFromContext(r.Context())), authz.ObjectFor(kind), authz.ActRead) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to browse "+string(kind))
		return
	}
	data, err := ui.listData(r, kind, "/browse/"+string(kind))
	if err != nil {
		ui.renderError(w, r, "Failed to load "+string(kind), err)
		return
	}
	data["Title"] = kind.Title() + " - Cinedex"
	ui.render(w, r, http.StatusOK, "browse", data)
}

// listData runs the list pipeline for kind and prepares the table,
// sort controls and pager.
func (ui *UI) listData(r *http.Request, kind model.EntityKind, base string) (map[string]any, error) {
	page, err := ui.catalog.List(r.Context(), kind, r.URL.Query())
	if err != nil {
		return nil, err
	}
	e, err := ui.catalog.Entity(kind)
	if err != nil {
		return nil, err
	}

	type header struct {
		Label  string
		URL    string
		Active bool
		Desc   bool
	}
	var headers []header
	for _, c := range gridColumns[kind] {
		h := header{Label: c.Header}
		if c.Sort != "" {
			h.URL = sortLink(base, page.Query, c.Sort)
			h.Active = page.Query.SortField == c.Sort
			h.Desc = h.Active && page.Query.SortDirection == model.SortDesc
		}
		headers = append(headers, h)
	}

	return map[string]any{
		"Kind":       kind,
		"Kinds":      ui.browsableKinds(r),
		"Base":       base,
		"Headers":    headers,
		"Rows":       buildRows(page),
		"Page":       page,
		"Pager":      newPager(base, page),
		"SortFields": e.SortFields(),
		"Query":      page.Query,
	}, nil
}

// HandleDetail shows a movie or series with its reviews.
func (ui *UI) HandleDetail(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	sess := SessionFromContext(r.Context())

	rec, err := ui.catalog.Get(r.Context(), kind, id)
	if catalog.IsNotFound(err) {
		ui.renderStatus(w, r, http.StatusNotFound, kind.Title()+" not found")
		return
	}
	if err != nil {
		ui.renderError(w, r, "Failed to load "+string(kind), err)
		return
	}

	reviews, err := ui.catalog.ListReviews(r.Context(), kind, id, pageParam(r.URL.Query(), "reviewsPage"), 0)
	if err != nil {
		ui.renderError(w, r, "Failed to load reviews", err)
		return
	}
	bookmarked, err := ui.catalog.IsBookmarked(r.Context(), sess, kind, id)
	if err != nil {
		ui.logger.Warn("bookmark lookup failed", "kind", kind, "id", id, "error", err)
	}

	ui.render(w, r, http.StatusOK, "detail", map[string]any{
		"Title":       rec.Label() + " - Cinedex",
		"Kind":        kind,
		"Record":      rec,
		"Reviews":     reviews,
		"Bookmarked":  bookmarked,
		"Path":        r.URL.Path,
		"RatingScale": ratingScale,
		"CanReview":   ui.authz.Allow(model.RoleOf(sess), authz.ObjReviews, authz.ActWrite),
	})
}

// HandleReviewPost adds a review from the detail page form.
func (ui *UI) HandleReviewPost(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	sess := SessionFromContext(r.Context())
	if !ui.authz.Allow(model.RoleOf(sess), authz.ObjReviews, authz.ActWrite) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to write reviews")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderStatus(w, r, http.StatusBadRequest, "Invalid form")
		return
	}

	rating, _ := strconv.Atoi(r.FormValue("rating"))
	_, err := ui.catalog.CreateReview(r.Context(), sess, kind, id, catalog.ReviewInput{
		Rating: rating,
		Body:   strings.TrimSpace(r.FormValue("body")),
	})
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		ui.renderStatus(w, r, http.StatusBadRequest, apiErr.Message)
		return
	case catalog.IsNotFound(err):
		ui.renderStatus(w, r, http.StatusNotFound, kind.Title()+" not found")
		return
	case err != nil:
		ui.renderError(w, r, "Failed to save review", err)
		return
	}
	http.Redirect(w, r, "/"+string(kind)+"/"+id, http.StatusSeeOther)
}

// HandleVote records an up or down vote on a review.
func (ui *UI) HandleVote(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if !ui.authz.Allow(model.RoleOf(sess), authz.ObjReviews, authz.ActWrite) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to vote")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderStatus(w, r, http.StatusBadRequest, "Invalid form")
		return
	}
	value, _ := strconv.Atoi(r.FormValue("value"))
	if _, err := ui.catalog.VoteReview(r.Context(), sess, chi.URLParam(r, "id"), value); err != nil {
		if catalog.IsNotFound(err) {
			ui.renderStatus(w, r, http.StatusNotFound, "Review not found")
			return
		}
		ui.renderError(w, r, "Failed to record vote", err)
		return
	}
	http.Redirect(w, r, safeNext(r.FormValue("return")), http.StatusSeeOther)
}

// HandleBookmarkToggle flips the bookmark on a title.
func (ui *UI) HandleBookmarkToggle(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	sess := SessionFromContext(r.Context())
	if !ui.authz.Allow(model.RoleOf(sess), authz.ObjBookmarks, authz.ActWrite) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to bookmark")
		return
	}
	if _, err := ui.catalog.ToggleBookmark(r.Context(), sess, kind, id); err != nil {
		if catalog.IsNotFound(err) {
			ui.renderStatus(w, r, http.StatusNotFound, kind.Title()+" not found")
			return
		}
		ui.renderError(w, r, "Failed to update bookmark", err)
		return
	}
	http.Redirect(w, r, "/"+string(kind)+"/"+id, http.StatusSeeOther)
}

// HandleBookmarks lists the signed-in user's bookmarks.
func (ui *UI) HandleBookmarks(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	marks, err := ui.catalog.ListBookmarks(r.Context(), sess)
	if err != nil {
		ui.renderError(w, r, "Failed to load bookmarks", err)
		return
	}
	ui.render(w, r, http.StatusOK, "bookmarks", map[string]any{
		"Title":     "Bookmarks - Cinedex",
		"Bookmarks": marks,
	})
}

// --- Admin ---

type kindCount struct {
	Kind  model.EntityKind
	Total int
}

// HandleAdminDashboard shows record counts and cache statistics.
func (ui *UI) HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	var counts []kindCount
	for _, k := range ui.catalog.Kinds() {
		page, err := ui.catalog.Query(r.Context(), model.QueryDescriptor{EntityKind: k, Page: 1, PageSize: 1})
		if err != nil {
			ui.renderError(w, r, "Failed to load "+string(k), err)
			return
		}
		counts = append(counts, kindCount{Kind: k, Total: page.TotalCount})
	}

	ui.render(w, r, http.StatusOK, "admin/dashboard", map[string]any{
		"Title":   "Admin - Cinedex",
		"Counts":  counts,
		"Cache":   ui.catalog.CacheStats(),
		"Uptime":  time.Since(ui.startTime).Round(time.Second).String(),
		"Started": ui.startTime,
		"Flash":   r.URL.Query().Get("flash"),
	})
}

// HandleAdminGrid renders the data grid for one kind.
func (ui *UI) HandleAdminGrid(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	data, err := ui.listData(r, kind, "/admin/"+string(kind))
	if err != nil {
		ui.renderError(w, r, "Failed to load "+string(kind), err)
		return
	}
	data["Title"] = "Admin: " + kind.Title() + " - Cinedex"
	data["Kinds"] = ui.catalog.Kinds()
	data["CanWrite"] = ui.authz.Allow(model.RoleOf(SessionFromContext(r.Context())), authz.ObjectFor(kind), authz.ActWrite)
	ui.render(w, r, http.StatusOK, "admin/grid", data)
}

// HandleAdminDelete removes a record from the grid.
func (ui *UI) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	kind, ok := ui.kindParam(w, r)
	if !ok {
		return
	}
	sess := SessionFromContext(r.Context())
	if !ui.authz.Allow(model.RoleOf(sess), authz.ObjectFor(kind), authz.ActWrite) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to delete "+string(kind))
		return
	}
	id := chi.URLParam(r, "id")
	if err := ui.catalog.Delete(r.Context(), kind, id); err != nil {
		if catalog.IsNotFound(err) {
			ui.renderStatus(w, r, http.StatusNotFound, kind.Title()+" not found")
			return
		}
		ui.renderError(w, r, "Failed to delete "+string(kind), err)
		return
	}
	ui.logger.Info("record deleted from admin grid", "kind", kind, "id", id, "by", sess.Username)
	http.Redirect(w, r, "/admin/"+string(kind), http.StatusSeeOther)
}

// HandleAdminInvalidate drops cached lists for one tag.
func (ui *UI) HandleAdminInvalidate(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if !ui.authz.Allow(model.RoleOf(sess), authz.ObjCache, authz.ActWrite) {
		ui.renderStatus(w, r, http.StatusForbidden, "You are not allowed to manage the cache")
		return
	}
	if err := r.ParseForm(); err != nil {
		ui.renderStatus(w, r, http.StatusBadRequest, "Invalid form")
		return
	}
	tag := r.FormValue("tag")
	if err := ui.catalog.InvalidateTag(r.Context(), tag); err != nil {
		ui.renderStatus(w, r, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, "/admin/?flash=Invalidated+"+tag, http.StatusSeeOther)
}

// --- helpers ---

// kindParam resolves the {kind} URL parameter, rendering a 404 for
// unknown kinds.
func (ui *UI) kindParam(w http.ResponseWriter, r *http.Request) (model.EntityKind, bool) {
	raw := chi.URLParam(r, "kind")
	kind, err := model.ParseEntityKind(raw)
	if err == nil {
		_, err = ui.catalog.Entity(kind)
	}
	if err != nil {
		ui.renderStatus(w, r, http.StatusNotFound, "Unknown catalog section "+strconv.Quote(raw))
		return "", false
	}
	return kind, true
}

// browsableKinds lists the kinds the visitor may browse.
func (ui *UI) browsableKinds(r *http.Request) []model.EntityKind {
	role := model.RoleOf(SessionFromContext(r.Context()))
	var out []model.EntityKind
	for _, k := range ui.catalog.Kinds() {
		if ui.authz.Allow(role, authz.ObjectFor(k), authz.ActRead) {
			out = append(out, k)
		}
	}
	return out
}

func (ui *UI) render(w http.ResponseWriter, r *http.Request, status int, template string, data map[string]any) {
	sess := SessionFromContext(r.Context())
	data["Session"] = sess
	data["IsAdmin"] = ui.authz.Allow(model.RoleOf(sess), authz.ObjAdmin, authz.ActRead)
	if _, ok := data["Kinds"]; !ok {
		data["Kinds"] = ui.browsableKinds(r)
	}

	var buf bytes.Buffer
	if err := renderTemplate(&buf, template, data); err != nil {
		ui.logger.Error("template render failed", "template", template, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (ui *UI) renderError(w http.ResponseWriter, r *http.Request, message string, err error) {
	ui.logger.Error(message, "error", err)
	ui.renderStatus(w, r, http.StatusInternalServerError, message)
}

func (ui *UI) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	ui.render(w, r, status, "error", map[string]any{
		"Title":   http.StatusText(status) + " - Cinedex",
		"Status":  status,
		"Message": message,
	})
}
