package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/internal/cache"
	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/pkg/model"
)

type testUI struct {
	router http.Handler
	svc    *catalog.Service
	store  *store.SQLStore
}

func setupTestUI(t *testing.T) *testUI {
	t.Helper()
	logger := discardLogger()
	st := setupTestStore(t)

	svc := catalog.New(st, catalog.Options{
		Cache: cache.NewLayer(cache.NewMemoryStore(time.Minute), time.Hour, logger),
	}, logger)
	enf, err := authz.NewEnforcer()
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}

	ctx := context.Background()
	if err := svc.EnsureAdmin(ctx, "root:rootpassword"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	viewer := &model.User{UserName: "viewer", Role: model.RoleUser}
	if err := catalog.SetPassword(viewer, "viewerpassword"); err != nil {
		t.Fatal(err)
	}
	if err := svc.Save(ctx, viewer); err != nil {
		t.Fatalf("save viewer: %v", err)
	}

	u := New(svc, NewSessionManager(st, logger), enf, logger, Config{})
	r := chi.NewRouter()
	u.RegisterRoutes(r)
	return &testUI{router: r, svc: svc, store: st}
}

func (tu *testUI) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	tu.router.ServeHTTP(w, req)
	return w
}

func (tu *testUI) login(t *testing.T, user, password string) *http.Cookie {
	t.Helper()
	w := tu.do(t, http.MethodPost, "/login", url.Values{"username": {user}, "password": {password}}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d", w.Code)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie after login")
	return nil
}

func (tu *testUI) movie(t *testing.T, title string, year int) *model.Movie {
	t.Helper()
	m := &model.Movie{Title: title, ReleaseYear: year}
	if err := tu.svc.Save(context.Background(), m); err != nil {
		t.Fatalf("save movie: %v", err)
	}
	return m
}

func TestHome(t *testing.T) {
	tu := setupTestUI(t)
	tu.movie(t, "Heat", 1995)

	w := tu.do(t, http.MethodGet, "/", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Heat") {
		t.Error("home page does not list the new movie")
	}
	if strings.Contains(w.Body.String(), `href="/admin/"`) {
		t.Error("anonymous visitor sees the admin link")
	}
}

func TestBrowse_SortAndPage(t *testing.T) {
	tu := setupTestUI(t)
	for i, title := range []string{"Alien", "Brazil", "Casablanca"} {
		tu.movie(t, title, 1980+i)
	}

	w := tu.do(t, http.MethodGet, "/browse/movies?moviesSortBy=title&moviesAscOrDesc=desc&pageSize=2", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	body := w.Body.String()
	c, b := strings.Index(body, "Casablanca"), strings.Index(body, "Brazil")
	if c < 0 || b < 0 || c > b {
		t.Errorf("expected Casablanca before Brazil (c=%d b=%d)", c, b)
	}
	if strings.Contains(body, ">Alien<") {
		t.Error("first page holds a row from page two")
	}
	if !strings.Contains(body, "Page 1 of 2") {
		t.Error("pager missing")
	}
}

func TestBrowse_UnknownKind(t *testing.T) {
	tu := setupTestUI(t)
	w := tu.do(t, http.MethodGet, "/browse/awards", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestBrowse_UsersRequireAdmin(t *testing.T) {
	tu := setupTestUI(t)

	if w := tu.do(t, http.MethodGet, "/browse/users", nil, nil); w.Code != http.StatusForbidden {
		t.Errorf("anonymous status = %d, want 403", w.Code)
	}
	admin := tu.login(t, "root", "rootpassword")
	if w := tu.do(t, http.MethodGet, "/browse/users", nil, admin); w.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", w.Code)
	}
}

func TestDetail_NotFound(t *testing.T) {
	tu := setupTestUI(t)
	w := tu.do(t, http.MethodGet, "/movies/missing", nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestLogin_Rejected(t *testing.T) {
	tu := setupTestUI(t)
	w := tu.do(t, http.MethodPost, "/login", url.Values{"username": {"viewer"}, "password": {"wrong"}}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.HasPrefix(loc, "/login?error=") {
		t.Errorf("Location = %q", loc)
	}
}

func TestLogin_RedirectsToNext(t *testing.T) {
	tu := setupTestUI(t)
	form := url.Values{"username": {"viewer"}, "password": {"viewerpassword"}, "next": {"/bookmarks"}}
	w := tu.do(t, http.MethodPost, "/login", form, nil)
	if loc := w.Header().Get("Location"); loc != "/bookmarks" {
		t.Errorf("Location = %q, want /bookmarks", loc)
	}

	form.Set("next", "//evil.example")
	w = tu.do(t, http.MethodPost, "/login", form, nil)
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestReviewFlow(t *testing.T) {
	tu := setupTestUI(t)
	m := tu.movie(t, "Heat", 1995)
	path := "/movies/" + m.ID

	w := tu.do(t, http.MethodPost, path+"/reviews", url.Values{"rating": {"9"}, "body": {"Great heist"}}, nil)
	if w.Code != http.StatusSeeOther || !strings.HasPrefix(w.Header().Get("Location"), "/login?next=") {
		t.Fatalf("anonymous review: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}

	viewer := tu.login(t, "viewer", "viewerpassword")
	w = tu.do(t, http.MethodPost, path+"/reviews", url.Values{"rating": {"9"}, "body": {"Great heist"}}, viewer)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("review status = %d, body = %s", w.Code, w.Body)
	}

	w = tu.do(t, http.MethodGet, path, nil, viewer)
	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d, body = %s", w.Code, w.Body)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Great heist") || !strings.Contains(body, "9/10") {
		t.Error("detail page does not show the review")
	}

	w = tu.do(t, http.MethodPost, path+"/reviews", url.Values{"rating": {"11"}}, viewer)
	if w.Code != http.StatusBadRequest {
		t.Errorf("out of range rating status = %d, want 400", w.Code)
	}
}

func TestBookmarkToggle(t *testing.T) {
	tu := setupTestUI(t)
	m := tu.movie(t, "Heat", 1995)
	viewer := tu.login(t, "viewer", "viewerpassword")

	w := tu.do(t, http.MethodPost, "/movies/"+m.ID+"/bookmark", url.Values{}, viewer)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("toggle status = %d", w.Code)
	}
	w = tu.do(t, http.MethodGet, "/bookmarks", nil, viewer)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Heat") {
		t.Errorf("bookmarks page: status=%d", w.Code)
	}
}

func TestAdmin_RequiresAdminRole(t *testing.T) {
	tu := setupTestUI(t)

	if w := tu.do(t, http.MethodGet, "/admin/", nil, nil); w.Code != http.StatusSeeOther {
		t.Errorf("anonymous status = %d, want redirect", w.Code)
	}
	viewer := tu.login(t, "viewer", "viewerpassword")
	if w := tu.do(t, http.MethodGet, "/admin/", nil, viewer); w.Code != http.StatusForbidden {
		t.Errorf("user status = %d, want 403", w.Code)
	}

	admin := tu.login(t, "root", "rootpassword")
	w := tu.do(t, http.MethodGet, "/admin/", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("admin status = %d, body = %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Invalidations") {
		t.Error("dashboard does not show cache statistics")
	}
}

func TestAdmin_DeleteAndInvalidate(t *testing.T) {
	tu := setupTestUI(t)
	m := tu.movie(t, "Heat", 1995)
	admin := tu.login(t, "root", "rootpassword")

	w := tu.do(t, http.MethodGet, "/admin/movies", nil, admin)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/admin/movies/"+m.ID+"/delete") {
		t.Fatalf("grid: status=%d", w.Code)
	}

	w = tu.do(t, http.MethodPost, "/admin/movies/"+m.ID+"/delete", url.Values{}, admin)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("delete status = %d", w.Code)
	}
	if _, err := tu.svc.Get(context.Background(), model.KindMovies, m.ID); !catalog.IsNotFound(err) {
		t.Errorf("movie still present: %v", err)
	}

	w = tu.do(t, http.MethodPost, "/admin/cache/invalidate", url.Values{"tag": {"movies"}}, admin)
	if w.Code != http.StatusSeeOther || !strings.Contains(w.Header().Get("Location"), "flash=") {
		t.Errorf("invalidate: status=%d location=%q", w.Code, w.Header().Get("Location"))
	}
	w = tu.do(t, http.MethodPost, "/admin/cache/invalidate", url.Values{"tag": {"nope"}}, admin)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown tag status = %d, want 400", w.Code)
	}
}

func TestBrowse_StorageFailure(t *testing.T) {
	tu := setupTestUI(t)
	tu.store.Close()

	w := tu.do(t, http.MethodGet, "/browse/genres", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to load genres") {
		t.Errorf("body missing failure message:\n%s", w.Body.String())
	}
}

func TestAdmin_GridRendersEveryKind(t *testing.T) {
	tu := setupTestUI(t)
	ctx := context.Background()
	admin := tu.login(t, "root", "rootpassword")

	recs := []model.Record{
		&model.Movie{Title: "Heat"},
		&model.Series{Title: "The Wire"},
		&model.Season{SeriesID: "ser_1", Title: "Season One", SeasonNumber: 1},
		&model.Episode{SeasonID: "sea_1", Title: "The Target", EpisodeNumber: 1},
		&model.Actor{Fullname: "Al Pacino"},
		&model.Crew{Fullname: "Michael Mann", Role: "director"},
		&model.Genre{Name: "crime"},
		&model.User{UserName: "critic", Role: model.RoleUser},
	}
	for _, rec := range recs {
		if err := tu.svc.Save(ctx, rec); err != nil {
			t.Fatalf("save %s: %v", rec.RecordKind(), err)
		}
	}

	for _, rec := range recs {
		kind := rec.RecordKind()
		w := tu.do(t, http.MethodGet, "/admin/"+string(kind)+"?pageSize=100", nil, admin)
		if w.Code != http.StatusOK {
			t.Fatalf("%s grid status = %d", kind, w.Code)
		}
		if !strings.Contains(w.Body.String(), rec.RecordID()) {
			t.Errorf("%s grid has no row for %s", kind, rec.RecordID())
		}
	}
}

func TestBrowse_HugePageRendersEmpty(t *testing.T) {
	tu := setupTestUI(t)
	m := tu.movie(t, "Heat", 1995)

	for _, size := range []string{"1", "10"} {
		w := tu.do(t, http.MethodGet, "/browse/movies?page=92233720368547760&pageSize="+size, nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("pageSize %s: status = %d", size, w.Code)
		}
		if strings.Contains(w.Body.String(), m.ID) {
			t.Errorf("pageSize %s: page past the end lists %s", size, m.ID)
		}
	}
}
