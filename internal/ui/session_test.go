package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/pkg/model"
)

func TestSessionManager_CreateAndGet(t *testing.T) {
	sm := NewSessionManager(setupTestStore(t), discardLogger())
	ctx := context.Background()

	sess, err := sm.CreateSession(ctx, &model.User{Meta: model.Meta{ID: "user1"}, UserName: "testuser"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if !strings.HasPrefix(sess.ID, "sess_") {
		t.Errorf("session ID = %q, want sess_ prefix", sess.ID)
	}
	if sess.UserID != "user1" {
		t.Errorf("expected UserID 'user1', got %q", sess.UserID)
	}
	if sess.Role != model.RoleUser {
		t.Errorf("expected default role 'user', got %q", sess.Role)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != SessionDuration {
		t.Errorf("lifetime = %v, want %v", got, SessionDuration)
	}

	retrieved, err := sm.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected session to be found")
	}
	if retrieved.Username != "testuser" {
		t.Errorf("expected Username 'testuser', got %q", retrieved.Username)
	}
}

func TestSessionManager_GetSession_NotFound(t *testing.T) {
	sm := NewSessionManager(setupTestStore(t), discardLogger())

	sess, err := sm.GetSession(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Error("expected nil session for nonexistent ID")
	}
}

func TestSessionManager_GetSession_Expired(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st, discardLogger())
	ctx := context.Background()

	sess, err := sm.CreateSession(ctx, &model.User{Meta: model.Meta{ID: "user1"}, UserName: "testuser", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	sm.now = func() time.Time { return time.Now().Add(SessionDuration + time.Minute) }
	retrieved, err := sm.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected nil session for expired session")
	}

	// The expired row is removed on lookup.
	raw, err := st.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("store GetSession: %v", err)
	}
	if raw != nil {
		t.Error("expired session still stored")
	}
}

func TestSessionManager_DeleteSession(t *testing.T) {
	sm := NewSessionManager(setupTestStore(t), discardLogger())
	ctx := context.Background()

	sess, err := sm.CreateSession(ctx, &model.User{Meta: model.Meta{ID: "user1"}, UserName: "testuser"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if err := sm.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	retrieved, err := sm.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected nil session after deletion")
	}
}

func TestSessionManager_GetSessionFromRequest(t *testing.T) {
	sm := NewSessionManager(setupTestStore(t), discardLogger())

	sess, err := sm.CreateSession(context.Background(), &model.User{Meta: model.Meta{ID: "user1"}, UserName: "testuser"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.ID})

	retrieved, err := sm.GetSessionFromRequest(req)
	if err != nil {
		t.Fatalf("GetSessionFromRequest failed: %v", err)
	}
	if retrieved == nil || retrieved.ID != sess.ID {
		t.Fatalf("session = %+v, want %s", retrieved, sess.ID)
	}

	noCookie := httptest.NewRequest(http.MethodGet, "/", nil)
	retrieved, err = sm.GetSessionFromRequest(noCookie)
	if err != nil {
		t.Fatalf("GetSessionFromRequest failed: %v", err)
	}
	if retrieved != nil {
		t.Error("expected nil session when no cookie")
	}
}

func TestSessionManager_CleanupExpiredSessions(t *testing.T) {
	st := setupTestStore(t)
	sm := NewSessionManager(st, discardLogger())
	ctx := context.Background()

	past := time.Now().Add(-2 * SessionDuration)
	sm.now = func() time.Time { return past }
	if _, err := sm.CreateSession(ctx, &model.User{Meta: model.Meta{ID: "old"}, UserName: "old"}); err != nil {
		t.Fatal(err)
	}
	sm.now = time.Now
	live, err := sm.CreateSession(ctx, &model.User{Meta: model.Meta{ID: "new"}, UserName: "new"})
	if err != nil {
		t.Fatal(err)
	}

	n, err := sm.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("removed %d sessions, want 1", n)
	}
	if got, _ := sm.GetSession(ctx, live.ID); got == nil {
		t.Error("live session was removed")
	}
}

func TestSetSessionCookie(t *testing.T) {
	sess := &model.Session{
		ID:        "sess_test123",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}

	w := httptest.NewRecorder()
	SetSessionCookie(w, sess, true)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	cookie := cookies[0]
	if cookie.Name != SessionCookieName {
		t.Errorf("expected cookie name %q, got %q", SessionCookieName, cookie.Name)
	}
	if cookie.Value != sess.ID {
		t.Errorf("expected cookie value %q, got %q", sess.ID, cookie.Value)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Errorf("HttpOnly=%v Secure=%v, want both", cookie.HttpOnly, cookie.Secure)
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Errorf("expected SameSite Lax, got %v", cookie.SameSite)
	}
}

func TestClearSessionCookie(t *testing.T) {
	w := httptest.NewRecorder()
	ClearSessionCookie(w)

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	if cookies[0].MaxAge != -1 {
		t.Errorf("expected MaxAge -1, got %d", cookies[0].MaxAge)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestStore(t *testing.T) *store.SQLStore {
	t.Helper()

	st, err := store.NewSQLiteStore(":memory:", discardLogger())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return st
}
