package ui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/me/cinedex/internal/store"
	"github.com/me/cinedex/pkg/model"
)

const (
	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "cinedex_session"
	// SessionDuration is the default session lifetime.
	SessionDuration = 24 * time.Hour
	// sessionSweepInterval is how often expired sessions are purged.
	sessionSweepInterval = 10 * time.Minute
)

// SessionManager handles session creation, validation, and cleanup.
// The JSON API and the UI share it, so one login serves both.
type SessionManager struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager(st store.Store, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		store:  st,
		logger: logger.With("component", "sessions"),
		now:    time.Now,
	}
}

// CreateSession creates a new session for an authenticated user.
func (sm *SessionManager) CreateSession(ctx context.Context, u *model.User) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}

	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	now := sm.now().UTC()
	sess := &model.Session{
		ID:        sessionID,
		UserID:    u.ID,
		Username:  u.UserName,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(SessionDuration),
	}
	if err := sm.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// GetSession retrieves a session by ID. It returns nil if the session
// doesn't exist or has expired.
func (sm *SessionManager) GetSession(ctx context.Context, sessionID string) (*model.Session, error) {
	sess, err := sm.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiredAt(sm.now()) {
		if err := sm.store.DeleteSession(ctx, sessionID); err != nil {
			sm.logger.Warn("expired session not removed", "error", err)
		}
		return nil, nil
	}
	return sess, nil
}

// DeleteSession removes a session from the store.
func (sm *SessionManager) DeleteSession(ctx context.Context, sessionID string) error {
	return sm.store.DeleteSession(ctx, sessionID)
}

// CleanupExpiredSessions removes all expired sessions from the store.
func (sm *SessionManager) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return sm.store.DeleteExpiredSessions(ctx)
}

// GetSessionFromRequest extracts the session from the request cookie.
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) (*model.Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, nil // No cookie, no session
	}
	return sm.GetSession(r.Context(), cookie.Value)
}

// Serve purges expired sessions periodically until ctx is canceled.
func (sm *SessionManager) Serve(ctx context.Context) error {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := sm.CleanupExpiredSessions(ctx)
			if err != nil {
				sm.logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				sm.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func (sm *SessionManager) String() string { return "session-sweeper" }

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// generateSessionID generates a cryptographically secure random session ID.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sess_" + hex.EncodeToString(b), nil
}
