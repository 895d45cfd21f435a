package ui

import (
	"context"
	"net/http"
	"net/url"

	"github.com/me/cinedex/internal/authz"
	"github.com/me/cinedex/pkg/model"
)

// Context keys for session data.
type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// SessionFromContext retrieves the session from the request context.
func SessionFromContext(ctx context.Context) *model.Session {
	sess, _ := ctx.Value(sessionContextKey).(*model.Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// AuthMiddleware requires a valid session. Visitors without one are sent
// to the login page and come back afterwards.
func (ui *UI) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if sess == nil {
			var err error
			sess, err = ui.sessions.GetSessionFromRequest(r)
			if err != nil {
				ui.logger.Error("session lookup failed", "error", err)
			}
		}
		if sess == nil {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

// AdminMiddleware checks the admin policy. Must be used after AuthMiddleware.
func (ui *UI) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r.Context())
		if !ui.authz.Allow(model.RoleOf(sess), authz.ObjAdmin, authz.ActRead) {
			ui.renderStatus(w, r, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuthMiddleware adds the session to context if available but doesn't require it.
func (ui *UI) OptionalAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := ui.sessions.GetSessionFromRequest(r)
		if sess != nil {
			r = r.WithContext(WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}
