package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/me/cinedex/internal/ui"
	"github.com/me/cinedex/pkg/model"
)

// sessionMiddleware attaches the caller's session, if any, to the request
// context. The session ID is taken from an "Authorization: Bearer" header
// or from the UI session cookie, so a browser login also serves the API.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *model.Session
		var err error
		if id := bearerToken(r); id != "" {
			sess, err = s.sessions.GetSession(r.Context(), id)
		} else {
			sess, err = s.sessions.GetSessionFromRequest(r)
		}
		if err != nil {
			s.logger.Error("session lookup failed", "error", err)
		}
		if sess != nil {
			r = r.WithContext(ui.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// allowed checks the caller's role against the policy and writes 401 for
// anonymous callers or 403 for signed-in ones when it is denied.
func (s *Server) allowed(w http.ResponseWriter, r *http.Request, obj, act string) bool {
	sess := ui.SessionFromContext(r.Context())
	if s.authz.Allow(model.RoleOf(sess), obj, act) {
		return true
	}
	reqID := RequestIDFromContext(r.Context())
	if sess == nil {
		respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
			Code:    model.ErrUnauthorized,
			Message: "authentication required",
		})
		return false
	}
	respondError(w, reqID, http.StatusForbidden, &model.APIError{
		Code:    model.ErrForbidden,
		Message: act + " access to " + obj + " denied",
	})
	return false
}

// authorize is middleware form of allowed for a fixed object and action.
func (s *Server) authorize(obj, act string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !s.allowed(w, r, obj, act) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	SessionID string         `json:"session_id,omitempty"`
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Role      model.UserRole `json:"role"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// handleLogin exchanges credentials for a session.
// POST /api/v1/auth/login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req loginRequest
	if apiErr := decodeBody(r, &req); apiErr != nil {
		respondError(w, reqID, http.StatusBadRequest, apiErr)
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError("username and password are required"))
		return
	}

	user, err := s.catalog.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Warn("api login rejected", "username", req.Username)
		s.respondFailure(w, r, err)
		return
	}
	sess, err := s.sessions.CreateSession(r.Context(), user)
	if err != nil {
		s.respondFailure(w, r, err)
		return
	}
	ui.SetSessionCookie(w, sess, s.config.UI.SecureCookies)

	s.logger.Info("api login", "username", user.UserName, "role", user.Role)
	respondOK(w, reqID, sessionResponse{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Username:  sess.Username,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
	})
}

// handleLogout ends the caller's session.
// POST /api/v1/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if sess := ui.SessionFromContext(r.Context()); sess != nil {
		if err := s.sessions.DeleteSession(r.Context(), sess.ID); err != nil {
			s.respondFailure(w, r, err)
			return
		}
	}
	ui.ClearSessionCookie(w)
	respondOK(w, reqID, map[string]any{"logged_out": true})
}

// handleMe describes the caller's session.
// GET /api/v1/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	sess := ui.SessionFromContext(r.Context())
	if sess == nil {
		respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
			Code:    model.ErrUnauthorized,
			Message: "authentication required",
		})
		return
	}
	respondOK(w, reqID, sessionResponse{
		UserID:    sess.UserID,
		Username:  sess.Username,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
	})
}
