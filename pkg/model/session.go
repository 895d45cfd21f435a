package model

import "time"

// Session is a signed-in user. The API accepts its ID as a bearer token and
// the UI as a cookie.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the session is no longer valid at now.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RoleOf returns the authorization subject for a possibly nil session.
func RoleOf(s *Session) UserRole {
	if s == nil {
		return RoleAnonymous
	}
	return s.Role
}
