package model

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleUser can review, vote and bookmark.
	RoleUser UserRole = "user"
	// RoleAdmin manages the catalog and the cache.
	RoleAdmin UserRole = "admin"
	// RoleAnonymous is an unauthenticated visitor with read access.
	RoleAnonymous UserRole = "anonymous"
)

// User represents a local cinedex account.
type User struct {
	Meta         `yaml:",inline"`
	UserName     string   `json:"user_name" yaml:"user_name" validate:"required,min=3,max=64"`
	Email        string   `json:"email" yaml:"email" validate:"omitempty,email"`
	Role         UserRole `json:"role" yaml:"role" validate:"omitempty,oneof=user admin"`
	PasswordHash string   `json:"-" yaml:"-"`
}

func (u *User) RecordKind() EntityKind { return KindUsers }
func (u *User) Label() string          { return u.UserName }

// IsAdmin returns true if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
