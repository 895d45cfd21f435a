package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/me/cinedex/pkg/model"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown user or
// a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// minPasswordLen is the shortest accepted password.
const minPasswordLen = 8

// SetPassword replaces u's password hash.
func SetPassword(u *model.User, password string) error {
	if len(password) < minPasswordLen {
		return model.NewValidationError("password too short",
			model.FieldError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", minPasswordLen)})
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return nil
}

// Authenticate checks a username and password against the stored hash.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.store.GetUserByName(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin creates an admin account from a "user:password" pair unless
// a user with that name already exists.
func (s *Service) EnsureAdmin(ctx context.Context, pair string) error {
	name, password, ok := strings.Cut(pair, ":")
	if !ok || name == "" {
		return fmt.Errorf("admin bootstrap must be user:password")
	}
	existing, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if existing != nil {
		return nil
	}

	u := &model.User{UserName: name, Role: model.RoleAdmin}
	if err := SetPassword(u, password); err != nil {
		return err
	}
	if err := s.Save(ctx, u); err != nil {
		return err
	}
	s.logger.Info("admin account created", "user_name", name)
	return nil
}
