package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/me/cinedex/pkg/model"
)

// --- Session operations ---

func (s *SQLStore) CreateSession(ctx context.Context, sess *model.Session) error {
	s.logger.Debug("sql", "op", "insert", "table", "sessions", "id", sess.ID)

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO sessions (id, user_id, username, role, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		sess.ID, sess.UserID, sess.Username, string(sess.Role),
		millis(sess.CreatedAt), millis(sess.ExpiresAt),
	)
	return err
}

func (s *SQLStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s.logger.Debug("sql", "op", "select", "table", "sessions", "id", id)

	var sess model.Session
	var role string
	var createdAt, expiresAt int64

	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, user_id, username, role, created_at, expires_at
		 FROM sessions WHERE id = ?`), id,
	).Scan(&sess.ID, &sess.UserID, &sess.Username, &role, &createdAt, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sess.Role = model.UserRole(role)
	sess.CreatedAt = fromMillis(createdAt)
	sess.ExpiresAt = fromMillis(expiresAt)
	return &sess, nil
}

func (s *SQLStore) DeleteSession(ctx context.Context, id string) error {
	s.logger.Debug("sql", "op", "delete", "table", "sessions", "id", id)

	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM sessions WHERE id = ?`), id)
	return err
}

func (s *SQLStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	s.logger.Debug("sql", "op", "delete_expired", "table", "sessions")

	result, err := s.db.ExecContext(ctx, s.rebind(
		`DELETE FROM sessions WHERE expires_at < ?`), time.Now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
