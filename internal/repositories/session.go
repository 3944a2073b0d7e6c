package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"star-todo/internal/models"
)

// SessionStore はセッションの永続化を抽象化します。
type SessionStore interface {
	Save(ctx context.Context, s *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// SQLSessionStore は sessions テーブルを使う SessionStore です。
// 期限は UNIX 秒で保存します。
type SQLSessionStore struct {
	DB *sql.DB
}

func NewSQLSessionStore(db *sql.DB) *SQLSessionStore {
	return &SQLSessionStore{DB: db}
}

func (r *SQLSessionStore) Save(ctx context.Context, s *models.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)",
		s.ID, s.UserID, s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert session: %w", err)
	}
	return nil
}

func (r *SQLSessionStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	var expiresAt int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.UserID, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}
	s.ExpiresAt = time.Unix(expiresAt, 0)
	return &s, nil
}

func (r *SQLSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}
	return nil
}

// CleanupExpired は期限切れのセッションを削除し、削除件数を返します。
func (r *SQLSessionStore) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, fmt.Errorf("could not delete expired sessions: %w", err)
	}
	return result.RowsAffected()
}
