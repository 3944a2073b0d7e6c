package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"star-todo/internal/models"
)

// StarRepository はstarsテーブルを操作します。
type StarRepository struct {
	DB *sql.DB
}

// NewStarRepository は新しいStarRepositoryインスタンスを作成します。
func NewStarRepository(db *sql.DB) *StarRepository {
	return &StarRepository{DB: db}
}

// Create は投票を追加します。同じ (user, todo) の投票が既にあれば ErrDuplicateStar です。
func (r *StarRepository) Create(ctx context.Context, s *models.Star) (*models.Star, error) {
	result, err := r.DB.ExecContext(ctx, "INSERT INTO stars (todo_id, user_id) VALUES (?, ?)", s.TodoID, s.UserID)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateStar
		}
		return nil, fmt.Errorf("could not insert star: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	s.ID = int(id)
	return s, nil
}

// FindAll はすべての投票を取得します。
func (r *StarRepository) FindAll(ctx context.Context) ([]*models.Star, error) {
	return r.query(ctx, "SELECT id, todo_id, user_id FROM stars ORDER BY id")
}

// FindByTodoID は指定したTodoへの投票を取得します。
func (r *StarRepository) FindByTodoID(ctx context.Context, todoID int) ([]*models.Star, error) {
	return r.query(ctx, "SELECT id, todo_id, user_id FROM stars WHERE todo_id = ? ORDER BY id", todoID)
}

// FindByUserIDAndTodoID は (user, todo) の投票を取得します。
func (r *StarRepository) FindByUserIDAndTodoID(ctx context.Context, userID, todoID int) (*models.Star, error) {
	var s models.Star
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, todo_id, user_id FROM stars WHERE user_id = ? AND todo_id = ?", userID, todoID,
	).Scan(&s.ID, &s.TodoID, &s.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStarNotFound
		}
		return nil, fmt.Errorf("could not query star: %w", err)
	}
	return &s, nil
}

// Delete は (user, todo) の投票を削除します。
func (r *StarRepository) Delete(ctx context.Context, userID, todoID int) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM stars WHERE user_id = ? AND todo_id = ?", userID, todoID)
	if err != nil {
		return fmt.Errorf("could not delete star: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if n == 0 {
		return ErrStarNotFound
	}
	return nil
}

// Toggle は投票があれば削除し、無ければ追加します。
// Todoの存在確認・削除・追加は1つのトランザクションで行い、投票後の状態を返します。
// Todoが存在しなければ ErrTodoNotFound です。
func (r *StarRepository) Toggle(ctx context.Context, userID, todoID int) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int
	if err := tx.QueryRowContext(ctx, "SELECT id FROM todos WHERE id = ?", todoID).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrTodoNotFound
		}
		return false, fmt.Errorf("could not query todo: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM stars WHERE user_id = ? AND todo_id = ?", userID, todoID)
	if err != nil {
		return false, fmt.Errorf("could not delete star: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("could not get rows affected: %w", err)
	}

	starred := removed == 0
	if starred {
		if _, err := tx.ExecContext(ctx, "INSERT INTO stars (todo_id, user_id) VALUES (?, ?)", todoID, userID); err != nil {
			if isDuplicateKey(err) {
				return false, ErrDuplicateStar
			}
			// 確認後に別の接続でTodoが消えた場合は外部キー違反になる
			if isMissingReference(err) {
				return false, ErrTodoNotFound
			}
			return false, fmt.Errorf("could not insert star: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("could not commit star toggle: %w", err)
	}
	return starred, nil
}

func (r *StarRepository) query(ctx context.Context, query string, args ...any) ([]*models.Star, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query stars: %w", err)
	}
	defer rows.Close()

	stars := make([]*models.Star, 0)
	for rows.Next() {
		var s models.Star
		if err := rows.Scan(&s.ID, &s.TodoID, &s.UserID); err != nil {
			return nil, fmt.Errorf("could not scan star: %w", err)
		}
		stars = append(stars, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stars: %w", err)
	}
	return stars, nil
}
