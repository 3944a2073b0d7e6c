package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"star-todo/internal/models"
)

// TodoRepository はtodosテーブルを操作します。
type TodoRepository struct {
	DB *sql.DB
}

// NewTodoRepository は新しいTodoRepositoryインスタンスを作成します。
func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{DB: db}
}

// Create は新しいTodoをデータベースに挿入します。
func (r *TodoRepository) Create(ctx context.Context, t *models.Todo) (*models.Todo, error) {
	query := "INSERT INTO todos (user_id, title, description, image) VALUES (?, ?, ?, ?)"
	result, err := r.DB.ExecContext(ctx, query, t.UserID, t.Title, t.Description, t.Image)
	if err != nil {
		return nil, fmt.Errorf("could not insert todo: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("could not get last insert ID: %w", err)
	}
	t.ID = int(id)
	if t.Stars == nil {
		t.Stars = []*models.Star{}
	}

	return t, nil
}

// FindAll はすべてのTodoを作成順に取得します。Stars は空のスライスです。
func (r *TodoRepository) FindAll(ctx context.Context) ([]*models.Todo, error) {
	query := "SELECT id, user_id, title, description, image FROM todos ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*models.Todo, 0)
	for rows.Next() {
		t := models.Todo{Stars: []*models.Star{}}
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Image); err != nil {
			return nil, fmt.Errorf("could not scan todo: %w", err)
		}
		todos = append(todos, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return todos, nil
}

// FindByID は指定されたIDのTodoを取得します。
func (r *TodoRepository) FindByID(ctx context.Context, id int) (*models.Todo, error) {
	query := "SELECT id, user_id, title, description, image FROM todos WHERE id = ?"

	t := models.Todo{Stars: []*models.Star{}}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, fmt.Errorf("could not query todo: %w", err)
	}

	return &t, nil
}

// Delete は指定されたIDのTodoとその投票を1つのトランザクションで削除します。
func (r *TodoRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stars WHERE todo_id = ?", id); err != nil {
		return fmt.Errorf("could not delete stars of todo: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("could not delete todo: %w", err)
	}

	// 削除された行数を確認
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTodoNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit todo deletion: %w", err)
	}
	return nil
}
