package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"star-todo/internal/apperr"
	"star-todo/internal/models"
	"star-todo/internal/repositories"
	"star-todo/internal/upload"
)

var ErrTodoNotFound = apperr.New(apperr.KindNotFound, "Todo not found")

// TodoService はTodoと投票のビジネスロジックを扱います。
type TodoService struct {
	todoRepo     *repositories.TodoRepository
	starRepo     *repositories.StarRepository
	uploader     upload.Uploader
	defaultImage string
	votes        *keyedMutex
}

// NewTodoService は新しいTodoServiceを作成します。
func NewTodoService(todoRepo *repositories.TodoRepository, starRepo *repositories.StarRepository, uploader upload.Uploader, defaultImage string) *TodoService {
	return &TodoService{
		todoRepo:     todoRepo,
		starRepo:     starRepo,
		uploader:     uploader,
		defaultImage: defaultImage,
		votes:        newKeyedMutex(),
	}
}

// ListTodos はすべてのTodoを投票付きで返します。並び順はID順です。
func (s *TodoService) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	var (
		todos []*models.Todo
		stars []*models.Star
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		todos, err = s.todoRepo.FindAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		stars, err = s.starRepo.FindAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	byID := make(map[int]*models.Todo, len(todos))
	for _, t := range todos {
		byID[t.ID] = t
	}
	for _, star := range stars {
		if t, ok := byID[star.TodoID]; ok {
			t.Stars = append(t.Stars, star)
		}
	}
	return todos, nil
}

// GetTodo は指定IDのTodoを投票付きで返します。
func (s *TodoService) GetTodo(ctx context.Context, id int) (*models.Todo, error) {
	todo, err := s.findTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	stars, err := s.starRepo.FindByTodoID(ctx, id)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	todo.Stars = stars
	return todo, nil
}

// CreateTodo はTodoを作成し、最新の一覧を返します。
// imagePath が空でなければアップロードし、失敗した場合は何も保存しません。
func (s *TodoService) CreateTodo(ctx context.Context, ownerID int, title, description, imagePath string) ([]*models.Todo, error) {
	image := s.defaultImage
	if imagePath != "" {
		url, err := s.uploader.Upload(ctx, imagePath)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				return nil, apperr.Wrap(apperr.KindUpload, "Upload failed", err)
			}
			return nil, err
		}
		image = url
	}

	todo := &models.Todo{UserID: ownerID, Title: title, Description: description, Image: image}
	if _, err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, apperr.Internal(err)
	}
	return s.ListTodos(ctx)
}

// DeleteTodo は所有者のTodoを投票ごと削除し、最新の一覧を返します。
func (s *TodoService) DeleteTodo(ctx context.Context, requesterID, id int) ([]*models.Todo, error) {
	todo, err := s.findTodo(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo.UserID != requesterID {
		return nil, apperr.ErrForbidden
	}
	if err := s.todoRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, apperr.Internal(err)
	}
	return s.ListTodos(ctx)
}

// ToggleVote はユーザーの投票を付け外しし、投票後に投票済みかどうかを返します。
// 同じ (user, todo) への同時リクエストは直列化されます。
// Todoの存在確認は投票と同じトランザクションで行います。
func (s *TodoService) ToggleVote(ctx context.Context, userID, todoID int) (bool, error) {
	unlock := s.votes.Lock(fmt.Sprintf("%d:%d", userID, todoID))
	defer unlock()

	starred, err := s.starRepo.Toggle(ctx, userID, todoID)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return false, ErrTodoNotFound
		}
		return false, apperr.Internal(err)
	}
	return starred, nil
}

func (s *TodoService) findTodo(ctx context.Context, id int) (*models.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTodoNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, apperr.Internal(err)
	}
	return todo, nil
}
