package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"star-todo/internal/apperr"
	"star-todo/internal/models"
	"star-todo/internal/services"
	"star-todo/internal/upload"
)

var errInvalidID = apperr.New(apperr.KindValidation, "Invalid ID format")

// maxCreateBodySize は POST /todos の本文の上限です。画像の上限にフォーム項目分を足した値です。
const maxCreateBodySize = upload.MaxImageSize + 64<<10

// TodoHandler はTodo関連のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
	images      *upload.Store
	respond     *Responder
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService, images *upload.Store, respond *Responder) *TodoHandler {
	return &TodoHandler{todoService: todoService, images: images, respond: respond}
}

// GetTodosHandler はすべてのTodoを返します。
func (h *TodoHandler) GetTodosHandler(c *gin.Context) {
	todos, err := h.todoService.ListTodos(c.Request.Context())
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// GetTodoByIDHandler は指定IDのTodoを返します。
func (h *TodoHandler) GetTodoByIDHandler(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	todo, err := h.todoService.GetTodo(c.Request.Context(), id)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// CreateTodoHandler は multipart フォームからTodoを作成し、最新の一覧を返します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	user, ok := services.PrincipalFrom(c.Request.Context())
	if !ok {
		h.respond.Error(c, apperr.ErrUnauthorized)
		return
	}

	// 本文を読み込む前に大きすぎるアップロードを止める
	if c.Request.ContentLength > maxCreateBodySize {
		h.respond.Error(c, upload.ErrFileTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCreateBodySize)

	var req models.TodoCreateRequest
	if err := c.ShouldBind(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respond.Error(c, upload.ErrFileTooLarge)
			return
		}
		h.respond.Error(c, apperr.Wrap(apperr.KindValidation, apperr.ErrValidation.Message, err))
		return
	}

	var imagePath string
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		if imagePath, err = h.images.Save(fh); err != nil {
			h.respond.Error(c, err)
			return
		}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		h.respond.Error(c, apperr.Wrap(apperr.KindUpload, "Upload failed", err))
		return
	}

	todos, err := h.todoService.CreateTodo(c.Request.Context(), user.ID, req.Title, req.Description, imagePath)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

// VoteTodoHandler はログイン中のユーザーの投票を付け外しします。
func (h *TodoHandler) VoteTodoHandler(c *gin.Context) {
	user, ok := services.PrincipalFrom(c.Request.Context())
	if !ok {
		h.respond.Error(c, apperr.ErrUnauthorized)
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if _, err := h.todoService.ToggleVote(c.Request.Context(), user.ID, id); err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, "ok")
}

// DeleteTodoHandler は所有者のTodoを削除し、最新の一覧を返します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	user, ok := services.PrincipalFrom(c.Request.Context())
	if !ok {
		h.respond.Error(c, apperr.ErrUnauthorized)
		return
	}
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	todos, err := h.todoService.DeleteTodo(c.Request.Context(), user.ID, id)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

func (h *TodoHandler) parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.respond.Error(c, errInvalidID)
		return 0, false
	}
	return id, true
}
