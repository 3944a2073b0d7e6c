package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-todo/internal/models"
	"star-todo/testutil"
)

func createTodo(t *testing.T, r http.Handler, cookie *http.Cookie, title string) []*models.Todo {
	t.Helper()
	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": title, "description": "d"}, nil)
	w := testutil.Do(t, r, req, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutil.DecodeTodos(t, w)
}

func vote(t *testing.T, r http.Handler, cookie *http.Cookie, id int) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Do(t, r, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/todos/vote/%d", id), nil), cookie)
}

func TestEndToEnd_CreateVoteUnvote(t *testing.T) {
	cfg := testutil.TestConfig(t)
	_, r := testutil.SetupTestRouter(t, cfg)

	testutil.SignUp(t, r, "A", "a@x.com", "pw")
	cookie := testutil.SignIn(t, r, "a@x.com", "pw")

	todos := createTodo(t, r, cookie, "T")
	require.Len(t, todos, 1)
	assert.Equal(t, "T", todos[0].Title)
	assert.Equal(t, cfg.DefaultImageURL, todos[0].Image)
	assert.Equal(t, 1, todos[0].UserID)
	assert.Empty(t, todos[0].Stars)

	id := todos[0].ID
	w := vote(t, r, cookie, id)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"ok"`, w.Body.String())

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/todos/%d", id), nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var todo models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todo))
	require.Len(t, todo.Stars, 1)
	assert.Equal(t, 1, todo.Stars[0].UserID)
	assert.Contains(t, w.Body.String(), `"todoId":`)

	vote(t, r, cookie, id)

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos", nil), nil)
	todos = testutil.DecodeTodos(t, w)
	require.Len(t, todos, 1)
	assert.Empty(t, todos[0].Stars)
}

func TestGetTodos_EmptyList(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	w := testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos", nil), nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestGetTodoByID_Errors(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	w := testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos/99", nil), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", testutil.DecodeError(t, w))

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos/abc", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid ID format", testutil.DecodeError(t, w))
}

func TestCreateTodo_Unauthorized(t *testing.T) {
	cfg := testutil.TestConfig(t)
	_, r := testutil.SetupTestRouter(t, cfg)

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, &testutil.Image{
		Filename: "a.png", ContentType: "image/png", Data: testutil.PNG(t),
	})
	w := testutil.Do(t, r, req, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", testutil.DecodeError(t, w))

	entries, err := os.ReadDir(cfg.ImagesDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no file should be written")

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos", nil), nil)
	assert.Empty(t, testutil.DecodeTodos(t, w))
}

func TestCreateTodo_WithImage(t *testing.T) {
	cfg := testutil.TestConfig(t)
	_, r := testutil.SetupTestRouter(t, cfg)
	cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, &testutil.Image{
		Filename: "cat.png", ContentType: "image/png", Data: testutil.PNG(t),
	})
	w := testutil.Do(t, r, req, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	todos := testutil.DecodeTodos(t, w)
	require.Len(t, todos, 1)
	assert.True(t, strings.HasPrefix(todos[0].Image, cfg.PublicURL+"/images/"), todos[0].Image)
	assert.True(t, strings.HasSuffix(todos[0].Image, "-cat.png"), todos[0].Image)

	// 保存した画像が /images で配信される
	path := strings.TrimPrefix(todos[0].Image, cfg.PublicURL)
	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, path, nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateTodo_RejectsUploads(t *testing.T) {
	tests := []struct {
		name    string
		image   func(t *testing.T) *testutil.Image
		message string
	}{
		{
			name: "declared non-image",
			image: func(t *testing.T) *testutil.Image {
				return &testutil.Image{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hello")}
			},
			message: "Invalid file type",
		},
		{
			name: "declared image but text content",
			image: func(t *testing.T) *testutil.Image {
				return &testutil.Image{Filename: "a.png", ContentType: "image/png", Data: []byte("plain text, not a png")}
			},
			message: "Invalid file type",
		},
		{
			name: "too large",
			image: func(t *testing.T) *testutil.Image {
				data := append(testutil.PNG(t), make([]byte, 1_000_001)...)
				return &testutil.Image{Filename: "big.png", ContentType: "image/png", Data: data}
			},
			message: "File too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig(t)
			_, r := testutil.SetupTestRouter(t, cfg)
			cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")

			req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, tt.image(t))
			w := testutil.Do(t, r, req, cookie)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, testutil.DecodeError(t, w))

			w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos", nil), nil)
			assert.Empty(t, testutil.DecodeTodos(t, w), "no todo should be created")
		})
	}
}

func TestCreateTodo_OversizedBodyStopsBeforeParsing(t *testing.T) {
	cfg := testutil.TestConfig(t)
	_, r := testutil.SetupTestRouter(t, cfg)
	cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")

	data := append(testutil.PNG(t), make([]byte, 3_000_000)...)
	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, &testutil.Image{
		Filename: "huge.png", ContentType: "image/png", Data: data,
	})
	w := testutil.Do(t, r, req, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File too large", testutil.DecodeError(t, w))

	entries, err := os.ReadDir(cfg.ImagesDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateTodo_OversizedChunkedBody(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)
	cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")

	data := append(testutil.PNG(t), make([]byte, 3_000_000)...)
	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, &testutil.Image{
		Filename: "huge.png", ContentType: "image/png", Data: data,
	})
	// 長さ不明の本文は読み込み中に上限で止まる
	req.ContentLength = -1
	w := testutil.Do(t, r, req, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File too large", testutil.DecodeError(t, w))

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/todos", nil), nil)
	assert.Empty(t, testutil.DecodeTodos(t, w))
}

func TestCreateTodo_MissingTitle(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)
	cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"description": "d"}, nil)
	w := testutil.Do(t, r, req, cookie)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request payload", testutil.DecodeError(t, w))
}

func TestVote_Errors(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	w := vote(t, r, nil, 1)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")
	w = vote(t, r, cookie, 42)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Todo not found", testutil.DecodeError(t, w))
}

func TestDeleteTodo(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)
	owner := testutil.SignUpAndIn(t, r, "A", "a@x.com", "pw")
	other := testutil.SignUpAndIn(t, r, "B", "b@x.com", "pw")

	todos := createTodo(t, r, owner, "T")
	id := todos[0].ID
	vote(t, r, other, id)

	del := func(cookie *http.Cookie) *httptest.ResponseRecorder {
		return testutil.Do(t, r, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/todos/%d", id), nil), cookie)
	}

	w := del(nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = del(other)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied", testutil.DecodeError(t, w))

	w = del(owner)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, testutil.DecodeTodos(t, w))

	w = del(owner)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRootAndHealth(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	w := testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = testutil.Do(t, r, httptest.NewRequest(http.MethodGet, "/dbcheck", nil), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
