// Package client はサーバーのHTTP APIを呼び出すクライアントです。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"star-todo/internal/models"
)

// APIError はサーバーが返した {"error": ...} です。
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Client はセッションクッキーを保持してAPIを呼び出します。
type Client struct {
	baseURL    *url.URL
	http       *http.Client
	cookieName string
}

// Option は Client の設定を変更します。
type Option func(*Client)

// WithCookieName はセッションクッキーの名前を指定します。
func WithCookieName(name string) Option {
	return func(c *Client) { c.cookieName = name }
}

// WithHTTPClient は使用する http.Client を指定します。Jar は上書きされます。
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New は baseURL のサーバーに接続する Client を作成します。
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: 30 * time.Second},
		cookieName: "sid",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = jar
	return c, nil
}

// SessionToken は保持しているセッショントークンを返します。
func (c *Client) SessionToken() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == c.cookieName {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken は保存済みのセッショントークンを復元します。
func (c *Client) SetSessionToken(token string) {
	if token == "" {
		return
	}
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{Name: c.cookieName, Value: token, Path: "/"}})
}

// WhoAmI はログイン中のユーザーを返します。未ログインなら nil です。
func (c *Client) WhoAmI(ctx context.Context) (*models.PublicUser, error) {
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/whoami", nil, "", &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// SignUp はユーザーを登録します。
func (c *Client) SignUp(ctx context.Context, name, email, password string) error {
	form := url.Values{"name": {name}, "email": {email}, "password": {password}}
	return c.postForm(ctx, "/sign-up", form, nil)
}

// SignIn はログインし、セッションクッキーを保持します。
func (c *Client) SignIn(ctx context.Context, email, password string) (*models.PublicUser, error) {
	var resp models.UserResponse
	form := url.Values{"email": {email}, "password": {password}}
	if err := c.postForm(ctx, "/sign-in", form, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// SignOut はセッションを終了します。
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/sign-out", nil, "", nil)
}

// ListTodos はすべてのTodoを返します。
func (c *Client) ListTodos(ctx context.Context) ([]*models.Todo, error) {
	var todos []*models.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, "", &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo は指定IDのTodoを返します。
func (c *Client) GetTodo(ctx context.Context, id int) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/todos/%d", id), nil, "", &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo はTodoを作成し、最新の一覧を返します。imagePath が空なら画像なしです。
func (c *Client) CreateTodo(ctx context.Context, title, description, imagePath string) ([]*models.Todo, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("title", title); err != nil {
		return nil, err
	}
	if err := mw.WriteField("description", description); err != nil {
		return nil, err
	}
	if imagePath != "" {
		if err := writeImagePart(mw, imagePath); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var todos []*models.Todo
	if err := c.do(ctx, http.MethodPost, "/todos", &body, mw.FormDataContentType(), &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// ToggleVote はTodoへの投票を付け外しします。
func (c *Client) ToggleVote(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodGet, fmt.Sprintf("/todos/vote/%d", id), nil, "", nil)
}

// DeleteTodo はTodoを削除し、最新の一覧を返します。
func (c *Client) DeleteTodo(ctx context.Context, id int) ([]*models.Todo, error) {
	var todos []*models.Todo
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/todos/%d", id), nil, "", &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func writeImagePart(mw *multipart.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// エラーは常に {"error": ...} で返る。ステータス200の場合もある
	var apiErr struct {
		Error *string `json:"error"`
	}
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != nil {
		return &APIError{Status: resp.StatusCode, Message: *apiErr.Error}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
