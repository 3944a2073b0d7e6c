// Package testutil はテスト用のデータベースとルーターを用意します。
package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"star-todo/internal/config"
	"star-todo/internal/database"
	"star-todo/internal/models"
	"star-todo/internal/routes"
)

// SetupTestDB はインメモリのSQLiteデータベースを作成し、テーブルを作成します。
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open(config.DriverSQLite, ":memory:")
	require.NoError(t, err, "Failed to open test database")
	database.Configure(db, config.DriverSQLite)
	require.NoError(t, database.Migrate(db, config.DriverSQLite), "Failed to create schema")

	t.Cleanup(func() { db.Close() })
	return db
}

// TestConfig はテスト用の設定を返します。画像は t.TempDir() に保存されます。
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:            "3247",
		DBDriver:        config.DriverSQLite,
		DatabaseURL:     ":memory:",
		SessionSecret:   "test-secret",
		SessionTTL:      time.Hour,
		CookieName:      "sid",
		PasswordScheme:  config.SchemeCipher,
		PasswordKey:     bytes.Repeat([]byte{0x11}, 32),
		DefaultImageURL: "http://localhost:3247/images/default.png",
		ImagesDir:       t.TempDir(),
		PublicURL:       "http://localhost:3247",
		CORSOrigins:     []string{"*"},
		LogLevel:        "info",
		GinMode:         gin.TestMode,
	}
}

// SetupTestRouter はテスト用のデータベースとGinルーターを作成します。
func SetupTestRouter(t *testing.T, cfg *config.Config) (*sql.DB, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if cfg == nil {
		cfg = TestConfig(t)
	}

	db := SetupTestDB(t)
	srv, err := routes.SetupRouter(db, cfg, zap.NewNop())
	require.NoError(t, err)
	return db, srv.Engine
}

// Do はリクエストを実行します。cookie が nil でなければ付与します。
func Do(t *testing.T, r http.Handler, req *http.Request, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// PostForm は application/x-www-form-urlencoded でPOSTします。
func PostForm(t *testing.T, r http.Handler, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return Do(t, r, req, cookie)
}

// SignUp はユーザーを登録します。
func SignUp(t *testing.T, r http.Handler, name, email, password string) {
	t.Helper()
	w := PostForm(t, r, "/sign-up", url.Values{"name": {name}, "email": {email}, "password": {password}}, nil)
	require.Equal(t, http.StatusOK, w.Code, "sign-up failed: %s", w.Body.String())
}

// SignIn はログインしてセッションクッキーを返します。
func SignIn(t *testing.T, r http.Handler, email, password string) *http.Cookie {
	t.Helper()
	w := PostForm(t, r, "/sign-in", url.Values{"email": {email}, "password": {password}}, nil)
	require.Equal(t, http.StatusOK, w.Code, "sign-in failed: %s", w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == "sid" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("session cookie not set: %v", w.Header())
	return nil
}

// SignUpAndIn はユーザーを登録してログインします。
func SignUpAndIn(t *testing.T, r http.Handler, name, email, password string) *http.Cookie {
	t.Helper()
	SignUp(t, r, name, email, password)
	return SignIn(t, r, email, password)
}

// Image はアップロード用のファイルです。
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PNG は小さなPNG画像を返します。
func PNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// MultipartRequest はTodo作成用の multipart リクエストを作成します。
// CreateFormFile は Content-Type を固定するため、パートヘッダーを直接組み立てます。
func MultipartRequest(t *testing.T, path string, fields map[string]string, img *Image) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if img != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, img.Filename))
		h.Set("Content-Type", img.ContentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(img.Data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// DecodeTodos はレスポンスをTodoの配列として読み込みます。
func DecodeTodos(t *testing.T, w *httptest.ResponseRecorder) []*models.Todo {
	t.Helper()
	var todos []*models.Todo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &todos), w.Body.String())
	return todos
}

// DecodeError はレスポンスの error メッセージを返します。
func DecodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body["error"]
}
