package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"star-todo/testutil"
)

func TestAuthMiddleware_ValidSession(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)
	cookie := testutil.SignUpAndIn(t, r, "normal_user", "normal_user@example.com", "password123")

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, nil)
	w := testutil.Do(t, r, req, cookie)

	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAuthMiddleware_NoCookie(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, nil)
	w := testutil.Do(t, r, req, nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", testutil.DecodeError(t, w))
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	_, r := testutil.SetupTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/todos/vote/1", nil)
	w := testutil.Do(t, r, req, &http.Cookie{Name: "sid", Value: "invalid.token.here"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", testutil.DecodeError(t, w))
}

func TestAuthMiddleware_ExpiredSession(t *testing.T) {
	cfg := testutil.TestConfig(t)
	cfg.SessionTTL = time.Second
	_, r := testutil.SetupTestRouter(t, cfg)
	cookie := testutil.SignUpAndIn(t, r, "normal_user", "normal_user@example.com", "password123")

	time.Sleep(1100 * time.Millisecond)

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, nil)
	w := testutil.Do(t, r, req, cookie)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_CookieFromOtherSecret(t *testing.T) {
	_, issuer := testutil.SetupTestRouter(t, nil)
	cookie := testutil.SignUpAndIn(t, issuer, "normal_user", "normal_user@example.com", "password123")

	cfg := testutil.TestConfig(t)
	cfg.SessionSecret = "another-secret"
	_, r := testutil.SetupTestRouter(t, cfg)
	testutil.SignUp(t, r, "normal_user", "normal_user@example.com", "password123")

	req := testutil.MultipartRequest(t, "/todos", map[string]string{"title": "T"}, nil)
	w := testutil.Do(t, r, req, cookie)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
