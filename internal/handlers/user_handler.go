package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"star-todo/internal/apperr"
	"star-todo/internal/models"
	"star-todo/internal/services"
)

// SessionCookie はセッションクッキーの属性です。
type SessionCookie struct {
	Name   string
	Secure bool
}

// UserHandler はユーザー関連のハンドラーを管理します。
type UserHandler struct {
	userService    *services.UserService
	sessionService *services.SessionService
	cookie         SessionCookie
	respond        *Responder
}

// NewUserHandler は新しいUserHandlerを作成します。
func NewUserHandler(userService *services.UserService, sessionService *services.SessionService, cookie SessionCookie, respond *Responder) *UserHandler {
	return &UserHandler{userService: userService, sessionService: sessionService, cookie: cookie, respond: respond}
}

// SignUpHandler はユーザー登録を処理します。
func (h *UserHandler) SignUpHandler(c *gin.Context) {
	var req models.UserSignUpRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respond.Error(c, apperr.Wrap(apperr.KindValidation, apperr.ErrValidation.Message, err))
		return
	}

	if _, err := h.userService.SignUp(c.Request.Context(), req); err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, "ok")
}

// SignInHandler はユーザーを認証し、セッションクッキーを発行します。
func (h *UserHandler) SignInHandler(c *gin.Context) {
	var req models.UserSignInRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respond.Error(c, apperr.Wrap(apperr.KindValidation, apperr.ErrValidation.Message, err))
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.Authenticate(ctx, req)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	// 既存のセッションは破棄して新しいセッションを発行
	if old, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.sessionService.End(ctx, old); err != nil {
			h.respond.Error(c, err)
			return
		}
	}
	token, err := h.sessionService.Start(ctx, user.ID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	h.setCookie(c, token, int(h.sessionService.TTL().Seconds()))
	c.JSON(http.StatusOK, models.UserResponse{User: user.Public()})
}

// SignOutHandler はセッションを削除し、クッキーを消去します。
func (h *UserHandler) SignOutHandler(c *gin.Context) {
	if token, err := c.Cookie(h.cookie.Name); err == nil {
		if err := h.sessionService.End(c.Request.Context(), token); err != nil {
			h.respond.Error(c, err)
			return
		}
	}
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{})
}

// WhoAmIHandler はログイン中のユーザーを返します。未ログインなら {} です。
func (h *UserHandler) WhoAmIHandler(c *gin.Context) {
	var resp models.UserResponse
	if user, ok := services.PrincipalFrom(c.Request.Context()); ok {
		resp.User = user.Public()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, value, maxAge, "/", "", h.cookie.Secure, true)
}
