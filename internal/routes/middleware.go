package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"star-todo/internal/apperr"
	"star-todo/internal/handlers"
	"star-todo/internal/services"
)

// LoadSession はセッションクッキーを検証し、ログイン中のユーザーをコンテキストに設定するミドルウェアです。
// クッキーが無効な場合は未ログインとして処理を続けます。
func LoadSession(sessionService *services.SessionService, cookieName string, respond *handlers.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		user, err := sessionService.Resolve(c.Request.Context(), token)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindInternal {
				respond.Abort(c, err)
				return
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(services.WithPrincipal(c.Request.Context(), user))
		c.Next()
	}
}

// AuthRequired はログインしていないリクエストを Unauthorized で中断します。
func AuthRequired(respond *handlers.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := services.PrincipalFrom(c.Request.Context()); !ok {
			respond.Abort(c, apperr.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// RequestLogger はリクエストごとにメソッド、パス、ステータス、ログインユーザーを記録します。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if user, ok := services.PrincipalFrom(c.Request.Context()); ok {
			fields = append(fields, zap.String("user", user.Email))
		}
		logger.Info("request", fields...)
	}
}
