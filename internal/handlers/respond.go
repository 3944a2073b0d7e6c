// Package handlers はHTTPリクエストを処理するハンドラーを提供します。
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"star-todo/internal/apperr"
)

// Responder はエラーを {"error": message} 形式で返します。
type Responder struct {
	Logger *zap.Logger
	// AlwaysOK が true の場合、エラーでもステータス200を返します。
	AlwaysOK bool
}

// NewResponder は新しいResponderを作成します。
func NewResponder(logger *zap.Logger, alwaysOK bool) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{Logger: logger, AlwaysOK: alwaysOK}
}

// Error はエラーの種類に応じたステータスでレスポンスを書き込みます。
func (r *Responder) Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		r.Logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}

	status := kind.Status()
	if r.AlwaysOK {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// Abort はエラーを書き込み、後続のハンドラーを中断します。
func (r *Responder) Abort(c *gin.Context, err error) {
	r.Error(c, err)
	c.Abort()
}
