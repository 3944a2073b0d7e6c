package services

import (
	"context"

	"star-todo/internal/models"
)

type principalKey struct{}

// WithPrincipal はログイン中のユーザーをコンテキストに設定します。
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFrom はコンテキストからログイン中のユーザーを取り出します。
func PrincipalFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey{}).(*models.User)
	return u, ok && u != nil
}
