// Package models はデータベースとAPIで使う構造体を定義します。
package models

// Todo はToDoアイテムです。Stars はこのToDoへの投票一覧です。
type Todo struct {
	ID          int     `json:"id"`
	UserID      int     `json:"userId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Stars       []*Star `json:"stars"`
}

// TodoCreateRequest は POST /todos のフォーム項目です。画像は別途 multipart で受け取ります。
type TodoCreateRequest struct {
	Title       string `form:"title" json:"title" binding:"required"`
	Description string `form:"description" json:"description"`
}
