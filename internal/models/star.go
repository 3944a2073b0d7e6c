package models

// Star は1人のユーザーが1つのToDoに付けた投票です。
// (UserID, TodoID) の組は一意です。
type Star struct {
	ID     int `json:"id"`
	TodoID int `json:"todoId"`
	UserID int `json:"userId"`
}
