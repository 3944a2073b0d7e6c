package models

import "time"

// Session はセッションIDとログインユーザーの紐付けです。
type Session struct {
	ID        string
	UserID    int
	ExpiresAt time.Time
}

// Expired は now 時点で期限切れかを返します。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
