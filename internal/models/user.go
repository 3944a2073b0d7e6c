package models

// User はユーザーのデータベース構造体を表します。
// Password は credential.Store で保護された値で、JSONには出しません。
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// PublicUser はクライアントに返してよいユーザー情報です。
type PublicUser struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public はパスワードを除いたユーザー情報を返します。
func (u *User) Public() *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserResponse は /whoami と /sign-in のレスポンスです。
// 未ログインの場合は {} になります。
type UserResponse struct {
	User *PublicUser `json:"user,omitempty"`
}

type UserSignUpRequest struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

type UserSignInRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}
