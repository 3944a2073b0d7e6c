package services

import (
	"context"
	"errors"

	"star-todo/internal/apperr"
	"star-todo/internal/credential"
	"star-todo/internal/models"
	"star-todo/internal/repositories"
)

var ErrUserExists = apperr.New(apperr.KindConflict, "User already exists")

// UserService はユーザー登録と認証を扱います。
type UserService struct {
	userRepo    *repositories.UserRepository
	credentials credential.Store
}

// NewUserService は新しいUserServiceを作成します。
func NewUserService(userRepo *repositories.UserRepository, credentials credential.Store) *UserService {
	return &UserService{userRepo: userRepo, credentials: credentials}
}

// SignUp はユーザーを登録します。メールアドレスが登録済みなら ErrUserExists です。
func (s *UserService) SignUp(ctx context.Context, req models.UserSignUpRequest) (*models.User, error) {
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrUserExists
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, apperr.Internal(err)
	}

	stored, err := s.credentials.Encrypt(req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := s.userRepo.Create(ctx, &models.User{Name: req.Name, Email: req.Email, Password: stored})
	if err != nil {
		// 事前チェック後に同じメールで登録された場合
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, ErrUserExists
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// Authenticate はメールアドレスとパスワードでユーザーを認証します。
// ユーザーが存在しない場合もパスワード不一致と同じエラーを返します。
func (s *UserService) Authenticate(ctx context.Context, req models.UserSignInRequest) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}
	if !s.credentials.Matches(user.Password, req.Password) {
		return nil, apperr.ErrInvalidCredentials
	}
	return user, nil
}
