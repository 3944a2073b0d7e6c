package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"star-todo/internal/apperr"
	"star-todo/internal/models"
	"star-todo/internal/repositories"
)

// SessionService はセッションの開始、解決、終了を扱います。
// クッキーの値はセッションIDを jti に持つ署名付きJWTです。
type SessionService struct {
	secret   []byte
	ttl      time.Duration
	sessions repositories.SessionStore
	users    *repositories.UserRepository
	now      func() time.Time
}

// NewSessionService は新しいSessionServiceを作成します。
func NewSessionService(secret string, ttl time.Duration, sessions repositories.SessionStore, users *repositories.UserRepository) *SessionService {
	return &SessionService{
		secret:   []byte(secret),
		ttl:      ttl,
		sessions: sessions,
		users:    users,
		now:      time.Now,
	}
}

// TTL はセッションの有効期間を返します。
func (s *SessionService) TTL() time.Duration { return s.ttl }

// Start はユーザーのセッションを作成し、クッキーに入れるトークンを返します。
func (s *SessionService) Start(ctx context.Context, userID int) (string, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return "", apperr.Internal(err)
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("failed to sign session token: %w", err))
	}
	return token, nil
}

// Resolve はトークンからログイン中のユーザーを返します。
// 署名不正、期限切れ、削除済みのセッションはすべて ErrUnauthorized です。
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	id, err := s.sessionID(token)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}

	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.Internal(err)
	}
	if session.Expired(s.now()) {
		return nil, apperr.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperr.ErrUnauthorized
		}
		return nil, apperr.Internal(err)
	}
	return user, nil
}

// End はトークンのセッションを削除します。無効なトークンは何もしません。
func (s *SessionService) End(ctx context.Context, token string) error {
	id, err := s.sessionID(token)
	if err != nil {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// PurgeExpired は期限切れのセッションを削除します。
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessions.CleanupExpired(ctx, s.now())
}

func (s *SessionService) sessionID(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", errors.New("session token has no id")
	}
	return claims.ID, nil
}
