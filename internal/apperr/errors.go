// Package apperr はアプリケーション全体で使うエラー分類を定義します。
package apperr

import (
	"errors"
	"net/http"
)

// Kind はエラーの種類です。
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindInvalidCredentials
	KindConflict
	KindUpload
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// Status はエラーの種類に対応するHTTPステータスコードを返します。
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpload, KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error はクライアントに返すメッセージと原因エラーを保持します。
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is は同じ種類のエラーであれば一致とみなします。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 種類ごとのセンチネル。errors.Is(err, apperr.ErrNotFound) のように使います。
var (
	ErrInternal           = New(KindInternal, "Internal server error")
	ErrUnauthorized       = New(KindUnauthorized, "Unauthorized")
	ErrForbidden          = New(KindForbidden, "Access denied")
	ErrNotFound           = New(KindNotFound, "Not found")
	ErrInvalidCredentials = New(KindInvalidCredentials, "Invalid email or password")
	ErrConflict           = New(KindConflict, "Conflict")
	ErrUpload             = New(KindUpload, "Upload failed")
	ErrValidation         = New(KindValidation, "Invalid request payload")
)

// New は新しいエラーを作成します。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因エラーを保持したままエラーを作成します。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internal は予期しないエラーをKindInternalとして包みます。
func Internal(err error) *Error {
	return Wrap(KindInternal, "Internal server error", err)
}

// KindOf はエラーの種類を返します。apperr.Errorでないものは KindInternal です。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message はクライアントに返してよいメッセージを返します。
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrInternal.Message
}
