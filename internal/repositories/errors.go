// Package repositories はデータベース操作を行うリポジトリを提供します。
package repositories

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrDuplicateEmail  = errors.New("duplicate email")
	ErrUserNotFound    = errors.New("user not found")
	ErrTodoNotFound    = errors.New("todo not found")
	ErrStarNotFound    = errors.New("star not found")
	ErrDuplicateStar   = errors.New("duplicate star")
	ErrSessionNotFound = errors.New("session not found")
)

// isDuplicateKey は一意制約違反かどうかを判定します。
// MySQL はエラーコード1062、SQLite はメッセージで判定します。
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// isMissingReference は外部キー違反 (参照先が存在しない) かどうかを判定します。
func isMissingReference(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1452
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
