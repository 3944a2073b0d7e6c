// Package database はデータベース接続とスキーマ作成を扱います。
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"star-todo/internal/config"
)

// GetDSN は設定から接続文字列 (DSN) を構築します。
// DATABASE_URL が指定されていればそれを優先します。
func GetDSN(cfg *config.Config) string {
	if cfg.DatabaseURL != "" {
		return cfg.DatabaseURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// Open はデータベース接続を初期化し、スキーマを作成します。
func Open(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.DBDriver, GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	Configure(db, cfg.DBDriver)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := Migrate(db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Configure はドライバーごとのコネクションプール設定を行います。
// SQLite は書き込みが1接続に限られるため、接続数を1に固定します。
func Configure(db *sql.DB, driver string) {
	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// Migrate はテーブルが無ければ作成します。何度呼んでも安全です。
func Migrate(db *sql.DB, driver string) error {
	statements, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
