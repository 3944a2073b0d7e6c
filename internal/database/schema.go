package database

import "star-todo/internal/config"

// MySQL は複数ステートメントを一度に Exec できないため、1文ずつ並べます。
var schemas = map[string][]string{
	config.DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password VARCHAR(512) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			title VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			image VARCHAR(1024) NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS stars (
			id INT AUTO_INCREMENT PRIMARY KEY,
			todo_id INT NOT NULL,
			user_id INT NOT NULL,
			UNIQUE KEY uq_stars_user_todo (user_id, todo_id),
			KEY idx_stars_todo_id (todo_id),
			FOREIGN KEY (todo_id) REFERENCES todos(id) ON DELETE CASCADE,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id CHAR(36) PRIMARY KEY,
			user_id INT NOT NULL,
			expires_at BIGINT NOT NULL,
			KEY idx_sessions_expires_at (expires_at),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
	},
	config.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS todos (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			image TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stars (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			todo_id INTEGER NOT NULL REFERENCES todos(id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			UNIQUE (user_id, todo_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stars_todo_id ON stars(todo_id)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	},
}
