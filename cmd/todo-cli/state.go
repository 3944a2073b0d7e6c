package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// cliState はコマンド間で引き継ぐ接続情報と直近の表示順です。
type cliState struct {
	Server       string `yaml:"server"`
	CookieName   string `yaml:"cookie_name,omitempty"`
	SessionToken string `yaml:"session_token,omitempty"`
	// Targets は直近に表示した一覧の位置ごとのTodo IDです。
	Targets []int `yaml:"targets,omitempty"`
}

const defaultServer = "http://localhost:3247"

func defaultStatePath() string {
	if p := os.Getenv("STAR_TODO_STATE"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".star-todo.yaml"
	}
	return filepath.Join(dir, "star-todo", "cli.yaml")
}

func loadState(path string) (*cliState, error) {
	st := &cliState{Server: defaultServer}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	if err := yaml.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse state %s: %w", path, err)
	}
	if st.Server == "" {
		st.Server = defaultServer
	}
	return st, nil
}

func saveState(path string, st *cliState) error {
	data, err := yaml.Marshal(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	// トークンを含むため本人のみ読み書き可能にする
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}
