// Package config は環境変数からサーバー設定を読み込みます。
package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	SchemeCipher = "cipher"
	SchemeBcrypt = "bcrypt"
)

// Config はサーバー全体の設定です。
type Config struct {
	Port string

	// データベース
	DBDriver    string
	DBUser      string
	DBPass      string
	DBHost      string
	DBPort      string
	DBName      string
	DatabaseURL string

	// セッション
	SessionSecret string
	SessionTTL    time.Duration
	CookieName    string
	CookieSecure  bool

	// パスワード保護
	PasswordScheme string
	PasswordKey    []byte

	// 画像
	DefaultImageURL  string
	ImagesDir        string
	PublicURL        string
	CloudinaryURL    string
	CloudinaryFolder string

	CORSOrigins       []string
	LegacyErrorStatus bool
	LogLevel          string
	GinMode           string
}

// LoadEnvFile は .env ファイルを読み込みます。ファイルが無い場合は無視します。
func LoadEnvFile() error {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load は環境変数から設定を構築します。
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "3247"),
		DBDriver:         strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DBUser:           os.Getenv("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           getEnv("DB_HOST", "127.0.0.1"),
		DBPort:           getEnv("DB_PORT", "3306"),
		DBName:           os.Getenv("DB_NAME"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		CookieName:       getEnv("SESSION_COOKIE", "sid"),
		PasswordScheme:   strings.ToLower(getEnv("PASSWORD_SCHEME", SchemeCipher)),
		DefaultImageURL:  os.Getenv("DEFAULT_IMAGE_URL"),
		ImagesDir:        getEnv("IMAGES_DIR", "public/images"),
		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder: os.Getenv("CLOUDINARY_FOLDER"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GinMode:          getEnv("GIN_MODE", "release"),
	}

	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET environment variable not set")
	}

	switch cfg.DBDriver {
	case DriverMySQL:
		if cfg.DatabaseURL == "" && cfg.DBName == "" {
			return nil, errors.New("DB_NAME or DATABASE_URL required for mysql")
		}
	case DriverSQLite:
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "star-todo.db"
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use mysql or sqlite)", cfg.DBDriver)
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CookieSecure, err = getBool("COOKIE_SECURE", false); err != nil {
		return nil, err
	}
	if cfg.LegacyErrorStatus, err = getBool("LEGACY_ERROR_STATUS", false); err != nil {
		return nil, err
	}

	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		return nil, fmt.Errorf("unsupported GIN_MODE %q (use debug, release or test)", cfg.GinMode)
	}

	switch cfg.PasswordScheme {
	case SchemeCipher, SchemeBcrypt:
	default:
		return nil, fmt.Errorf("unsupported PASSWORD_SCHEME %q (use cipher or bcrypt)", cfg.PasswordScheme)
	}
	// PASSWORD_KEY が無ければ SESSION_SECRET から 32 バイトの鍵を導出
	keySource := os.Getenv("PASSWORD_KEY")
	if keySource == "" {
		keySource = cfg.SessionSecret
	}
	sum := sha256.Sum256([]byte(keySource))
	cfg.PasswordKey = sum[:]

	cfg.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:"+cfg.Port), "/")
	if cfg.DefaultImageURL == "" {
		cfg.DefaultImageURL = cfg.PublicURL + "/images/default.png"
	}

	origins := getEnv("CORS_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		return nil, fmt.Errorf("invalid CORS_ORIGINS %q: no origins listed (use * to allow any)", origins)
	}

	return cfg, nil
}

// AllowAllOrigins はリクエスト元のOriginをそのまま許可するかを返します。
func (c *Config) AllowAllOrigins() bool {
	for _, o := range c.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
