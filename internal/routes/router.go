// Package routes はルーティングとミドルウェアを定義します。
package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"star-todo/internal/config"
	"star-todo/internal/credential"
	"star-todo/internal/handlers"
	"star-todo/internal/repositories"
	"star-todo/internal/services"
	"star-todo/internal/upload"
)

// Server はルーターと、起動時処理で使うサービスをまとめたものです。
type Server struct {
	Engine   *gin.Engine
	Sessions *services.SessionService
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(db *sql.DB, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	uploader, err := upload.New(cfg)
	if err != nil {
		return nil, err
	}
	credentials, err := credential.New(cfg.PasswordScheme, cfg.PasswordKey)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))
	r.Use(cors.New(corsConfig(cfg)))

	// リポジトリ
	userRepo := repositories.NewUserRepository(db)
	todoRepo := repositories.NewTodoRepository(db)
	starRepo := repositories.NewStarRepository(db)
	sessionStore := repositories.NewSQLSessionStore(db)

	// サービス
	userService := services.NewUserService(userRepo, credentials)
	sessionService := services.NewSessionService(cfg.SessionSecret, cfg.SessionTTL, sessionStore, userRepo)
	todoService := services.NewTodoService(todoRepo, starRepo, uploader, cfg.DefaultImageURL)

	// ハンドラー
	respond := handlers.NewResponder(logger, cfg.LegacyErrorStatus)
	cookie := handlers.SessionCookie{Name: cfg.CookieName, Secure: cfg.CookieSecure}
	userHandler := handlers.NewUserHandler(userService, sessionService, cookie, respond)
	todoHandler := handlers.NewTodoHandler(todoService, upload.NewStore(cfg.ImagesDir), respond)

	r.Use(LoadSession(sessionService, cfg.CookieName, respond))

	// ルーティング
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/dbcheck", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			logger.Error("database ping failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "Database connection failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})
	r.Static("/images", cfg.ImagesDir)

	r.GET("/whoami", userHandler.WhoAmIHandler)
	r.POST("/sign-up", userHandler.SignUpHandler)
	r.POST("/sign-in", userHandler.SignInHandler)
	r.GET("/sign-out", userHandler.SignOutHandler)

	r.GET("/todos", todoHandler.GetTodosHandler)
	r.GET("/todos/:id", todoHandler.GetTodoByIDHandler)

	authorized := r.Group("/")
	authorized.Use(AuthRequired(respond))
	{
		authorized.POST("/todos", todoHandler.CreateTodoHandler)
		authorized.GET("/todos/vote/:id", todoHandler.VoteTodoHandler)
		authorized.DELETE("/todos/:id", todoHandler.DeleteTodoHandler)
	}

	return &Server{Engine: r, Sessions: sessionService}, nil
}

// corsConfig は資格情報付きのCORS設定を返します。"*" の場合はリクエスト元をそのまま許可します。
func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	c.AllowCredentials = true
	c.MaxAge = 12 * time.Hour
	if cfg.AllowAllOrigins() {
		c.AllowOriginFunc = func(string) bool { return true }
	} else {
		c.AllowOrigins = cfg.CORSOrigins
	}
	return c
}
