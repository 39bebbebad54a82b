package main // Entry point package

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/notes-api/internal/apperr"
	"github.com/iliyamo/notes-api/internal/cache"
	"github.com/iliyamo/notes-api/internal/config"
	"github.com/iliyamo/notes-api/internal/database"
	"github.com/iliyamo/notes-api/internal/handler"
	"github.com/iliyamo/notes-api/internal/queue"
	"github.com/iliyamo/notes-api/internal/repository"
	"github.com/iliyamo/notes-api/internal/router"
	queue_publisher "github.com/iliyamo/notes-api/internal/service"
	"github.com/iliyamo/notes-api/internal/session"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// MySQL: users, refresh-token allow-list and notes.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	if err := database.ApplyMigrations(db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	// Redis backs sessions and rate limiting, both of which fail closed, so
	// an unreachable server is fatal rather than a degraded start.
	rdb, err := config.NewRedisClient()
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	store := cache.NewRedisStore(rdb)

	sessions := session.NewManager(
		store,
		cfg.SessionSecret,
		cfg.CookieSecret,
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		cfg.Production(),
	)

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	notes := repository.NewNoteRepo(db)

	// Background consumer materializing queued note exports.
	consumer := &queue.ExportConsumer{Notes: notes, ExportDir: cfg.ExportDir}
	go consumer.Start()

	// Periodic sweep of expired allow-list rows.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := tokens.DeleteExpired(ctx); err != nil {
				log.Printf("token sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("token sweep removed %d expired rows", n)
			}
			cancel()
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler

	// Request logging, panic recovery and the security headers the original
	// deployment applied globally.
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XFrameOptions:         "DENY",
		ContentTypeNosniff:    "nosniff",
		HSTSMaxAge:            31536000,
		HSTSPreloadEnabled:    true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization, "X-Requested-With", echo.HeaderAccept, echo.HeaderOrigin, "X-Refresh-Token"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	router.Register(e, router.Deps{
		Auth:         handler.NewAuthHandler(cfg, users, tokens, sessions),
		Notes:        handler.NewNoteHandler(notes),
		Uploads:      handler.NewUploadHandler(cfg.UploadDir),
		Exports:      handler.NewExportHandler(queue_publisher.NewPublisher()),
		Sessions:     sessions,
		Store:        store,
		RateLimits:   config.LoadRateLimitConfig(),
		CacheCfg:     config.LoadCacheConfig(),
		AccessSecret: cfg.AccessTokenKey,
		UploadDir:    cfg.UploadDir,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	_ = db.Close()
	_ = rdb.Close()
}

func allowedOrigins() []string {
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		var out []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
		return out
	}
	return []string{"http://localhost:3000", "http://localhost:5000"}
}
