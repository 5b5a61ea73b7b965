package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cinevisor/cinevisor-api/internal/config"
	"github.com/cinevisor/cinevisor-api/internal/es"
	"github.com/cinevisor/cinevisor-api/internal/events"
	"github.com/cinevisor/cinevisor-api/internal/handlers"
	"github.com/cinevisor/cinevisor-api/internal/logging"
	mwauth "github.com/cinevisor/cinevisor-api/internal/middleware/auth"
	"github.com/cinevisor/cinevisor-api/internal/repo"
	"github.com/cinevisor/cinevisor-api/internal/service"
	"github.com/cinevisor/cinevisor-api/internal/storage"
	"github.com/cinevisor/cinevisor-api/internal/tokens"
	httpserver "github.com/cinevisor/cinevisor-api/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}

	var producer events.Publisher
	if cfg.KafkaEnabled() {
		producer = events.NewProducer(cfg.KafkaAddress)
		logger.Info("kafka producer ready", "address", cfg.KafkaAddress)
	}

	searchHandler := &handlers.SearchHandler{Index: cfg.ESIndex}
	if cfg.ESEnabled() {
		client, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch error: %v", err)
		}
		searchHandler.ES = client
		logger.Info("elasticsearch ready", "url", cfg.ESURL)
	}

	var store storage.ObjectStore
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Store(context.Background(), cfg)
		if err != nil {
			log.Fatalf("s3 error: %v", err)
		}
		store = s3Store
		logger.Info("object storage ready", "bucket", cfg.S3Bucket)
	} else {
		logger.Info("object storage not configured, using local uploads", "dir", cfg.UploadDir)
	}

	codec := tokens.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTTL(), cfg.RefreshTTL())
	repository := repo.New(db)
	authService := service.NewAuthService(repository, codec)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
	}))
	e.Static("/uploads", cfg.UploadDir)

	deps := httpserver.Deps{
		Auth:        &mwauth.Middleware{Codec: codec, DB: db},
		AuthHandler: &handlers.AuthHandler{Auth: authService, Producer: producer},
		VideoHandler: &handlers.VideoHandler{
			DB: db, Producer: producer, Store: store,
			ES: searchHandler.ES, ESIndex: cfg.ESIndex,
			UploadDir: cfg.UploadDir, MaxUploadSize: cfg.MaxUploadSize,
		},
		Comments:      &handlers.CommentHandler{DB: db, Producer: producer},
		Likes:         &handlers.LikeHandler{DB: db, Producer: producer},
		Users:         &handlers.UserHandler{DB: db},
		Playlists:     &handlers.PlaylistHandler{DB: db},
		Notifications: &handlers.NotificationHandler{DB: db},
		Reports:       &handlers.ReportHandler{DB: db},
		Admin:         &handlers.AdminHandler{DB: db, Producer: producer, ES: searchHandler.ES, ESIndex: cfg.ESIndex},
		Search:        searchHandler,
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
