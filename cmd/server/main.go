package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/bloglist/backend/internal/auth"
	"github.com/anonto42/bloglist/backend/internal/cache"
	"github.com/anonto42/bloglist/backend/internal/repositories"
	"github.com/anonto42/bloglist/backend/internal/router"
	"github.com/anonto42/bloglist/backend/pkg/config"
	"github.com/anonto42/bloglist/backend/pkg/firebase"
	"github.com/anonto42/bloglist/backend/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(logger.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	// Initialize database connections
	db, err := config.InitDB(cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialize databases", zap.Error(err))
	}
	defer db.CloseDB()

	ctx := context.Background()
	mongoDB := db.Mongo.Database(cfg.MongoDatabase)
	blogRepo := repositories.NewMongoBlogRepository(mongoDB)

	var userRepo repositories.UserRepository
	switch cfg.UserStore {
	case "postgres":
		pgRepo := repositories.NewPostgresUserRepository(db.Postgres)
		if err := pgRepo.Migrate(); err != nil {
			zl.Fatal("failed to migrate user tables", zap.Error(err))
		}
		userRepo = pgRepo
	default:
		mongoRepo := repositories.NewMongoUserRepository(mongoDB)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			zl.Fatal("failed to create user indexes", zap.Error(err))
		}
		userRepo = mongoRepo
	}

	var listCache cache.BlogListCache = cache.Noop{}
	if db.Redis != nil {
		listCache = cache.NewRedisCache(db.Redis, cfg.CacheTTL, zl)
	}

	deps := router.Dependencies{
		Config: cfg,
		Users:  userRepo,
		Blogs:  blogRepo,
		Cache:  listCache,
		Issuer: auth.NewTokenIssuer(cfg.Secret, cfg.TokenTTL),
		Logger: zl,
	}

	// Firebase login is optional
	if cfg.FirebaseCredentialsPath != "" {
		authClient, err := firebase.NewAuthClient(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			zl.Fatal("failed to initialize Firebase", zap.Error(err))
		}
		deps.Firebase = authClient
	}

	e := router.New(deps)

	go func() {
		zl.Info("server listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("server shutdown failed", zap.Error(err))
	}
	zl.Info("server stopped")
}
