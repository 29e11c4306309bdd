package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habit-tracker/internal/config"
	"github.com/habit-tracker/internal/middleware"
	"github.com/habit-tracker/internal/repository"
	"github.com/habit-tracker/internal/router"
	"github.com/habit-tracker/internal/service"
	"github.com/habit-tracker/internal/session"
	"github.com/habit-tracker/internal/worker"
	"github.com/habit-tracker/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Build info (injected at build time via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := middleware.InitLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	loc, err := cfg.Location()
	if err != nil {
		appLogger.Fatalf("Failed to load timezone: %v", err)
	}

	// Initialize database
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.Mode == "release" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}
	db, err := repository.Open(cfg.Database, gormLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialize database: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		appLogger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize session store, Redis when configured
	var (
		rdb          *redis.Client
		sessionStore session.Store
		memoryStore  *session.MemoryStore
		deps         router.Deps
	)
	if cfg.Redis.Enabled() {
		rdb = initRedis(cfg)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			appLogger.Fatalf("Failed to connect to Redis: %v", err)
		}
		sessionStore = session.NewRedisStore(rdb)
		deps.LoginLimiter = ratelimit.NewRedisLimiter(rdb, cfg.Login.MaxAttempts, "habit:login:", cfg.Login.Window())
	} else {
		appLogger.Warn("Redis not configured, sessions are kept in memory and login throttling is off")
		memoryStore = session.NewMemoryStore()
		sessionStore = memoryStore
	}
	sessions := session.NewManager(sessionStore, cfg.Session.Secret, cfg.Session.SessionTTL())

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	checkRepo := repository.NewCheckRepository(db)

	// Initialize services
	deps.Config = cfg
	deps.Logger = appLogger
	deps.AuthService = service.NewAuthService(userRepo, sessions)
	deps.HabitService = service.NewHabitService(habitRepo, checkRepo, loc)
	deps.ProgressService = service.NewProgressService(habitRepo, checkRepo, loc)
	deps.Build = router.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}

	var sweeper *worker.Sweeper
	if cfg.Sweeper.Schedule != "" {
		var purger worker.SessionPurger
		if memoryStore != nil {
			purger = memoryStore
		}
		sweeper = worker.NewSweeper(checkRepo, purger, cfg.Sweeper.Schedule, appLogger)
		if err := sweeper.Start(); err != nil {
			appLogger.Fatalf("Failed to start sweeper: %v", err)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.New(deps),
	}

	// Start server in goroutine
	go func() {
		appLogger.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	if sweeper != nil {
		sweeper.Stop()
	}

	// Graceful shutdown with 10 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatalf("Server forced to shutdown: %v", err)
	}

	closeResources(appLogger, rdb, db)
	appLogger.Info("Server exited properly")
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func closeResources(appLogger *logrus.Logger, rdb *redis.Client, db *gorm.DB) {
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			appLogger.Errorf("Error closing Redis connection: %v", err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			appLogger.Errorf("Error closing database: %v", err)
		}
	}
}
