package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"campusnest_backend/database"
	"campusnest_backend/internal/auth"
	"campusnest_backend/internal/config"
	"campusnest_backend/internal/handlers"
	"campusnest_backend/internal/logger"
	"campusnest_backend/internal/metrics"
	"campusnest_backend/internal/middleware"
	"campusnest_backend/internal/repositories"
	"campusnest_backend/internal/routes"
	"campusnest_backend/internal/services"
	"campusnest_backend/internal/storage"
	"campusnest_backend/internal/upload"
	"campusnest_backend/internal/validator"
	"campusnest_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := OpenDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	storageInstance, err := storage.NewStorage(ctx, cfg.StorageConfig())
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)
	startWorkers(ctx, cfg, storageInstance)

	ginRouter, err := SetupRouter(ctx, cfg, gormDB, storageInstance, prometheus.NewRegistry())
	if err != nil {
		logger.Fatal("Failed to set up router", "error", err)
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	if gormDB != nil {
		if sqlDB, err := gormDB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	logger.Info("Server stopped")
}

// OpenDatabase connects to postgres when a DSN is configured. A nil DB with
// a nil error means the upload registry runs disabled.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		logger.Warn("DATABASE_URL is not set. Upload registry is disabled.")
		return nil, nil
	}

	logger.Info("Connecting to database...")
	gormDB, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(gormDB); err != nil {
			return nil, err
		}
	}
	return gormDB, nil
}

// SetupRouter builds uploaders, handlers and the gin engine. gormDB may be
// nil. reg receives the upload metrics; nil disables /metrics.
func SetupRouter(ctx context.Context, cfg *config.Config, gormDB *gorm.DB, storageInstance storage.Storage, reg *prometheus.Registry) (*gin.Engine, error) {
	var err error
	var observer *metrics.Observer
	var metricsHandler http.Handler
	if reg != nil && cfg.Metrics.Enabled {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		observer, err = metrics.NewObserver(cfg.Metrics.Namespace, reg)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}

	customValidator := validator.New()
	uploaders, err := initializeUploaders(ctx, cfg, upload.Deps{
		Storage:   storageInstance,
		Observer:  observer,
		Validator: customValidator,
	})
	if err != nil {
		return nil, err
	}

	uploadService := services.NewUploadService(repositories.NewUploadRepository())
	baseHandler := handlers.NewBaseHandler(customValidator)
	appHandlers := &handlers.AppHandlers{
		UploadHandler: handlers.NewUploadHandler(baseHandler, uploadService, uploaders),
		FileHandler:   handlers.NewFileHandler(baseHandler, storageInstance),
		HealthHandler: handlers.NewHealthHandler(gormDB),
	}

	var authMiddleware gin.HandlerFunc
	if cfg.JWT.Secret != "" {
		authMiddleware = middleware.AuthMiddleware(auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL))
	} else {
		logger.Warn("JWT secret is not set. /api/v1 is served without authentication.")
	}

	ginRouter := initializeGinRouter(cfg, gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers, authMiddleware, metricsHandler, cfg.Metrics.Path)
	return ginRouter, nil
}

// startWorkers запускает фоновые задачи, которые поддерживает хранилище.
func startWorkers(ctx context.Context, cfg *config.Config, storageInstance storage.Storage) {
	sweeper, ok := storageInstance.(workers.TempSweeper)
	if !ok || cfg.Upload.TempSweepInterval <= 0 {
		return
	}
	workers.NewStorageWorker(sweeper, cfg.Upload.TempSweepInterval, cfg.Upload.TempMaxAge).Start(ctx)
	logger.Info("Storage worker started", "interval", cfg.Upload.TempSweepInterval)
}

func initializeUploaders(ctx context.Context, cfg *config.Config, deps upload.Deps) (handlers.Uploaders, error) {
	all := make(map[string]*upload.Uploader)
	for name, opts := range cfg.CategoryOptions() {
		u, err := upload.New(ctx, name, opts, deps)
		if err != nil {
			return handlers.Uploaders{}, err
		}
		all[name] = u
		logger.Info("Upload category ready", "category", name, "max_file_size", u.Category().Options.MaxFileSize)
	}

	return handlers.Uploaders{
		Properties: all["properties"],
		Avatars:    all["avatars"],
		Documents:  all["documents"],
		General:    all["general"],
		All:        all,
	}, nil
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	if db != nil {
		router.Use(middleware.DBMiddleware(db))
	}
	router.Use(middleware.ErrorHandler())
	return router
}
