package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"revtrack/internal/common/cache"
	"revtrack/internal/common/db"
	"revtrack/internal/common/http/middleware"
	"revtrack/internal/review/controller"
	"revtrack/internal/review/repository"
	"revtrack/internal/review/service"
	"revtrack/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/review_service.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() { _ = logger.Sync() }()

	reviewRepo, cleanup, err := buildRepository(appCfg)
	if err != nil {
		logger.Error(context.Background(), "init storage failed", zap.Error(err))
		return
	}
	defer cleanup()

	reviewService := service.NewReviewService(reviewRepo)
	reviewController := controller.NewReviewController(reviewService)

	httpServer := buildHTTPServer(appCfg, reviewController)

	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "review service started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("backend", appCfg.Storage.Backend),
		)
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

// buildRepository wires the repository selected by storage.backend. The
// returned cleanup closes every opened connection and is safe to call once.
func buildRepository(cfg *AppConfig) (repository.ReviewRepository, func(), error) {
	switch cfg.Storage.Backend {
	case BackendMySQL:
		database, err := db.NewMySQLWithConfig(&cfg.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("init mysql failed: %w", err)
		}
		return buildSQLRepository(cfg, database, repository.DialectMySQL)
	case BackendPostgres:
		database, err := db.NewPostgreSQLWithConfig(&cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres failed: %w", err)
		}
		return buildSQLRepository(cfg, database, repository.DialectPostgres)
	case BackendRedis:
		store, err := cache.NewRedisCacheWithConfig(&cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("init redis failed: %w", err)
		}
		cleanup := func() { _ = store.Close() }
		return repository.NewDocumentReviewRepository(store), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func buildSQLRepository(cfg *AppConfig, database db.Database, dialect repository.Dialect) (repository.ReviewRepository, func(), error) {
	if !cfg.Storage.CacheReads {
		cleanup := func() { _ = database.Close() }
		return repository.NewSQLReviewRepository(database, dialect), cleanup, nil
	}

	readCache, err := cache.NewRedisCacheWithConfig(&cfg.Redis)
	if err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("init read cache failed: %w", err)
	}
	cleanup := func() {
		_ = readCache.Close()
		_ = database.Close()
	}
	repo := repository.NewSQLReviewRepositoryWithCache(database, dialect, readCache, cfg.Storage.CacheTTL, cfg.Storage.CacheEmptyTTL)
	return repo, cleanup, nil
}

func buildHTTPServer(cfg *AppConfig, reviewController *controller.ReviewController) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceContextMiddleware())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	reviews := router.Group("/api/v1/users/:userId/reviews")
	{
		reviews.POST("", reviewController.Create)
		reviews.GET("", reviewController.List)
		reviews.GET("/:id", reviewController.GetOne)
		reviews.PUT("/:id/progress", reviewController.UpdateProgress)
		reviews.DELETE("/:id", reviewController.Delete)
	}

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
