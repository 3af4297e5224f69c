package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"campus-portal/backend/config"
	"campus-portal/backend/internal/api/handler"
	"campus-portal/backend/internal/api/router"
	"campus-portal/backend/internal/jobs"
	"campus-portal/backend/internal/repository"
	"campus-portal/backend/internal/service"
	"campus-portal/backend/pkg/database"
	"campus-portal/backend/pkg/jwt"
	applogger "campus-portal/backend/pkg/logger"
	"campus-portal/backend/pkg/redis"
	"campus-portal/backend/pkg/storage"
	"campus-portal/backend/pkg/validation"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// 1. configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting campus portal",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// 4. redis is optional: without it token revocation and rate limits are off
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limits disabled", zap.Error(err))
		rdb = nil
	}

	// 5. file storage
	store, err := storage.NewDiskStore(&cfg.Storage)
	if err != nil {
		logger.Fatal("open storage", zap.Error(err), zap.String("root_dir", cfg.Storage.RootDir))
	}

	// 6. Repository -> Service -> Handler
	validation.Setup()
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(service.Deps{
		Config: cfg,
		Repo:   repo,
		JWT:    jwtMgr,
		Redis:  rdb,
		Store:  store,
		Logger: logger,
	})

	checks := map[string]handler.Pinger{
		"database": handler.PingFunc(sqlDB.PingContext),
		"redis":    nil,
	}
	if rdb != nil {
		checks["redis"] = rdb
	}
	h := handler.NewHandler(svc, cfg, store, checks)

	// 7. router
	engine := router.Setup(cfg, h, jwtMgr, rdb, svc.Roles, logger)

	// 8. background jobs
	sweeper := jobs.NewOrphanSweeper(store, cfg.Jobs.OrphanSweep.GracePeriod, logger, repo.Event, repo.Research)
	scheduler, err := jobs.NewScheduler(&cfg.Jobs, sweeper, logger)
	if err != nil {
		logger.Fatal("schedule jobs", zap.Error(err))
	}
	scheduler.Start()

	// 9. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		// multipart submissions carry several files
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http server shutdown", zap.Error(err))
	}
	scheduler.Stop(ctx)

	if err := sqlDB.Close(); err != nil {
		logger.Warn("close database", zap.Error(err))
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}
