package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"newsdesk/portal/internal/api"
	"newsdesk/portal/internal/cache"
	"newsdesk/portal/internal/config"
	"newsdesk/portal/internal/db"
	"newsdesk/portal/internal/email"
	"newsdesk/portal/internal/logger"
	"newsdesk/portal/internal/services"
	"newsdesk/portal/internal/storage"
	"newsdesk/portal/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks and scheduler), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger.SetGlobal(zl)

	switch cfg.RunMode {
	case "api", "bg", "all":
	default:
		zl.Fatalf("Invalid run mode: %s", cfg.RunMode)
	}

	mongoClient, mongoDb, err := db.Connect(context.Background(), cfg)
	if err != nil {
		zl.Fatalw("Failed to connect to database", "error", err)
	}
	defer func() {
		if err := db.Disconnect(mongoClient); err != nil {
			zl.Errorw("Error disconnecting from MongoDB", "error", err)
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.EnsureIndexes(indexCtx, mongoDb)
	cancelIndex()
	if err != nil {
		zl.Fatalw("Failed to ensure indexes", "error", err)
	}

	redisClient, err := cache.Connect(context.Background(), cfg)
	if err != nil {
		zl.Fatalw("Failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := cache.Close(redisClient); err != nil {
			zl.Errorw("Error disconnecting from Redis", "error", err)
		}
	}()

	s3Storage, err := storage.NewS3Storage(cfg)
	if err != nil {
		zl.Fatalw("Failed to initialise S3 storage", "error", err)
	}

	taskClient := tasks.NewClient(cfg)
	defer taskClient.Close()
	dispatcher := tasks.NewDispatcher(taskClient)

	svc := services.NewRegistry(mongoDb, redisClient, cfg, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// The service API runs in every mode.
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(mongoClient, redisClient, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		zl.Infow("Service API listening", "port", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatalw("Service API ListenAndServe error", "error", err)
		}
		zl.Info("Service API server stopped")
	}()

	var mainApiSrv *http.Server
	var taskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	zl.Infow("Starting application", "mode", cfg.RunMode)

	if cfg.RunMode == "api" || cfg.RunMode == "all" {
		router, err := api.SetupRouter(ctx, cfg, svc, s3Storage, dispatcher)
		if err != nil {
			zl.Fatalw("Failed to set up router", "error", err)
		}
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			zl.Infow("Main API listening", "port", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zl.Fatalw("Main API ListenAndServe error", "error", err)
			}
			zl.Info("Main API server stopped")
		}()
	}

	if cfg.RunMode == "bg" || cfg.RunMode == "all" {
		var extra []email.Sender
		if cfg.EmailMockRedis {
			extra = append(extra, email.NewRedisSender(redisClient, cfg.SmtpFromAddress))
		}
		sender, err := email.NewSender(cfg, extra...)
		if err != nil {
			zl.Fatalw("Failed to initialise email sender", "error", err)
		}

		processor := tasks.NewTaskProcessor(cfg, sender, s3Storage, svc.EmailTemplates, svc.Catalog, svc.Agents, svc.Billing)
		var mux *asynq.ServeMux
		taskSrv, mux = tasks.SetupServer(cfg, processor)
		if err := taskSrv.Start(mux); err != nil {
			zl.Fatalw("Background task server error", "error", err)
		}
		zl.Info("Background task server started")

		scheduler, err = tasks.NewScheduler(cfg)
		if err != nil {
			zl.Fatalw("Failed to configure scheduler", "error", err)
		}
		if err := scheduler.Start(); err != nil {
			zl.Fatalw("Scheduler error", "error", err)
		}
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		zl.Infow("Received signal, shutting down", "signal", sig.String())
	case <-shutdownChan:
		zl.Info("Shutdown requested via service API")
	}
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		zl.Errorw("Service API server shutdown error", "error", err)
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			zl.Errorw("Main API server shutdown error", "error", err)
		}
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	zl.Info("Server gracefully stopped")
}
