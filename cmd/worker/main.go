package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/desa-digital/panel-desa/internal/activity"
	"github.com/desa-digital/panel-desa/internal/app"
	jobmetrics "github.com/desa-digital/panel-desa/internal/jobs"
	"github.com/desa-digital/panel-desa/internal/observability"
	"github.com/desa-digital/panel-desa/internal/platform/cache"
	"github.com/desa-digital/panel-desa/internal/platform/db"
	"github.com/desa-digital/panel-desa/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		ApplicationName: "panel-desa-worker",
		TimeZone:        cfg.AppTimezone,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	activityMetrics := activity.NewMetrics(metrics.Registerer())
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	// Writes go through the cached store so queued entries still bump the
	// first-page cache version.
	activityRepo := activity.NewRepository(pool, logger)
	activityStore := activity.NewCachedStore(activityRepo, redisClient, cfg.ActivityCacheTTL, activityMetrics, logger)
	composer := activity.NewComposer(cfg.ActivityPageSize, cfg.Location())
	activityService := activity.NewService(activityStore, composer, activityMetrics, logger)

	recordJob := jobs.NewActivityRecordJob(activityService, logger, jobMetrics)
	digestJob := jobs.NewActivityDigestJob(activityService, jobs.NewDigestStore(redisClient, 0), cfg.Location(), logger, jobMetrics)

	// Empty day means "yesterday" at processing time.
	digestTask, err := jobs.NewActivityDigestTask(jobs.ActivityDigestPayload{})
	if err != nil {
		logger.Error("build digest task", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskActivityRecord, Handler: recordJob.Handle},
			{Type: jobs.TaskActivityDigest, Handler: digestJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ActivityDigestCron, Task: digestTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		server := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.String("digest_cron", cfg.ActivityDigestCron), slog.String("timezone", cfg.Location().String()))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
