package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/desa-digital/panel-desa/cmd/paneldesa/cli"
	"github.com/desa-digital/panel-desa/internal/activity"
	activityhttp "github.com/desa-digital/panel-desa/internal/activity/http"
	"github.com/desa-digital/panel-desa/internal/app"
	"github.com/desa-digital/panel-desa/internal/auth"
	jobmetrics "github.com/desa-digital/panel-desa/internal/jobs"
	"github.com/desa-digital/panel-desa/internal/observability"
	"github.com/desa-digital/panel-desa/internal/platform/cache"
	"github.com/desa-digital/panel-desa/internal/platform/db"
	"github.com/desa-digital/panel-desa/internal/rbac"
	"github.com/desa-digital/panel-desa/internal/shared"
	"github.com/desa-digital/panel-desa/jobs"
)

const sessionCookieName = "paneldesa_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := cli.Run(ctx, redisOpts, cfg.Location(), os.Args[2:], os.Stdout); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{
		MaxConns:        cfg.PGMaxConns,
		ApplicationName: "panel-desa",
		TimeZone:        cfg.AppTimezone,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.AppAutoMigrate {
		if err := db.Migrate(ctx, dbpool, logger); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

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

	activityRepo := activity.NewRepository(dbpool, logger)
	activityStore := activity.NewCachedStore(activityRepo, redisClient, cfg.ActivityCacheTTL, activityMetrics, logger)
	composer := activity.NewComposer(cfg.ActivityPageSize, cfg.Location())
	activityService := activity.NewService(activityStore, composer, activityMetrics, logger)

	jobClient := jobs.NewClient(redisOpts, jobMetrics)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	var recorder activity.Recorder = activityService
	if cfg.ActivityAsyncRecord {
		recorder = jobs.QueuedRecorder{Client: jobClient, Validator: activityService}
	}

	sessionManager := shared.NewSessionManager(redisClient, sessionCookieName, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, recorder)

	rbacMiddleware := rbac.Middleware{Service: rbac.NewService(), Logger: logger}

	browsers := activityhttp.NewBrowserRegistry(cfg.ActivityBrowserTTL, func() *activity.Pager {
		return activityService.NewPager()
	})
	go browsers.Run(ctx, 0)

	activityHandler := activityhttp.NewHandler(
		logger,
		activityService,
		browsers,
		jobs.NewDigestStore(redisClient, 0),
		rbacMiddleware,
		activityhttp.Config{ExportMaxRows: cfg.ActivityExportMaxRows},
	)

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		ActivityHandler: activityHandler,
		JobHandler:      jobHandler,
		RBACMiddleware:  rbacMiddleware,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Bool("async_record", cfg.ActivityAsyncRecord))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
