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

	"github.com/hotelpulse/hotelpulse/internal/app"
	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	"github.com/hotelpulse/hotelpulse/internal/dashboard/source"
	"github.com/hotelpulse/hotelpulse/internal/observability"
	"github.com/hotelpulse/hotelpulse/internal/platform/cache"
	"github.com/hotelpulse/hotelpulse/internal/platform/db"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
	"github.com/hotelpulse/hotelpulse/jobs"
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
	metrics := observability.NewMetrics()

	directory, err := tenants.LoadFile(cfg.TenantsFile)
	if err != nil {
		logger.Error("load tenants", slog.String("path", cfg.TenantsFile), slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var upstream dashboard.Fetcher
	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		upstream = source.NewPostgresSource(pool)
	} else {
		upstream = source.NewHTTPClient(cfg.MetricsBaseURL, cfg.MetricsServiceToken, cfg.MetricsTimeout)
	}

	payloadCache := source.NewCache(redisClient, cfg.CacheTTL)
	fetcher := source.NewCachedFetcher(upstream, payloadCache, logger, metrics)

	warmupJob := jobs.NewDashboardWarmupJob(fetcher, directory, logger, metrics.Jobs())

	warmupTask, err := jobs.NewDashboardWarmupTask("")
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskDashboardInvalidate, Handler: jobs.InvalidateHandler(payloadCache, logger, metrics.Jobs())},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.WarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("worker metrics server", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("starting worker", slog.String("warmup_cron", cfg.WarmupCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
