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
	"github.com/redis/go-redis/v9"

	"github.com/hotelpulse/hotelpulse/internal/app"
	"github.com/hotelpulse/hotelpulse/internal/dashboard"
	dashboardhttp "github.com/hotelpulse/hotelpulse/internal/dashboard/http"
	"github.com/hotelpulse/hotelpulse/internal/dashboard/source"
	"github.com/hotelpulse/hotelpulse/internal/observability"
	"github.com/hotelpulse/hotelpulse/internal/platform/cache"
	"github.com/hotelpulse/hotelpulse/internal/platform/db"
	"github.com/hotelpulse/hotelpulse/internal/tenants"
	"github.com/hotelpulse/hotelpulse/jobs"
	"github.com/hotelpulse/hotelpulse/report"
)

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
	metrics := observability.NewMetrics()

	directory, err := tenants.LoadFile(cfg.TenantsFile)
	if err != nil {
		logger.Error("load tenants", slog.String("path", cfg.TenantsFile), slog.Any("error", err))
		os.Exit(1)
	}

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

	// The payload cache is optional; without Redis every fetch goes upstream.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisOptions()); err != nil {
		logger.Warn("redis unavailable, payload cache disabled", slog.Any("error", err))
	} else {
		redisClient = client
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	payloadCache := source.NewCache(redisClient, cfg.CacheTTL)
	if err := payloadCache.ListenForInvalidation(ctx); err != nil {
		logger.Warn("subscribe cache invalidation", slog.Any("error", err))
	}
	fetcher := source.NewCachedFetcher(upstream, payloadCache, logger, metrics)

	aggregator := dashboard.NewAggregator(fetcher, logger, metrics)
	registry := dashboard.NewRegistry(aggregator)
	dashboardHandler := dashboardhttp.NewHandler(logger, registry, aggregator, directory, metrics, dashboardhttp.Config{
		MaxPoints:      cfg.MaxPoints,
		RequestTimeout: cfg.DashboardTimeout,
	})
	if cfg.GotenbergURL != "" {
		pdfClient := report.NewClient(cfg.GotenbergURL, cfg.GotenbergTimeout)
		if err := pdfClient.Ping(ctx); err != nil {
			logger.Warn("gotenberg ping", slog.Any("error", err))
		}
		dashboardHandler.WithPDFRenderer(pdfClient)
	}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: dashboardHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("metrics_source", cfg.MetricsSource))
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
