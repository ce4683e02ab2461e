package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendora-app/vendora-backend/internal/audit"
	"github.com/vendora-app/vendora-backend/internal/cron"
	"github.com/vendora-app/vendora-backend/internal/revenue"
	"github.com/vendora-app/vendora-backend/pkg/config"
	"github.com/vendora-app/vendora-backend/pkg/db"
	"github.com/vendora-app/vendora-backend/pkg/logger"
	"github.com/vendora-app/vendora-backend/pkg/metrics"
	"github.com/vendora-app/vendora-backend/pkg/migrate"
	"github.com/vendora-app/vendora-backend/pkg/redis"
)

const lockKeyFormat = "vnd:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	auditService, err := audit.NewService(audit.ServiceParams{
		Repo: audit.NewRepository(dbClient.DB()),
		DB:   dbClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit service", err)
		os.Exit(1)
	}

	aggregator, err := revenue.NewAggregator(revenue.AggregatorParams{
		Repo: revenue.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create revenue aggregator", err)
		os.Exit(1)
	}

	snapshotJob, err := cron.NewRevenueSnapshotJob(cron.RevenueSnapshotJobParams{
		Logger:       logg,
		Aggregator:   aggregator,
		BackfillDays: cfg.Cron.SnapshotBackfillDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create revenue snapshot job", err)
		os.Exit(1)
	}

	rollupJob, err := cron.NewRevenueRollupJob(cron.RevenueRollupJobParams{
		Logger:     logg,
		Aggregator: aggregator,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create revenue rollup job", err)
		os.Exit(1)
	}

	verifyJob, err := cron.NewAuditVerifyJob(cron.AuditVerifyJobParams{
		Logger:     logg,
		Audit:      auditService,
		Metrics:    metrics.NewAuditChainMetrics(prometheus.DefaultRegisterer),
		EveryNRuns: cfg.Cron.VerifyEveryNRuns,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create audit verify job", err)
		os.Exit(1)
	}

	metricsCollector := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)
	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry(snapshotJob, rollupJob, verifyJob)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
