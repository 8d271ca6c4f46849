package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/consorcia/consorcia/internal/app"
	"github.com/consorcia/consorcia/internal/cuotas"
	"github.com/consorcia/consorcia/internal/edificios"
	jobmetrics "github.com/consorcia/consorcia/internal/jobs"
	"github.com/consorcia/consorcia/internal/observability"
	"github.com/consorcia/consorcia/internal/platform/db"
	"github.com/consorcia/consorcia/internal/shared"
	"github.com/consorcia/consorcia/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	auditLogger := shared.NewAuditLogger(pool)

	edificiosRepo := edificios.NewRepository(pool)
	edificiosService := edificios.NewService(edificiosRepo)

	cuotasRepo := cuotas.NewRepository(pool)
	cuotasCache := cuotas.NewCache(redisClient, cfg.StatsCacheTTL)
	cuotasService := cuotas.NewService(cuotasRepo, edificiosService, auditLogger, cuotasCache)

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
	sweeper := jobs.NewSweeper(cuotasService, edificiosService, metrics, jobMetrics, logger)

	sweepTask, err := jobs.NewVerificarVencimientosTask(jobs.VerificarVencimientosPayload{})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskVerificarVencimientos, Handler: sweeper.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
