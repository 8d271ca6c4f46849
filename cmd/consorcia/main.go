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

	"github.com/consorcia/consorcia/internal/app"
	"github.com/consorcia/consorcia/internal/auth"
	"github.com/consorcia/consorcia/internal/cierres"
	"github.com/consorcia/consorcia/internal/cuotas"
	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/gastos"
	"github.com/consorcia/consorcia/internal/observability"
	"github.com/consorcia/consorcia/internal/platform/db"
	"github.com/consorcia/consorcia/internal/shared"
	"github.com/consorcia/consorcia/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "consorcia_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	edificiosRepo := edificios.NewRepository(dbpool)
	edificiosService := edificios.NewService(edificiosRepo)
	tenantMW := edificios.Middleware{Logger: logger}
	edificioHandler := edificios.NewHandler(logger, edificiosService, tenantMW)

	fondosRepo := fondos.NewRepository(dbpool)
	fondosService := fondos.NewService(fondosRepo, auditLogger)
	fondosHandler := fondos.NewHandler(logger, fondosService, tenantMW)

	cuotasRepo := cuotas.NewRepository(dbpool)
	cuotasCache := cuotas.NewCache(redisClient, cfg.StatsCacheTTL)
	cuotasService := cuotas.NewService(cuotasRepo, edificiosService, auditLogger, cuotasCache)
	cuotasHandler := cuotas.NewHandler(logger, cuotasService, tenantMW)

	gastosRepo := gastos.NewRepository(dbpool)
	gastosService := gastos.NewService(gastosRepo, auditLogger)
	gastosHandler := gastos.NewHandler(logger, gastosService, tenantMW)

	cierresRepo := cierres.NewRepository(dbpool)
	cierresService := cierres.NewService(cierresRepo, cuotasService, gastosService, fondosService, auditLogger)
	cierresHandler := cierres.NewHandler(logger, cierresService, tenantMW)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
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
		AuthHandler:     authHandler,
		EdificioHandler: edificioHandler,
		FondosHandler:   fondosHandler,
		CuotasHandler:   cuotasHandler,
		GastosHandler:   gastosHandler,
		CierresHandler:  cierresHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
