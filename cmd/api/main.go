// Package main runs the reference help-desk API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/labdesk/helpdesk/internal/api/http"
	"github.com/labdesk/helpdesk/internal/config"
	"github.com/labdesk/helpdesk/internal/observability"
	"github.com/labdesk/helpdesk/internal/persistence"
	"github.com/labdesk/helpdesk/internal/repository"
	"github.com/labdesk/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	deps := httptransport.Dependencies{
		Logger:   logger,
		Metrics:  observability.NewMetrics(),
		Postgres: pg,
		Redis:    redis,
	}
	if pg.Configured() {
		deps.TicketRepo = repository.NewTicketRepository(pg.PoolHandle())
		deps.UserRepo = repository.NewUserRepository(pg.PoolHandle())
	} else {
		logger.Warn("using in-memory repositories; data is lost on restart")
	}
	if redis.Configured() && redis.Ping(ctx) == nil {
		deps.Queue = persistence.NewRedisQueue(redis, cfg.Redis.QueueKey)
	} else {
		logger.Warn("using in-memory notification queue")
		deps.Queue = persistence.NewMemoryQueue(0)
	}

	backend := httptransport.NewBackend(*cfg, deps)
	workerDone := worker.StartNotificationWorker(ctx, backend.Notifications, deps.Queue, logger)

	go func() {
		if err := backend.App.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = backend.App.Shutdown()
	cancel()
	<-workerDone
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
