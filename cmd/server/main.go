// Command server runs the HTTP API over loaded operator and expense
// data.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	expensehandler "healthspend/internal/expense/handler"
	expenseservice "healthspend/internal/expense/service"
	expensestore "healthspend/internal/expense/store"
	operatorhandler "healthspend/internal/operator/handler"
	operatorservice "healthspend/internal/operator/service"
	operatorstore "healthspend/internal/operator/store"
	"healthspend/internal/platform/config"
	"healthspend/internal/platform/httpserver"
	"healthspend/internal/platform/logger"
	"healthspend/internal/platform/metrics"
	"healthspend/internal/platform/postgres"
	platformredis "healthspend/internal/platform/redis"
	"healthspend/internal/stats"
	"healthspend/internal/transport"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Error("configuration invalid", "error", err.Error())
		return err
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		return err
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Error("schema setup failed", "error", err.Error())
		return err
	}

	health := map[string]transport.HealthChecker{
		"postgres": db.PingContext,
	}

	var cache stats.Cache = stats.NewMemoryCache(cfg.CacheTTL)
	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		cache = stats.NewRedisCache(rdb.Client, cfg.CacheTTL)
		health["redis"] = rdb.Health
		log.Info("statistics cache backed by redis")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	operatorStore := operatorstore.NewPostgres(db)
	operatorSvc, err := operatorservice.New(operatorStore, log, cfg.DefaultPageSize, cfg.MaxPageSize)
	if err != nil {
		return err
	}

	expenseStore := expensestore.NewPostgres(db)
	expenseSvc, err := expenseservice.New(expenseStore, log, cfg.DefaultPageSize, cfg.MaxPageSize)
	if err != nil {
		return err
	}

	statsSvc, err := stats.NewService(db, cache, log)
	if err != nil {
		return err
	}

	router := transport.NewRouter(transport.Options{
		Logger:      log,
		Metrics:     m,
		Gatherer:    registry,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   cfg.RateLimitRPS,
		RateBurst:   cfg.RateLimitBurst,
		Health:      health,
	},
		operatorhandler.New(operatorSvc, log),
		expensehandler.New(expenseSvc, log),
		stats.NewHandler(statsSvc, log),
	)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server failed", "error", err.Error())
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err.Error())
		return err
	}
	log.Info("server stopped")
	return nil
}
