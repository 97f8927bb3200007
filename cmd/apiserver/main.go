// Command apiserver runs the HTTP API for lot processing: synchronous
// single-lot and batch endpoints, the persisted-result lookups and the
// manual-review queue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres/repositories"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/redis"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/metrics"
	httpiface "github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/handlers"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	pipelineMetrics, err := metrics.NewPrometheusPipelineMetrics(registry)
	if err != nil {
		return err
	}

	opts := lotprocessing.ServiceOptions{
		Workers: cfg.Worker.Concurrency,
		Metrics: pipelineMetrics,
	}
	var checkers []handlers.HealthChecker
	var store handlers.ResultStore

	if cfg.Pipeline.PersistEnabled {
		if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
			return err
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		repo := repositories.NewResultRepository(conn.Pool(), logger)
		opts.Repository = repo
		store = repo
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "postgres", Fn: conn.HealthCheck})
	}

	if cfg.Pipeline.CacheEnabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()

		opts.Cache = redis.NewResultCache(rdb, logger, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL)
		checkers = append(checkers, handlers.CheckerFunc{ComponentName: "redis", Fn: rdb.HealthCheck})
	}

	proc := lotprocessing.NewProcessor(cfg.Rules, nil, logger)
	svc := lotprocessing.NewService(proc, logger, opts)

	router := httpiface.NewRouter(httpiface.RouterConfig{
		LotHandler:      handlers.NewLotHandler(svc, store),
		HealthHandler:   handlers.NewHealthHandler(version, checkers...),
		Logger:          logger,
		MetricsGatherer: registry,
		Mode:            cfg.Server.Mode,
		RateLimit:       ptr(middleware.DefaultRateLimitConfig()),
	})
	server := httpiface.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}

func ptr[T any](v T) *T { return &v }
