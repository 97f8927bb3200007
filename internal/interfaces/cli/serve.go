package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres/repositories"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/redis"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/metrics"
	httpiface "github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/handlers"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/interfaces/http/middleware"
)

// NewServeCommand creates `lotproc serve`: the HTTP API in the foreground.
// It wires the same stack as cmd/apiserver but inherits the CLI's config
// resolution and console logging, which is convenient for local development.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lot processing HTTP API",
		Example: "  lotproc serve\n" +
			"  lotproc serve -c lotproc.yaml -v",
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg, logger := cliCtx.Config, cliCtx.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
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

	rateCfg := middleware.DefaultRateLimitConfig()
	router := httpiface.NewRouter(httpiface.RouterConfig{
		LotHandler:      handlers.NewLotHandler(svc, store),
		HealthHandler:   handlers.NewHealthHandler(Version, checkers...),
		Logger:          logger,
		MetricsGatherer: registry,
		Mode:            cfg.Server.Mode,
		RateLimit:       &rateCfg,
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
