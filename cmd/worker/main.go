// Command worker consumes lot-processing requests from Kafka, runs them
// through the pipeline and publishes the structured results, with optional
// persistence, caching and archiving behind the pipeline toggles.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/application/lotprocessing"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/config"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/postgres/repositories"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/database/redis"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/messaging/kafka"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/metrics"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "config file path")
	probeAddr := flag.String("probe-addr", ":8081", "health/metrics listen address")
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
	logger = logger.Named("worker")

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

	if cfg.Pipeline.PersistEnabled {
		if err := postgres.RunMigrations(cfg.Database, logger); err != nil {
			return err
		}
		conn, err := postgres.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer conn.Close()
		opts.Repository = repositories.NewResultRepository(conn.Pool(), logger)
	}

	if cfg.Pipeline.CacheEnabled {
		rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		opts.Cache = redis.NewResultCache(rdb, logger, cfg.Redis.KeyPrefix, cfg.Redis.DefaultTTL)
	}

	proc := lotprocessing.NewProcessor(cfg.Rules, nil, logger)
	svc := lotprocessing.NewService(proc, logger, opts)

	producer := kafka.NewProducer(cfg.Kafka, logger)
	defer func() { _ = producer.Close() }()
	consumer := kafka.NewConsumer(cfg.Kafka, logger)
	defer func() { _ = consumer.Close() }()

	// Probe endpoints for orchestration.
	probe := &http.Server{Addr: *probeAddr, Handler: probeMux(registry)}
	go func() {
		if err := probe.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("probe server failed", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = probe.Shutdown(shutdownCtx)
	}()

	logger.Info("worker started",
		logging.String("request_topic", cfg.Kafka.RequestTopic),
		logging.String("result_topic", cfg.Kafka.ResultTopic),
		logging.Int("workers", cfg.Worker.Concurrency))

	return consumer.Run(ctx, func(ctx context.Context, env kafka.EventEnvelope) error {
		if env.EventType != kafka.EventTypeProcessRequest {
			logger.Warn("ignoring unexpected event type",
				logging.String("event_type", env.EventType),
				logging.String("event_id", env.EventID))
			return nil
		}

		var req kafka.ProcessRequestPayload
		if err := env.DecodePayload(&req); err != nil {
			return err
		}

		res, err := svc.ProcessLot(ctx, lot.LotDescription{LotID: req.LotID, Text: req.Text})
		if err != nil {
			// A failed lot is still an answered request.
			return producer.PublishFailure(ctx, req.LotID, err)
		}
		return producer.PublishResult(ctx, res)
	})
}

func probeMux(registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}
