package lotprocessing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/metrics"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// ResultCache is a read-through cache keyed by description text.  Implemented
// by infrastructure/cache/redis; a nil cache disables caching.
type ResultCache interface {
	Get(ctx context.Context, text string) (*lot.LotResult, bool, error)
	Set(ctx context.Context, text string, res lot.LotResult) error
}

// ResultRepository persists processed lots.  Implemented by
// infrastructure/database/postgres; a nil repository disables persistence.
type ResultRepository interface {
	Save(ctx context.Context, res lot.LotResult) error
}

// ServiceOptions carries the optional collaborators of the batch service.
type ServiceOptions struct {
	// Workers bounds batch concurrency.  Values below 1 fall back to 4.
	Workers int

	Cache      ResultCache
	Repository ResultRepository
	Metrics    metrics.PipelineMetrics
}

// Service runs the pipeline over single lots and batches, with optional
// caching, persistence and instrumentation around the pure Processor.
type Service struct {
	proc    *Processor
	logger  logging.Logger
	workers int
	cache   ResultCache
	repo    ResultRepository
	metrics metrics.PipelineMetrics
}

// NewService builds a Service around proc.
func NewService(proc *Processor, logger logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopPipelineMetrics()
	}
	return &Service{
		proc:    proc,
		logger:  logger.Named("lotservice"),
		workers: opts.Workers,
		cache:   opts.Cache,
		repo:    opts.Repository,
		metrics: opts.Metrics,
	}
}

// LotError pairs a failed lot with its error.
type LotError struct {
	Index int
	LotID string
	Err   error
}

// BatchResult is the outcome of one batch run.  Results holds the successful
// lots in input order; Failed lists the lots that could not be processed.
type BatchResult struct {
	JobID   string
	Results []lot.LotResult
	Failed  []LotError
}

// ProcessLot runs one lot through cache, pipeline, persistence and metrics.
// Cache and persistence failures degrade to warnings; only pipeline errors
// (empty input) and context cancellation propagate.
func (s *Service) ProcessLot(ctx context.Context, desc lot.LotDescription) (lot.LotResult, error) {
	if err := ctx.Err(); err != nil {
		return lot.LotResult{}, errors.Wrap(err, errors.CodeTimeout, "lot processing canceled")
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, desc.Text)
		if err != nil {
			s.logger.Warn("result cache lookup failed", logging.String("lot_id", desc.LotID), logging.Err(err))
		}
		s.metrics.RecordCacheAccess(ok)
		if ok && cached != nil {
			res := *cached
			res.Lot = desc // same text, possibly a different lot id
			return res, nil
		}
	}

	start := time.Now()
	res, err := s.proc.Process(desc)
	s.metrics.RecordLot(time.Since(start), res.ManualReviewRequired, err)
	if err != nil {
		return lot.LotResult{}, err
	}
	s.metrics.RecordFlags(res.Flags.List())

	if s.cache != nil {
		if err := s.cache.Set(ctx, desc.Text, res); err != nil {
			s.logger.Warn("result cache store failed", logging.String("lot_id", desc.LotID), logging.Err(err))
		}
	}
	if s.repo != nil {
		if err := s.repo.Save(ctx, res); err != nil {
			s.logger.Warn("result persistence failed", logging.String("lot_id", desc.LotID), logging.Err(err))
		}
	}
	return res, nil
}

// ProcessBatch runs descs through a bounded worker pool.  Per-lot failures
// are collected rather than aborting the batch; the returned error is non-nil
// only when the context is canceled before all lots are dispatched.
func (s *Service) ProcessBatch(ctx context.Context, descs []lot.LotDescription) (BatchResult, error) {
	batch := BatchResult{JobID: uuid.NewString()}
	if len(descs) == 0 {
		return batch, nil
	}

	start := time.Now()
	s.logger.Info("batch started",
		logging.String("job_id", batch.JobID),
		logging.Int("lots", len(descs)),
		logging.Int("workers", s.workers))

	type slot struct {
		res lot.LotResult
		err error
	}
	slots := make([]slot, len(descs))

	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup
	var dispatchErr error
	dispatched := 0

dispatch:
	for i := range descs {
		if err := ctx.Err(); err != nil {
			dispatchErr = errors.Wrap(err, errors.CodeTimeout, "batch canceled")
			break dispatch
		}
		select {
		case <-ctx.Done():
			dispatchErr = errors.Wrap(ctx.Err(), errors.CodeTimeout, "batch canceled")
			break dispatch
		case sem <- struct{}{}:
		}
		dispatched++
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := s.ProcessLot(ctx, descs[i])
			slots[i] = slot{res: res, err: err}
		}(i)
	}
	wg.Wait()

	for i := 0; i < dispatched; i++ {
		if slots[i].err != nil {
			batch.Failed = append(batch.Failed, LotError{Index: i, LotID: descs[i].LotID, Err: slots[i].err})
			continue
		}
		batch.Results = append(batch.Results, slots[i].res)
	}

	s.metrics.RecordBatch(len(descs), time.Since(start))
	s.logger.Info("batch finished",
		logging.String("job_id", batch.JobID),
		logging.Int("processed", len(batch.Results)),
		logging.Int("failed", len(batch.Failed)),
		logging.Duration("elapsed", time.Since(start)))

	return batch, dispatchErr
}
