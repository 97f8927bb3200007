// Package metrics provides the Prometheus instrumentation for the lot
// processing pipeline.  Components depend on the PipelineMetrics interface so
// tests and disabled deployments can use the no-op implementation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// PipelineMetrics records per-lot and per-batch pipeline behavior.
type PipelineMetrics interface {
	// RecordLot records one processed lot: the wall-clock processing time,
	// whether it ended in manual review, and whether processing failed.
	RecordLot(duration time.Duration, manualReview bool, err error)

	// RecordFlags increments the per-flag counters for one lot's flag set.
	RecordFlags(flags []lot.Flag)

	// RecordBatch records a completed batch with its size and duration.
	RecordBatch(size int, duration time.Duration)

	// RecordCacheAccess records a result-cache lookup.
	RecordCacheAccess(hit bool)
}

const metricsPrefix = "lotproc_"

var durationBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}

type prometheusPipelineMetrics struct {
	lotsTotal        *prometheus.CounterVec
	lotDuration      prometheus.Histogram
	flagsTotal       *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	batchItemsTotal  prometheus.Counter
	cacheAccessTotal *prometheus.CounterVec
}

// NewPrometheusPipelineMetrics creates a Prometheus-backed collector and
// registers its metrics with the supplied Registerer (the default registerer
// when nil).
func NewPrometheusPipelineMetrics(registerer prometheus.Registerer) (PipelineMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &prometheusPipelineMetrics{}

	m.lotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "lots_processed_total",
		Help: "Total number of lots processed.",
	}, []string{"status", "manual_review"})

	m.lotDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricsPrefix + "lot_processing_duration_seconds",
		Help:    "Histogram of per-lot processing time in seconds.",
		Buckets: durationBuckets,
	})

	m.flagsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "processing_flags_total",
		Help: "Total number of processing flags raised, by flag.",
	}, []string{"flag"})

	m.batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricsPrefix + "batch_duration_seconds",
		Help:    "Histogram of batch processing time in seconds.",
		Buckets: durationBuckets,
	})

	m.batchItemsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricsPrefix + "batch_lots_total",
		Help: "Total number of lots submitted through batches.",
	})

	m.cacheAccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: metricsPrefix + "result_cache_access_total",
		Help: "Total number of result-cache lookups.",
	}, []string{"result"})

	collectors := []prometheus.Collector{
		m.lotsTotal,
		m.lotDuration,
		m.flagsTotal,
		m.batchDuration,
		m.batchItemsTotal,
		m.cacheAccessTotal,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *prometheusPipelineMetrics) RecordLot(duration time.Duration, manualReview bool, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	review := "false"
	if manualReview {
		review = "true"
	}
	m.lotsTotal.WithLabelValues(status, review).Inc()
	m.lotDuration.Observe(duration.Seconds())
}

func (m *prometheusPipelineMetrics) RecordFlags(flags []lot.Flag) {
	for _, f := range flags {
		m.flagsTotal.WithLabelValues(string(f)).Inc()
	}
}

func (m *prometheusPipelineMetrics) RecordBatch(size int, duration time.Duration) {
	m.batchDuration.Observe(duration.Seconds())
	m.batchItemsTotal.Add(float64(size))
}

func (m *prometheusPipelineMetrics) RecordCacheAccess(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheAccessTotal.WithLabelValues(result).Inc()
}

type noopPipelineMetrics struct{}

func (noopPipelineMetrics) RecordLot(time.Duration, bool, error) {}
func (noopPipelineMetrics) RecordFlags([]lot.Flag)               {}
func (noopPipelineMetrics) RecordBatch(int, time.Duration)       {}
func (noopPipelineMetrics) RecordCacheAccess(bool)               {}

// NewNoopPipelineMetrics returns a collector that discards all observations.
func NewNoopPipelineMetrics() PipelineMetrics { return noopPipelineMetrics{} }
