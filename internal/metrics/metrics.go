// Package metrics exposes Prometheus instrumentation for the incremental
// engine: batch and round throughput, retained history size, and the two
// operational signals the engine surfaces instead of handling (non-convergence
// and memory pressure).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dflow_batches_processed_total",
		Help: "Total number of input delta batches processed by the engine",
	})

	OutputRecords = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dflow_output_records_total",
		Help: "Total number of output delta records emitted",
	})

	IterationRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dflow_iteration_rounds_total",
		Help: "Total number of fixed-point iteration rounds executed",
	})

	ConvergenceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dflow_convergence_duration_seconds",
		Help:    "Wall-clock time spent reaching a fixed point per iteration run",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	})

	NonConvergence = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dflow_non_convergence_total",
		Help: "Number of iteration runs aborted at the round cap without converging",
	})

	RetainedEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dflow_retained_entries",
		Help: "Current number of (key, value) pairs retained by stateful operators",
	})

	MemoryPressure = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dflow_memory_pressure_total",
		Help: "Number of batches after which retained history exceeded the configured budget",
	})
)
