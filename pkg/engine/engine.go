// Package engine implements the incremental update driver: it admits delta
// batches on the root collection, propagates only the changed records through
// a dataflow of incremental operators, and emits only the changed output
// records. The full output is never re-emitted; the cumulative output view is
// maintained as the running sum of emitted deltas.
package engine

import (
	"context"
	"errors"

	"github.com/go-logr/logr"

	"github.com/l7mp/dflow/internal/metrics"
	"github.com/l7mp/dflow/pkg/zset"
)

// ErrNoCompactor is returned by Compact when no compaction policy was
// configured.
var ErrNoCompactor = errors.New("no compactor configured")

// Dataflow is a composed incremental computation: external input deltas in,
// output deltas out. Implementations typically wire dbsp operators and an
// iterate.Scheduler together; their retained state persists across calls so
// each Process continues incrementally from the previous stable point.
type Dataflow[I, O comparable] interface {
	Process(ctx context.Context, delta *zset.ZSet[I]) (*zset.ZSet[O], error)
	Reset()
}

// Compactor is the extension point for history compaction. Retained operator
// history grows without bound by default; no compaction policy ships with the
// engine, only the hook for one.
type Compactor interface {
	Compact(ctx context.Context) error
}

type options struct {
	log       logr.Logger
	budget    int
	compactor Compactor
}

// Option configures an Engine.
type Option func(*options)

// WithLogger sets the engine logger.
func WithLogger(log logr.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithRetainedEntryBudget sets the retained-history size above which the
// engine signals memory pressure after a batch. Zero disables the check.
// Exceeding the budget is reported, not acted on.
func WithRetainedEntryBudget(n int) Option {
	return func(o *options) { o.budget = n }
}

// WithCompactor installs a history compaction policy reachable through
// Compact.
func WithCompactor(c Compactor) Option {
	return func(o *options) { o.compactor = c }
}

// Engine drives a dataflow batch by batch. Each applied batch advances the
// logical timestep by one and yields the batch of output changes since the
// previous stable point.
type Engine[I, O comparable] struct {
	flow      Dataflow[I, O]
	log       logr.Logger
	budget    int
	compactor Compactor

	input    *zset.ZSet[I] // accumulated input collection
	output   *zset.ZSet[O] // accumulated output view
	timestep int
}

// New creates an engine over the dataflow.
func New[I, O comparable](flow Dataflow[I, O], opts ...Option) *Engine[I, O] {
	o := options{log: logr.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[I, O]{
		flow:      flow,
		log:       o.log,
		budget:    o.budget,
		compactor: o.compactor,
		input:     zset.New[I](),
		output:    zset.New[O](),
	}
}

// ApplyBatch admits one delta batch, propagates it through the dataflow and
// returns the output delta batch. An empty batch on a stable collection
// yields an empty output batch. Batches are processed to completion once
// admitted; the context only guards the dataflow's own round boundaries.
func (e *Engine[I, O]) ApplyBatch(ctx context.Context, batch zset.Batch[I]) (zset.Batch[O], error) {
	delta := batch.ToZSet()
	if delta.IsZero() {
		// Nothing changed, nothing to propagate. Entries that cancel
		// out within the batch land here too.
		return zset.Batch[O]{}, nil
	}

	outDelta, err := e.flow.Process(ctx, delta)
	if err != nil {
		return nil, err
	}

	e.input.AddMutate(delta)
	e.output.AddMutate(outDelta)
	e.timestep++

	out := zset.Batch[O](outDelta.Entries())
	metrics.BatchesProcessed.Inc()
	metrics.OutputRecords.Add(float64(len(out)))
	e.accountMemory()
	e.log.V(1).Info("batch applied", "timestep", e.timestep,
		"in", delta.TotalSize(), "out", len(out))

	return out, nil
}

// accountMemory reports retained history growth. The engine has no
// compaction of its own: growth is surfaced, not handled.
func (e *Engine[I, O]) accountMemory() {
	m, ok := e.flow.(interface{ RetainedEntries() int })
	if !ok {
		return
	}
	retained := m.RetainedEntries() + e.input.Len() + e.output.Len()
	metrics.RetainedEntries.Set(float64(retained))
	if e.budget > 0 && retained > e.budget {
		metrics.MemoryPressure.Inc()
		e.log.Info("retained history exceeds budget", "retained", retained,
			"budget", e.budget, "timestep", e.timestep)
	}
}

// Output returns a copy of the current stable output view.
func (e *Engine[I, O]) Output() *zset.ZSet[O] {
	return e.output.DeepCopy()
}

// Input returns a copy of the accumulated input collection.
func (e *Engine[I, O]) Input() *zset.ZSet[I] {
	return e.input.DeepCopy()
}

// Timestep returns the number of batches applied so far.
func (e *Engine[I, O]) Timestep() int { return e.timestep }

// Compact invokes the configured compaction policy.
func (e *Engine[I, O]) Compact(ctx context.Context) error {
	if e.compactor == nil {
		return ErrNoCompactor
	}
	return e.compactor.Compact(ctx)
}

// Reset drops the dataflow's retained state and the accumulated collections.
func (e *Engine[I, O]) Reset() {
	e.flow.Reset()
	e.input = zset.New[I]()
	e.output = zset.New[O]()
	e.timestep = 0
}
