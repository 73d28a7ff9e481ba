package dbsp

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/l7mp/dflow/pkg/zset"
)

// Executor runs incremental queries over a linear operator chain: one input
// delta in, one output delta out. Stateful operators along the chain retain
// their own history between calls.
type Executor[T comparable] struct {
	chain *Chain[T]
	log   logr.Logger
}

// NewExecutor creates an executor for a validated chain.
func NewExecutor[T comparable](chain *Chain[T], log logr.Logger) (*Executor[T], error) {
	if err := chain.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chain: %w", err)
	}
	return &Executor[T]{chain: chain, log: log}, nil
}

// Process pushes one input delta through the chain and returns the output
// delta.
func (e *Executor[T]) Process(delta *zset.ZSet[T]) (*zset.ZSet[T], error) {
	current := delta
	for i, op := range e.chain.Ops() {
		next, err := op.Process(current)
		if err != nil {
			return nil, fmt.Errorf("operator %s (step %d) failed: %w", op.Name(), i, err)
		}
		e.log.V(2).Info("chain step", "step", i, "op", op.Name(),
			"in", current.TotalSize(), "out", next.TotalSize())
		current = next
	}
	return current, nil
}

// Reset resets all stateful operators along the chain.
func (e *Executor[T]) Reset() {
	for _, op := range e.chain.Ops() {
		Reset(op)
	}
}

// RetainedEntries sums the history retained by the chain's stateful
// operators.
func (e *Executor[T]) RetainedEntries() int {
	total := 0
	for _, op := range e.chain.Ops() {
		total += RetainedEntries(op)
	}
	return total
}

// Plan returns a human-readable execution plan.
func (e *Executor[T]) Plan() string {
	plan := "Execution Plan:\n"
	for i, op := range e.chain.Ops() {
		plan += fmt.Sprintf("%d. %s (%s)\n", i+1, op.Name(), op.OpType())
	}
	return plan
}
