package dbsp

import (
	"github.com/l7mp/dflow/pkg/zset"
)

// DistinctOp converts a delta to set semantics.
type DistinctOp[A comparable] struct {
	BaseOp
}

func NewDistinct[A comparable]() *DistinctOp[A] {
	return &DistinctOp[A]{BaseOp: NewBaseOp("distinct")}
}

func (op *DistinctOp[A]) OpType() OpType                    { return OpTypeNonLinear }
func (op *DistinctOp[A]) IsTimeInvariant() bool             { return true }
func (op *DistinctOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *DistinctOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	return input.Distinct(), nil
}

// IntegratorOp implements the I operator: converts deltas to snapshots.
// I(s)[t] = Σ(i=0 to t) s[i]
type IntegratorOp[A comparable] struct {
	BaseOp
	state *zset.ZSet[A]
}

func NewIntegrator[A comparable]() *IntegratorOp[A] {
	return &IntegratorOp[A]{BaseOp: NewBaseOp("I"), state: zset.New[A]()}
}

func (op *IntegratorOp[A]) OpType() OpType                    { return OpTypeStructural }
func (op *IntegratorOp[A]) IsTimeInvariant() bool             { return true }
func (op *IntegratorOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *IntegratorOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	// state[t+1] = state[t] + delta[t]
	op.state.AddMutate(input)
	return op.state.DeepCopy(), nil
}

// RetainedEntries returns the size of the accumulated snapshot.
func (op *IntegratorOp[A]) RetainedEntries() int { return op.state.Len() }

func (op *IntegratorOp[A]) Reset() { op.state = zset.New[A]() }

// DifferentiatorOp implements the D operator: converts snapshots to deltas.
// D(s)[t] = s[t] - s[t-1]
type DifferentiatorOp[A comparable] struct {
	BaseOp
	prevState *zset.ZSet[A]
}

func NewDifferentiator[A comparable]() *DifferentiatorOp[A] {
	return &DifferentiatorOp[A]{BaseOp: NewBaseOp("D"), prevState: zset.New[A]()}
}

func (op *DifferentiatorOp[A]) OpType() OpType                    { return OpTypeStructural }
func (op *DifferentiatorOp[A]) IsTimeInvariant() bool             { return true }
func (op *DifferentiatorOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *DifferentiatorOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	delta := input.Subtract(op.prevState)
	op.prevState = input.DeepCopy()
	return delta, nil
}

// RetainedEntries returns the size of the retained previous snapshot.
func (op *DifferentiatorOp[A]) RetainedEntries() int { return op.prevState.Len() }

func (op *DifferentiatorOp[A]) Reset() { op.prevState = zset.New[A]() }

// DelayOp implements the z^(-1) operator: delays the stream by one timestep.
type DelayOp[A comparable] struct {
	BaseOp
	buffer *zset.ZSet[A]
}

func NewDelay[A comparable]() *DelayOp[A] {
	return &DelayOp[A]{BaseOp: NewBaseOp("z^(-1)"), buffer: zset.New[A]()}
}

func (op *DelayOp[A]) OpType() OpType                    { return OpTypeStructural }
func (op *DelayOp[A]) IsTimeInvariant() bool             { return false }
func (op *DelayOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *DelayOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	output := op.buffer
	op.buffer = input.DeepCopy()
	return output, nil
}

// RetainedEntries returns the size of the buffered delta.
func (op *DelayOp[A]) RetainedEntries() int { return op.buffer.Len() }

func (op *DelayOp[A]) Reset() { op.buffer = zset.New[A]() }
