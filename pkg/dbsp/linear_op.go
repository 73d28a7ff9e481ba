package dbsp

import (
	"github.com/l7mp/dflow/pkg/zset"
)

// MapOp applies a pure function to every record, preserving multiplicity.
// Being linear, the snapshot operator is already its own incremental version.
type MapOp[A, B comparable] struct {
	BaseOp
	fn func(A) B
}

// NewMap creates a map operator from a pure record transformation.
func NewMap[A, B comparable](name string, fn func(A) B) *MapOp[A, B] {
	return &MapOp[A, B]{BaseOp: NewBaseOp(name), fn: fn}
}

func (op *MapOp[A, B]) OpType() OpType                    { return OpTypeLinear }
func (op *MapOp[A, B]) IsTimeInvariant() bool             { return true }
func (op *MapOp[A, B]) HasZeroPreservationProperty() bool { return true }

func (op *MapOp[A, B]) Process(input *zset.ZSet[A]) (*zset.ZSet[B], error) {
	result := zset.New[B]()
	for _, e := range input.Entries() {
		result.AddEntryMutate(op.fn(e.Record), e.Multiplicity)
	}
	return result, nil
}

// FlatMapOp applies a pure function producing zero or more records per input
// record. Each output record inherits the input's multiplicity.
type FlatMapOp[A, B comparable] struct {
	BaseOp
	fn func(A) []B
}

// NewFlatMap creates a flat-map operator.
func NewFlatMap[A, B comparable](name string, fn func(A) []B) *FlatMapOp[A, B] {
	return &FlatMapOp[A, B]{BaseOp: NewBaseOp(name), fn: fn}
}

func (op *FlatMapOp[A, B]) OpType() OpType                    { return OpTypeLinear }
func (op *FlatMapOp[A, B]) IsTimeInvariant() bool             { return true }
func (op *FlatMapOp[A, B]) HasZeroPreservationProperty() bool { return true }

func (op *FlatMapOp[A, B]) Process(input *zset.ZSet[A]) (*zset.ZSet[B], error) {
	result := zset.New[B]()
	for _, e := range input.Entries() {
		for _, out := range op.fn(e.Record) {
			result.AddEntryMutate(out, e.Multiplicity)
		}
	}
	return result, nil
}

// FilterOp passes through deltas for records satisfying a pure predicate and
// drops the rest.
type FilterOp[A comparable] struct {
	BaseOp
	pred func(A) bool
}

// NewFilter creates a filter operator.
func NewFilter[A comparable](name string, pred func(A) bool) *FilterOp[A] {
	return &FilterOp[A]{BaseOp: NewBaseOp(name), pred: pred}
}

func (op *FilterOp[A]) OpType() OpType                    { return OpTypeLinear }
func (op *FilterOp[A]) IsTimeInvariant() bool             { return true }
func (op *FilterOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *FilterOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	result := zset.New[A]()
	for _, e := range input.Entries() {
		if op.pred(e.Record) {
			result.AddEntryMutate(e.Record, e.Multiplicity)
		}
	}
	return result, nil
}

// ConcatOp merges two delta streams over the same record type by adding
// multiplicities. No deduplication happens beyond multiplicity accounting.
type ConcatOp[A comparable] struct {
	BaseOp
}

// NewConcat creates a concat operator.
func NewConcat[A comparable]() *ConcatOp[A] {
	return &ConcatOp[A]{BaseOp: NewBaseOp("concat")}
}

func (op *ConcatOp[A]) OpType() OpType                    { return OpTypeLinear }
func (op *ConcatOp[A]) IsTimeInvariant() bool             { return true }
func (op *ConcatOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *ConcatOp[A]) Process(left, right *zset.ZSet[A]) (*zset.ZSet[A], error) {
	return left.Add(right), nil
}

// NegOp flips the sign of each multiplicity.
type NegOp[A comparable] struct {
	BaseOp
}

// NewNeg creates a negation operator.
func NewNeg[A comparable]() *NegOp[A] {
	return &NegOp[A]{BaseOp: NewBaseOp("neg")}
}

func (op *NegOp[A]) OpType() OpType                    { return OpTypeLinear }
func (op *NegOp[A]) IsTimeInvariant() bool             { return true }
func (op *NegOp[A]) HasZeroPreservationProperty() bool { return true }

func (op *NegOp[A]) Process(input *zset.ZSet[A]) (*zset.ZSet[A], error) {
	return input.Negate(), nil
}
