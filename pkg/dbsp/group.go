package dbsp

import (
	"cmp"
	"fmt"

	"github.com/l7mp/dflow/pkg/zset"
)

// Reducer maps a key and its full current value-group to a sequence of
// (result, multiplicity) pairs. The group is passed unordered; reducers must
// be insensitive to entry order.
type Reducer[K, V, R comparable] interface {
	Reduce(key K, group []zset.Entry[V]) []zset.Entry[R]
	fmt.Stringer
}

// minReducer emits the minimum value present in the group. Ties are squashed
// to a single output record with multiplicity one, regardless of how many
// times the minimum occurs.
type minReducer[K comparable, V cmp.Ordered] struct{}

// Min returns a reducer computing the group minimum.
func Min[K comparable, V cmp.Ordered]() Reducer[K, V, V] {
	return minReducer[K, V]{}
}

func (minReducer[K, V]) Reduce(_ K, group []zset.Entry[V]) []zset.Entry[V] {
	found := false
	var min V
	for _, e := range group {
		if e.Multiplicity <= 0 {
			continue
		}
		if !found || e.Record < min {
			min = e.Record
			found = true
		}
	}
	if !found {
		return nil
	}
	return []zset.Entry[V]{{Record: min, Multiplicity: 1}}
}

func (minReducer[K, V]) String() string { return "min" }

// countReducer emits the number of values in the group (counting
// multiplicities) as a single record with multiplicity one.
type countReducer[K comparable, V comparable] struct{}

// Count returns a reducer computing the group cardinality.
func Count[K comparable, V comparable]() Reducer[K, V, int] {
	return countReducer[K, V]{}
}

func (countReducer[K, V]) Reduce(_ K, group []zset.Entry[V]) []zset.Entry[int] {
	total := 0
	for _, e := range group {
		if e.Multiplicity > 0 {
			total += e.Multiplicity
		}
	}
	if total == 0 {
		return nil
	}
	return []zset.Entry[int]{{Record: total, Multiplicity: 1}}
}

func (countReducer[K, V]) String() string { return "count" }

// GroupOp is the snapshot keyed reduction (non-incremental): it groups the
// whole input by key, runs the reducer against each full value-group and
// emits one output record per reducer result.
type GroupOp[A, K, V, R, O comparable] struct {
	BaseOp
	key     func(A) K
	value   func(A) V
	reducer Reducer[K, V, R]
	out     func(K, R) O
	mkIdx   zset.Provider[K, V]
}

// NewGroup creates a snapshot group operator over hash indexes.
func NewGroup[A, K, V, R, O comparable](key func(A) K, value func(A) V, reducer Reducer[K, V, R], out func(K, R) O) *GroupOp[A, K, V, R, O] {
	return NewGroupIndexed(key, value, reducer, out, zset.Hashed[K, V]())
}

// NewGroupIndexed creates a snapshot group operator with an explicit index
// provider.
func NewGroupIndexed[A, K, V, R, O comparable](key func(A) K, value func(A) V, reducer Reducer[K, V, R], out func(K, R) O,
	idx zset.Provider[K, V]) *GroupOp[A, K, V, R, O] {
	return &GroupOp[A, K, V, R, O]{
		BaseOp:  NewBaseOp(fmt.Sprintf("group(%s)", reducer)),
		key:     key,
		value:   value,
		reducer: reducer,
		out:     out,
		mkIdx:   idx,
	}
}

func (op *GroupOp[A, K, V, R, O]) OpType() OpType                    { return OpTypeNonLinear }
func (op *GroupOp[A, K, V, R, O]) IsTimeInvariant() bool             { return true }
func (op *GroupOp[A, K, V, R, O]) HasZeroPreservationProperty() bool { return true }

func (op *GroupOp[A, K, V, R, O]) Process(input *zset.ZSet[A]) (*zset.ZSet[O], error) {
	groups := op.mkIdx()
	for _, e := range input.Entries() {
		groups.Insert(op.key(e.Record), op.value(e.Record), e.Multiplicity)
	}

	result := zset.New[O]()
	for _, key := range groups.Keys() {
		for _, r := range op.reducer.Reduce(key, groups.Lookup(key)) {
			result.AddEntryMutate(op.out(key, r.Record), r.Multiplicity)
		}
	}
	return result, nil
}

// IncrementalGroupOp is the incremental keyed reduction. It retains the full
// current value-group for every key; on a delta it reruns the reducer only
// for keys whose group changed, emitting the old result negated plus the new
// result. The reducer always sees the full current group, never the bare
// delta, because results like a group minimum are not decomposable from
// deltas alone.
//
// All deltas for a key within one input batch are folded into the group
// before the reducer runs, so the reducer never observes a partially applied
// batch.
type IncrementalGroupOp[A, K, V, R, O comparable] struct {
	BaseOp
	key     func(A) K
	value   func(A) V
	reducer Reducer[K, V, R]
	out     func(K, R) O

	groups zset.KeyIndex[K, V]
	mkIdx  zset.Provider[K, V]
}

// NewIncrementalGroup creates an incremental group operator over hash
// indexes.
func NewIncrementalGroup[A, K, V, R, O comparable](key func(A) K, value func(A) V, reducer Reducer[K, V, R], out func(K, R) O) *IncrementalGroupOp[A, K, V, R, O] {
	return NewIncrementalGroupIndexed(key, value, reducer, out, zset.Hashed[K, V]())
}

// NewIncrementalGroupIndexed creates an incremental group operator with an
// explicit index provider.
func NewIncrementalGroupIndexed[A, K, V, R, O comparable](key func(A) K, value func(A) V, reducer Reducer[K, V, R], out func(K, R) O,
	idx zset.Provider[K, V]) *IncrementalGroupOp[A, K, V, R, O] {
	return &IncrementalGroupOp[A, K, V, R, O]{
		BaseOp:  NewBaseOp(fmt.Sprintf("group^Δ(%s)", reducer)),
		key:     key,
		value:   value,
		reducer: reducer,
		out:     out,
		groups:  idx(),
		mkIdx:   idx,
	}
}

func (op *IncrementalGroupOp[A, K, V, R, O]) OpType() OpType                    { return OpTypeNonLinear }
func (op *IncrementalGroupOp[A, K, V, R, O]) IsTimeInvariant() bool             { return true }
func (op *IncrementalGroupOp[A, K, V, R, O]) HasZeroPreservationProperty() bool { return true }

func (op *IncrementalGroupOp[A, K, V, R, O]) Process(input *zset.ZSet[A]) (*zset.ZSet[O], error) {
	// Collect the per-key deltas so each touched key is processed once,
	// with its whole share of the batch.
	touched := make(map[K][]zset.Entry[V])
	for _, e := range input.Entries() {
		key := op.key(e.Record)
		touched[key] = append(touched[key], zset.Entry[V]{Record: op.value(e.Record), Multiplicity: e.Multiplicity})
	}

	result := zset.New[O]()
	for key, deltas := range touched {
		oldOut := op.reducer.Reduce(key, op.groups.Lookup(key))

		for _, d := range deltas {
			op.groups.Insert(key, d.Record, d.Multiplicity)
		}

		newOut := op.reducer.Reduce(key, op.groups.Lookup(key))

		// Retract the old result and assert the new one. Identical
		// results cancel, so an untouched reduction emits nothing.
		for _, r := range oldOut {
			result.AddEntryMutate(op.out(key, r.Record), -r.Multiplicity)
		}
		for _, r := range newOut {
			result.AddEntryMutate(op.out(key, r.Record), r.Multiplicity)
		}
	}

	return result, nil
}

// RetainedEntries returns the number of (key, value) pairs held in the
// operator's group state, for memory accounting.
func (op *IncrementalGroupOp[A, K, V, R, O]) RetainedEntries() int {
	return op.groups.EntryCount()
}

// Reset drops all retained groups.
func (op *IncrementalGroupOp[A, K, V, R, O]) Reset() {
	op.groups = op.mkIdx()
}
