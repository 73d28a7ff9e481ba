package dbsp

import (
	"github.com/l7mp/dflow/pkg/zset"
)

// JoinOp is a snapshot equi-join (non-incremental). Both inputs are indexed
// by key and every matching pair is merged into an output record whose
// multiplicity is the product of the input multiplicities.
type JoinOp[K, A, B, O comparable] struct {
	BaseOp
	leftKey  func(A) K
	rightKey func(B) K
	merge    func(K, A, B) O
	leftIdx  zset.Provider[K, A]
	rightIdx zset.Provider[K, B]
}

// NewJoin creates a snapshot join over hash indexes.
func NewJoin[K, A, B, O comparable](leftKey func(A) K, rightKey func(B) K, merge func(K, A, B) O) *JoinOp[K, A, B, O] {
	return NewJoinIndexed(leftKey, rightKey, merge, zset.Hashed[K, A](), zset.Hashed[K, B]())
}

// NewJoinIndexed creates a snapshot join with explicit index providers, for
// callers that know the key space is small and dense.
func NewJoinIndexed[K, A, B, O comparable](leftKey func(A) K, rightKey func(B) K, merge func(K, A, B) O,
	leftIdx zset.Provider[K, A], rightIdx zset.Provider[K, B]) *JoinOp[K, A, B, O] {
	return &JoinOp[K, A, B, O]{
		BaseOp:   NewBaseOp("⋈"),
		leftKey:  leftKey,
		rightKey: rightKey,
		merge:    merge,
		leftIdx:  leftIdx,
		rightIdx: rightIdx,
	}
}

func (op *JoinOp[K, A, B, O]) OpType() OpType                    { return OpTypeBilinear }
func (op *JoinOp[K, A, B, O]) IsTimeInvariant() bool             { return true }
func (op *JoinOp[K, A, B, O]) HasZeroPreservationProperty() bool { return true }

func (op *JoinOp[K, A, B, O]) Process(left *zset.ZSet[A], right *zset.ZSet[B]) (*zset.ZSet[O], error) {
	rightIdx := op.rightIdx()
	for _, e := range right.Entries() {
		rightIdx.Insert(op.rightKey(e.Record), e.Record, e.Multiplicity)
	}

	result := zset.New[O]()
	for _, le := range left.Entries() {
		key := op.leftKey(le.Record)
		for _, re := range rightIdx.Lookup(key) {
			// BILINEAR: multiply multiplicities
			result.AddEntryMutate(op.merge(key, le.Record, re.Record), le.Multiplicity*re.Multiplicity)
		}
	}
	return result, nil
}

// IncrementalJoinOp is the incremental equi-join. It retains one key index
// per side holding the accumulated input history, and on each delta computes
//
//	Δout = ΔL ⋈ (R + ΔR) + L ⋈ ΔR
//
// which equals the three-term bilinear expansion ΔL⋈ΔR + ΔL⋈R + L⋈ΔR while
// probing the indexes only for keys that actually changed. Key groups that
// received no delta produce no output.
type IncrementalJoinOp[K, A, B, O comparable] struct {
	BaseOp
	leftKey  func(A) K
	rightKey func(B) K
	merge    func(K, A, B) O

	// accumulated input history, per side
	left  zset.KeyIndex[K, A]
	right zset.KeyIndex[K, B]

	mkLeft  zset.Provider[K, A]
	mkRight zset.Provider[K, B]
}

// NewIncrementalJoin creates an incremental join over hash indexes.
func NewIncrementalJoin[K, A, B, O comparable](leftKey func(A) K, rightKey func(B) K, merge func(K, A, B) O) *IncrementalJoinOp[K, A, B, O] {
	return NewIncrementalJoinIndexed(leftKey, rightKey, merge, zset.Hashed[K, A](), zset.Hashed[K, B]())
}

// NewIncrementalJoinIndexed creates an incremental join with explicit index
// providers selected per operator instance.
func NewIncrementalJoinIndexed[K, A, B, O comparable](leftKey func(A) K, rightKey func(B) K, merge func(K, A, B) O,
	leftIdx zset.Provider[K, A], rightIdx zset.Provider[K, B]) *IncrementalJoinOp[K, A, B, O] {
	return &IncrementalJoinOp[K, A, B, O]{
		BaseOp:   NewBaseOp("⋈^Δ"),
		leftKey:  leftKey,
		rightKey: rightKey,
		merge:    merge,
		left:     leftIdx(),
		right:    rightIdx(),
		mkLeft:   leftIdx,
		mkRight:  rightIdx,
	}
}

func (op *IncrementalJoinOp[K, A, B, O]) OpType() OpType                    { return OpTypeBilinear }
func (op *IncrementalJoinOp[K, A, B, O]) IsTimeInvariant() bool             { return true }
func (op *IncrementalJoinOp[K, A, B, O]) HasZeroPreservationProperty() bool { return true }

func (op *IncrementalJoinOp[K, A, B, O]) Process(deltaL *zset.ZSet[A], deltaR *zset.ZSet[B]) (*zset.ZSet[O], error) {
	result := zset.New[O]()

	// Term 1: L ⋈ ΔR against the left history before this step
	for _, re := range deltaR.Entries() {
		key := op.rightKey(re.Record)
		for _, le := range op.left.Lookup(key) {
			result.AddEntryMutate(op.merge(key, le.Record, re.Record), le.Multiplicity*re.Multiplicity)
		}
	}

	// Fold ΔR into the right history so the next term sees R + ΔR
	for _, re := range deltaR.Entries() {
		op.right.Insert(op.rightKey(re.Record), re.Record, re.Multiplicity)
	}

	// Term 2: ΔL ⋈ (R + ΔR)
	for _, le := range deltaL.Entries() {
		key := op.leftKey(le.Record)
		for _, re := range op.right.Lookup(key) {
			result.AddEntryMutate(op.merge(key, le.Record, re.Record), le.Multiplicity*re.Multiplicity)
		}
	}

	for _, le := range deltaL.Entries() {
		op.left.Insert(op.leftKey(le.Record), le.Record, le.Multiplicity)
	}

	return result, nil
}

// RetainedEntries returns the number of (key, value) pairs held in the
// operator's history indexes, for memory accounting.
func (op *IncrementalJoinOp[K, A, B, O]) RetainedEntries() int {
	return op.left.EntryCount() + op.right.EntryCount()
}

// Reset drops the accumulated input history.
func (op *IncrementalJoinOp[K, A, B, O]) Reset() {
	op.left = op.mkLeft()
	op.right = op.mkRight()
}
