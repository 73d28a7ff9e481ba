package dbsp

import (
	"github.com/l7mp/dflow/pkg/zset"
)

// OpType classifies operators for incrementalization.
type OpType int

const (
	OpTypeLinear     OpType = iota // Op^Δ = Op
	OpTypeBilinear                 // Op^Δ needs the three-term expansion (joins)
	OpTypeNonLinear                // Op^Δ needs retained state (group, distinct)
	OpTypeStructural               // stream plumbing (integrate, differentiate, delay)
)

func (t OpType) String() string {
	switch t {
	case OpTypeLinear:
		return "Linear"
	case OpTypeBilinear:
		return "Bilinear"
	case OpTypeNonLinear:
		return "NonLinear"
	case OpTypeStructural:
		return "Structural"
	default:
		return "Unknown"
	}
}

// Operator carries the metadata shared by all operator shapes.
type Operator interface {
	// Name returns the operator name for plans and logs.
	Name() string
	// OpType classifies the operator for incrementalization.
	OpType() OpType
	// IsTimeInvariant reports whether the operator commutes with delay.
	IsTimeInvariant() bool
	// HasZeroPreservationProperty reports whether a zero input always
	// yields a zero output. Every operator used in incremental pipelines
	// must preserve zero, otherwise empty deltas would produce spurious
	// output.
	HasZeroPreservationProperty() bool
}

// UnaryOp transforms one delta Z-set into another. A and B are the input and
// output record types.
type UnaryOp[A, B comparable] interface {
	Operator
	Process(input *zset.ZSet[A]) (*zset.ZSet[B], error)
}

// BinaryOp combines two delta Z-sets into one.
type BinaryOp[A, B, O comparable] interface {
	Operator
	Process(left *zset.ZSet[A], right *zset.ZSet[B]) (*zset.ZSet[O], error)
}

// Resettable is implemented by stateful operators that can drop their
// retained history and restart from an empty collection.
type Resettable interface {
	Reset()
}

// MemoryAccounted is implemented by stateful operators that can report the
// number of entries they retain for incremental recomputation. History
// retention is unbounded by default; accounting makes the growth observable.
type MemoryAccounted interface {
	RetainedEntries() int
}

// RetainedEntries returns the operator's retained entry count, zero for
// stateless operators.
func RetainedEntries(op Operator) int {
	if m, ok := op.(MemoryAccounted); ok {
		return m.RetainedEntries()
	}
	return 0
}

// BaseOp provides the Name implementation shared by all operators.
type BaseOp struct {
	name string
}

func NewBaseOp(name string) BaseOp { return BaseOp{name: name} }

func (o *BaseOp) Name() string { return o.name }

// Reset resets an operator if it is stateful, otherwise does nothing.
func Reset(op Operator) {
	if r, ok := op.(Resettable); ok {
		r.Reset()
	}
}
