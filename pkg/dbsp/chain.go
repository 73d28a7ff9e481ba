package dbsp

import (
	"fmt"
	"strings"
)

// Chain is an ordered linear chain of unary operators over a single record
// type: [Input] -> op_1 -> ... -> op_n -> [Output]. Type-changing stages
// (joins, type-mapping projections) sit outside the chain and feed it.
type Chain[T comparable] struct {
	ops []UnaryOp[T, T]
}

// NewChain creates a chain from the given operators, applied in order.
func NewChain[T comparable](ops ...UnaryOp[T, T]) *Chain[T] {
	return &Chain[T]{ops: ops}
}

// Append adds an operator to the end of the chain.
func (c *Chain[T]) Append(op UnaryOp[T, T]) *Chain[T] {
	c.ops = append(c.ops, op)
	return c
}

// Ops returns the operators along the chain.
func (c *Chain[T]) Ops() []UnaryOp[T, T] {
	return c.ops
}

// Len returns the number of operators in the chain.
func (c *Chain[T]) Len() int { return len(c.ops) }

// Validate checks that the chain is safe for incremental execution: every
// operator must preserve zero, otherwise an empty input delta could produce
// spurious output.
func (c *Chain[T]) Validate() error {
	for i, op := range c.ops {
		if !op.HasZeroPreservationProperty() {
			return fmt.Errorf("operator %s at step %d does not preserve zero", op.Name(), i)
		}
	}
	return nil
}

// String returns the chain in a horizontal layout for debugging.
func (c *Chain[T]) String() string {
	parts := make([]string, 0, len(c.ops))
	for _, op := range c.ops {
		parts = append(parts, op.Name())
	}
	if len(parts) == 0 {
		return "id"
	}
	return strings.Join(parts, " → ")
}
