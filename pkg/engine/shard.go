package engine

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/l7mp/dflow/pkg/dbsp"
	"github.com/l7mp/dflow/pkg/zset"
)

// ShardedUnary partitions the key space across a fixed set of workers, each
// owning a private instance of the wrapped operator. Every record of an input
// delta is routed to exactly one shard by the partition function, so all
// deltas for a given key are observed together by the same operator instance
// and per-shard state needs no locking. Workers run concurrently per batch
// and synchronize at the batch boundary before outputs are merged.
type ShardedUnary[A, B comparable] struct {
	name       string
	shards     []dbsp.UnaryOp[A, B]
	part       func(A) uint64
	structural bool
}

// NewShardedUnary creates a sharded wrapper around workers instances of the
// operator built by mk. The partition function must route all records of the
// same key to the same value; records hashing equally always land on the same
// shard. The wrapped operator must be keyed: its output for a key may depend
// only on the deltas and retained state of that key, so that partitioning the
// key space partitions the computation.
func NewShardedUnary[A, B comparable](name string, workers int, mk func(shard int) dbsp.UnaryOp[A, B], part func(A) uint64) *ShardedUnary[A, B] {
	if workers < 1 {
		workers = 1
	}
	shards := make([]dbsp.UnaryOp[A, B], workers)
	for i := range shards {
		shards[i] = mk(i)
	}
	return &ShardedUnary[A, B]{
		name:       name,
		shards:     shards,
		part:       part,
		structural: shards[0].OpType() == dbsp.OpTypeStructural,
	}
}

func (op *ShardedUnary[A, B]) Name() string {
	return fmt.Sprintf("%s[%d shards]", op.name, len(op.shards))
}

func (op *ShardedUnary[A, B]) OpType() dbsp.OpType   { return op.shards[0].OpType() }
func (op *ShardedUnary[A, B]) IsTimeInvariant() bool { return op.shards[0].IsTimeInvariant() }
func (op *ShardedUnary[A, B]) HasZeroPreservationProperty() bool {
	return op.shards[0].HasZeroPreservationProperty()
}

// Process splits the delta across shards, runs the workers concurrently and
// merges their output deltas. The merge is a plain Z-set addition, so the
// result does not depend on worker scheduling.
func (op *ShardedUnary[A, B]) Process(input *zset.ZSet[A]) (*zset.ZSet[B], error) {
	n := len(op.shards)
	parts := make([]*zset.ZSet[A], n)
	for i := range parts {
		parts[i] = zset.New[A]()
	}
	for _, e := range input.Entries() {
		parts[int(op.part(e.Record)%uint64(n))].AddEntryMutate(e.Record, e.Multiplicity)
	}

	outputs := make([]*zset.ZSet[B], n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		if parts[i].IsZero() && !op.structural {
			// Keyed operators emit nothing for an empty share; skip
			// the dispatch. Structural operators (delay, integrate)
			// advance per-shard state every timestep, so their empty
			// shares must still be dispatched.
			continue
		}
		g.Go(func() error {
			out, err := op.shards[i].Process(parts[i])
			if err != nil {
				return fmt.Errorf("shard %d: %w", i, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := zset.New[B]()
	for _, out := range outputs {
		result.AddMutate(out)
	}
	return result, nil
}

// RetainedEntries sums the history retained across all shards.
func (op *ShardedUnary[A, B]) RetainedEntries() int {
	total := 0
	for _, shard := range op.shards {
		total += dbsp.RetainedEntries(shard)
	}
	return total
}

// Reset resets every shard's operator state.
func (op *ShardedUnary[A, B]) Reset() {
	for _, shard := range op.shards {
		dbsp.Reset(shard)
	}
}
