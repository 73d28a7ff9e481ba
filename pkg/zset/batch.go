package zset

// Batch is an ordered sequence of (record, multiplicity) deltas representing
// one logical time step. Applying a batch to a Z-set commutes with summing
// multiplicities per record, so the order of entries only matters for callers
// that want to replay the edit sequence.
type Batch[R comparable] []Entry[R]

// Insert appends an insertion of the record with multiplicity 1.
func (b Batch[R]) Insert(record R) Batch[R] {
	return append(b, Entry[R]{Record: record, Multiplicity: 1})
}

// Delete appends a retraction of the record with multiplicity -1.
func (b Batch[R]) Delete(record R) Batch[R] {
	return append(b, Entry[R]{Record: record, Multiplicity: -1})
}

// IsEmpty reports whether the batch carries no entries at all.
func (b Batch[R]) IsEmpty() bool {
	return len(b) == 0
}

// ToZSet collapses the batch into a Z-set, summing multiplicities per record.
// Entries that cancel out are absent from the result.
func (b Batch[R]) ToZSet() *ZSet[R] {
	return FromEntries(b...)
}

// ApplyTo merges the batch into a collection and returns the new logical
// version. The input collection is not modified.
func (b Batch[R]) ApplyTo(z *ZSet[R]) *ZSet[R] {
	result := z.DeepCopy()
	for _, e := range b {
		result.AddEntryMutate(e.Record, e.Multiplicity)
	}
	return result
}
