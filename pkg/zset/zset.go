// Package zset implements Z-sets: multisets of records with signed integer
// multiplicities. Z-sets are the base data representation for incremental
// computation: an insertion is a record with positive multiplicity, a
// retraction one with negative multiplicity, and a collection is the running
// sum of all deltas ever applied to it.
//
// A record with net multiplicity zero is never stored. This invariant is
// maintained by every mutating operation, so enumerating a Z-set only ever
// yields records that are actually present (or pending retractions, with
// negative counts, when the Z-set is used as a delta).
package zset

import (
	"fmt"
	"strings"
)

// Entry is a record paired with its multiplicity in a Z-set.
type Entry[R comparable] struct {
	Record       R
	Multiplicity int
}

// Negate flips the sign of the entry's multiplicity.
func (e Entry[R]) Negate() Entry[R] {
	return Entry[R]{Record: e.Record, Multiplicity: -e.Multiplicity}
}

// ZSet maps distinct records to their net multiplicity.
type ZSet[R comparable] struct {
	counts map[R]int
}

// New creates an empty Z-set.
func New[R comparable]() *ZSet[R] {
	return &ZSet[R]{counts: make(map[R]int)}
}

// Singleton creates a Z-set containing a single record with multiplicity 1.
func Singleton[R comparable](record R) *ZSet[R] {
	z := New[R]()
	z.AddEntryMutate(record, 1)
	return z
}

// FromEntries creates a Z-set by merging the given entries.
func FromEntries[R comparable](entries ...Entry[R]) *ZSet[R] {
	z := New[R]()
	for _, e := range entries {
		z.AddEntryMutate(e.Record, e.Multiplicity)
	}
	return z
}

// AddEntryMutate merges a record with the given multiplicity into the Z-set in
// place. This is the core operation for building Z-sets: multiplicities for
// the same record sum, and records whose net multiplicity reaches zero are
// removed.
func (z *ZSet[R]) AddEntryMutate(record R, count int) {
	if count == 0 {
		return
	}
	z.counts[record] += count
	if z.counts[record] == 0 {
		delete(z.counts, record)
	}
}

// Add performs Z-set addition (union with multiplicity) and returns a new
// Z-set, leaving both operands untouched.
func (z *ZSet[R]) Add(other *ZSet[R]) *ZSet[R] {
	result := z.DeepCopy()
	result.AddMutate(other)
	return result
}

// AddMutate merges another Z-set into this one in place.
func (z *ZSet[R]) AddMutate(other *ZSet[R]) {
	if other == nil {
		return
	}
	for record, count := range other.counts {
		z.AddEntryMutate(record, count)
	}
}

// Subtract performs Z-set subtraction and returns a new Z-set.
func (z *ZSet[R]) Subtract(other *ZSet[R]) *ZSet[R] {
	result := z.DeepCopy()
	if other == nil {
		return result
	}
	for record, count := range other.counts {
		result.AddEntryMutate(record, -count)
	}
	return result
}

// Negate returns a new Z-set with all multiplicities sign-flipped.
func (z *ZSet[R]) Negate() *ZSet[R] {
	result := New[R]()
	for record, count := range z.counts {
		result.counts[record] = -count
	}
	return result
}

// Distinct converts the Z-set to set semantics: every record with positive
// multiplicity appears with multiplicity 1, negative counts are dropped.
func (z *ZSet[R]) Distinct() *ZSet[R] {
	result := New[R]()
	for record, count := range z.counts {
		if count > 0 {
			result.counts[record] = 1
		}
	}
	return result
}

// Unique converts the Z-set to set semantics preserving multiplicity sign
// (all multiplicities become +1 or -1).
func (z *ZSet[R]) Unique() *ZSet[R] {
	result := New[R]()
	for record, count := range z.counts {
		if count > 0 {
			result.counts[record] = 1
		} else {
			result.counts[record] = -1
		}
	}
	return result
}

// Entries returns all records with their multiplicities, including negative
// ones. Order is unspecified.
func (z *ZSet[R]) Entries() []Entry[R] {
	result := make([]Entry[R], 0, len(z.counts))
	for record, count := range z.counts {
		result = append(result, Entry[R]{Record: record, Multiplicity: count})
	}
	return result
}

// Multiplicity returns the net multiplicity of a record, zero if absent.
func (z *ZSet[R]) Multiplicity(record R) int {
	return z.counts[record]
}

// Contains reports whether a record is present with positive multiplicity.
func (z *ZSet[R]) Contains(record R) bool {
	return z.counts[record] > 0
}

// IsZero reports whether the Z-set is empty.
func (z *ZSet[R]) IsZero() bool {
	return len(z.counts) == 0
}

// Size returns the number of records counting only positive multiplicities.
func (z *ZSet[R]) Size() int {
	total := 0
	for _, count := range z.counts {
		if count > 0 {
			total += count
		}
	}
	return total
}

// TotalSize returns the total number of records, counting the absolute value
// of both positive and negative multiplicities.
func (z *ZSet[R]) TotalSize() int {
	total := 0
	for _, count := range z.counts {
		if count > 0 {
			total += count
		} else {
			total += -count
		}
	}
	return total
}

// UniqueCount returns the number of distinct records with positive
// multiplicity.
func (z *ZSet[R]) UniqueCount() int {
	count := 0
	for _, multiplicity := range z.counts {
		if multiplicity > 0 {
			count++
		}
	}
	return count
}

// Len returns the number of distinct records stored, regardless of sign.
func (z *ZSet[R]) Len() int {
	return len(z.counts)
}

// DeepCopy creates a copy of the Z-set. Records are comparable values and are
// copied by assignment.
func (z *ZSet[R]) DeepCopy() *ZSet[R] {
	result := &ZSet[R]{counts: make(map[R]int, len(z.counts))}
	for record, count := range z.counts {
		result.counts[record] = count
	}
	return result
}

// String returns a string representation of the Z-set for debugging.
func (z *ZSet[R]) String() string {
	if z.IsZero() {
		return "∅"
	}

	var b strings.Builder
	b.WriteString("{")
	first := true
	for record, count := range z.counts {
		if !first {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v×%d", record, count)
		first = false
	}
	b.WriteString("}")
	return b.String()
}
