package zset

// KeyIndex maintains, per key, the net multiplicity of every value seen under
// that key. Join and group operators use it both as the index over their
// accumulated input history and as per-key group state. Values whose net
// multiplicity reaches zero are dropped, mirroring the Z-set invariant.
type KeyIndex[K comparable, V comparable] interface {
	// Insert merges a (value, multiplicity) pair under the key.
	Insert(key K, value V, count int)
	// Lookup returns the current (value, multiplicity) pairs for the key.
	// Order is unspecified; an absent key yields an empty slice.
	Lookup(key K) []Entry[V]
	// HasKey reports whether any value is currently stored under the key.
	HasKey(key K) bool
	// Keys returns all keys with at least one stored value.
	Keys() []K
	// Len returns the number of keys with at least one stored value.
	Len() int
	// EntryCount returns the total number of (key, value) pairs retained,
	// used for memory accounting.
	EntryCount() int
}

// IndexKind selects the KeyIndex implementation for an operator instance.
type IndexKind int

const (
	// HashIndexKind indexes arbitrary comparable keys through a hash map.
	HashIndexKind IndexKind = iota
	// DenseIndexKind indexes small dense non-negative integer keys through
	// a plain slice. Cheaper than hashing when the key space is known to
	// be compact.
	DenseIndexKind
)

func (k IndexKind) String() string {
	switch k {
	case HashIndexKind:
		return "hash"
	case DenseIndexKind:
		return "dense"
	default:
		return "unknown"
	}
}

// Provider constructs a fresh KeyIndex for an operator instance. Operators
// take a Provider rather than an index so that sharded execution can give
// each worker its own exclusively-owned copy.
type Provider[K comparable, V comparable] func() KeyIndex[K, V]

// Hashed returns a Provider for hash-based indexes.
func Hashed[K comparable, V comparable]() Provider[K, V] {
	return func() KeyIndex[K, V] { return NewHashIndex[K, V]() }
}

// Dense returns a Provider for dense-array indexes over int keys.
func Dense[V comparable](capacity int) Provider[int, V] {
	return func() KeyIndex[int, V] { return NewDenseIndex[V](capacity) }
}

// HashIndex is the KeyIndex variant for arbitrary comparable keys.
type HashIndex[K comparable, V comparable] struct {
	groups  map[K]map[V]int
	entries int
}

// NewHashIndex creates an empty hash-based key index.
func NewHashIndex[K comparable, V comparable]() *HashIndex[K, V] {
	return &HashIndex[K, V]{groups: make(map[K]map[V]int)}
}

func (ix *HashIndex[K, V]) Insert(key K, value V, count int) {
	if count == 0 {
		return
	}
	group := ix.groups[key]
	if group == nil {
		group = make(map[V]int)
		ix.groups[key] = group
	}
	if _, exists := group[value]; !exists {
		ix.entries++
	}
	group[value] += count
	if group[value] == 0 {
		delete(group, value)
		ix.entries--
		if len(group) == 0 {
			delete(ix.groups, key)
		}
	}
}

func (ix *HashIndex[K, V]) Lookup(key K) []Entry[V] {
	group := ix.groups[key]
	result := make([]Entry[V], 0, len(group))
	for value, count := range group {
		result = append(result, Entry[V]{Record: value, Multiplicity: count})
	}
	return result
}

func (ix *HashIndex[K, V]) HasKey(key K) bool {
	return len(ix.groups[key]) > 0
}

func (ix *HashIndex[K, V]) Keys() []K {
	keys := make([]K, 0, len(ix.groups))
	for key := range ix.groups {
		keys = append(keys, key)
	}
	return keys
}

func (ix *HashIndex[K, V]) Len() int { return len(ix.groups) }

func (ix *HashIndex[K, V]) EntryCount() int { return ix.entries }

// DenseIndex is the KeyIndex variant for small dense non-negative integer
// keys. The backing slice grows on demand.
type DenseIndex[V comparable] struct {
	groups  []map[V]int
	keys    int
	entries int
}

// NewDenseIndex creates a dense-array index with room for keys in
// [0, capacity). The index still grows when larger keys show up.
func NewDenseIndex[V comparable](capacity int) *DenseIndex[V] {
	if capacity < 0 {
		capacity = 0
	}
	return &DenseIndex[V]{groups: make([]map[V]int, capacity)}
}

func (ix *DenseIndex[V]) Insert(key int, value V, count int) {
	if count == 0 || key < 0 {
		return
	}
	for key >= len(ix.groups) {
		ix.groups = append(ix.groups, nil)
	}
	group := ix.groups[key]
	if group == nil {
		group = make(map[V]int)
		ix.groups[key] = group
	}
	if len(group) == 0 {
		ix.keys++
	}
	if _, exists := group[value]; !exists {
		ix.entries++
	}
	group[value] += count
	if group[value] == 0 {
		delete(group, value)
		ix.entries--
		if len(group) == 0 {
			ix.keys--
		}
	}
}

func (ix *DenseIndex[V]) Lookup(key int) []Entry[V] {
	if key < 0 || key >= len(ix.groups) {
		return nil
	}
	group := ix.groups[key]
	result := make([]Entry[V], 0, len(group))
	for value, count := range group {
		result = append(result, Entry[V]{Record: value, Multiplicity: count})
	}
	return result
}

func (ix *DenseIndex[V]) HasKey(key int) bool {
	return key >= 0 && key < len(ix.groups) && len(ix.groups[key]) > 0
}

func (ix *DenseIndex[V]) Keys() []int {
	keys := make([]int, 0, ix.keys)
	for key, group := range ix.groups {
		if len(group) > 0 {
			keys = append(keys, key)
		}
	}
	return keys
}

func (ix *DenseIndex[V]) Len() int { return ix.keys }

func (ix *DenseIndex[V]) EntryCount() int { return ix.entries }
