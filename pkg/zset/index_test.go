package zset_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dflow/pkg/zset"
)

var _ = Describe("KeyIndex", func() {
	var hash zset.KeyIndex[int, string]
	var dense zset.KeyIndex[int, string]

	BeforeEach(func() {
		hash = zset.NewHashIndex[int, string]()
		dense = zset.NewDenseIndex[string](4)
	})

	insertBoth := func(key int, value string, count int) {
		hash.Insert(key, value, count)
		dense.Insert(key, value, count)
	}

	It("should accumulate per-key multiplicities", func() {
		insertBoth(1, "x", 2)
		insertBoth(1, "x", 1)
		insertBoth(1, "y", 1)

		for _, ix := range []zset.KeyIndex[int, string]{hash, dense} {
			entries := ix.Lookup(1)
			Expect(entries).To(HaveLen(2))
			Expect(entries).To(ContainElement(zset.Entry[string]{Record: "x", Multiplicity: 3}))
			Expect(entries).To(ContainElement(zset.Entry[string]{Record: "y", Multiplicity: 1}))
		}
	})

	It("should drop values whose net multiplicity reaches zero", func() {
		insertBoth(2, "x", 1)
		insertBoth(2, "x", -1)

		for _, ix := range []zset.KeyIndex[int, string]{hash, dense} {
			Expect(ix.HasKey(2)).To(BeFalse())
			Expect(ix.Lookup(2)).To(BeEmpty())
			Expect(ix.Len()).To(Equal(0))
			Expect(ix.EntryCount()).To(Equal(0))
		}
	})

	It("should grow the dense index past its initial capacity", func() {
		dense.Insert(100, "far", 1)

		Expect(dense.HasKey(100)).To(BeTrue())
		Expect(dense.Lookup(100)).To(ContainElement(zset.Entry[string]{Record: "far", Multiplicity: 1}))
	})

	It("should behave identically under a random workload", func() {
		rng := rand.New(rand.NewSource(7))
		values := []string{"a", "b", "c"}

		for i := 0; i < 2000; i++ {
			key := rng.Intn(16)
			value := values[rng.Intn(len(values))]
			count := rng.Intn(5) - 2
			insertBoth(key, value, count)
		}

		Expect(dense.Len()).To(Equal(hash.Len()))
		Expect(dense.EntryCount()).To(Equal(hash.EntryCount()))
		for _, key := range hash.Keys() {
			Expect(dense.Lookup(key)).To(ConsistOf(hash.Lookup(key)))
		}
	})
})
