package dbsp

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dflow/pkg/zset"
)

type measurement struct {
	Node  int
	Value int
}

func newMinGroup() *IncrementalGroupOp[measurement, int, int, int, measurement] {
	return NewIncrementalGroup(
		func(m measurement) int { return m.Node },
		func(m measurement) int { return m.Value },
		Min[int, int](),
		func(node, value int) measurement { return measurement{Node: node, Value: value} },
	)
}

var _ = Describe("Group operator", func() {
	Context("Snapshot group", func() {
		It("should reduce each key over its full value-group", func() {
			op := NewGroup(
				func(m measurement) int { return m.Node },
				func(m measurement) int { return m.Value },
				Min[int, int](),
				func(node, value int) measurement { return measurement{node, value} },
			)
			in := zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 5}, Multiplicity: 1},
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: 1},
				zset.Entry[measurement]{Record: measurement{2, 7}, Multiplicity: 2},
			)

			out, err := op.Process(in)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(1))
			Expect(out.Multiplicity(measurement{2, 7})).To(Equal(1))
			Expect(out.UniqueCount()).To(Equal(2))
		})

		It("should squash ties to a single record with multiplicity one", func() {
			op := NewGroup(
				func(m measurement) int { return m.Node },
				func(m measurement) int { return m.Value },
				Min[int, int](),
				func(node, value int) measurement { return measurement{node, value} },
			)
			in := zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: 4},
			)

			out, err := op.Process(in)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(1))
		})
	})

	Context("Incremental group minimum", func() {
		var op *IncrementalGroupOp[measurement, int, int, int, measurement]

		BeforeEach(func() {
			op = newMinGroup()
		})

		It("should track the minimum through insert and retract", func() {
			// (n,5,+1): minimum becomes 5
			out, err := op.Process(zset.Singleton(measurement{1, 5}))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Multiplicity(measurement{1, 5})).To(Equal(1))

			// (n,3,+1): minimum moves to 3, retracting 5
			out, err = op.Process(zset.Singleton(measurement{1, 3}))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Multiplicity(measurement{1, 5})).To(Equal(-1))
			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(1))

			// (n,3,-1): the 3 goes away, minimum falls back to 5
			out, err = op.Process(zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: -1},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(-1))
			Expect(out.Multiplicity(measurement{1, 5})).To(Equal(1))

			// Net effect over the whole sequence: exactly (n,5) once.
			acc := zset.New[measurement]()
			op.Reset()
			for _, delta := range []*zset.ZSet[measurement]{
				zset.Singleton(measurement{1, 5}),
				zset.Singleton(measurement{1, 3}),
				zset.FromEntries(zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: -1}),
			} {
				out, err := op.Process(delta)
				Expect(err).NotTo(HaveOccurred())
				acc.AddMutate(out)
			}
			Expect(acc.Multiplicity(measurement{1, 5})).To(Equal(1))
			Expect(acc.UniqueCount()).To(Equal(1))
			Expect(acc.Len()).To(Equal(1))
		})

		It("should recompute only keys whose group changed", func() {
			_, err := op.Process(zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 5}, Multiplicity: 1},
				zset.Entry[measurement]{Record: measurement{2, 9}, Multiplicity: 1},
			))
			Expect(err).NotTo(HaveOccurred())

			// Touch only key 1; key 2 must stay silent.
			out, err := op.Process(zset.Singleton(measurement{1, 2}))
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 5})).To(Equal(-1))
			Expect(out.Multiplicity(measurement{1, 2})).To(Equal(1))
			Expect(out.Multiplicity(measurement{2, 9})).To(Equal(0))
		})

		It("should emit nothing when the batch does not change the result", func() {
			_, err := op.Process(zset.Singleton(measurement{1, 3}))
			Expect(err).NotTo(HaveOccurred())

			// A larger value does not move the minimum: -old +new cancel.
			out, err := op.Process(zset.Singleton(measurement{1, 8}))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.IsZero()).To(BeTrue())
		})

		It("should retract the result when the group empties", func() {
			_, err := op.Process(zset.Singleton(measurement{1, 3}))
			Expect(err).NotTo(HaveOccurred())

			out, err := op.Process(zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: -1},
			))
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(-1))
			Expect(op.RetainedEntries()).To(Equal(0))
		})

		It("should fold a whole batch into the group before reducing", func() {
			// Insert and retract of the would-be minimum inside one
			// batch must not leak an intermediate result.
			out, err := op.Process(zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 5}, Multiplicity: 1},
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: 1},
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: -1},
			))
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 5})).To(Equal(1))
			Expect(out.UniqueCount()).To(Equal(1))
		})
	})

	Context("Count reducer", func() {
		It("should count group members weighted by multiplicity", func() {
			op := NewIncrementalGroup(
				func(m measurement) int { return m.Node },
				func(m measurement) int { return m.Value },
				Count[int, int](),
				func(node, n int) measurement { return measurement{Node: node, Value: n} },
			)

			out, err := op.Process(zset.FromEntries(
				zset.Entry[measurement]{Record: measurement{1, 5}, Multiplicity: 2},
				zset.Entry[measurement]{Record: measurement{1, 3}, Multiplicity: 1},
			))
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(measurement{1, 3})).To(Equal(1))
		})
	})
})
