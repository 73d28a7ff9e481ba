package dbsp

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dflow/pkg/zset"
)

type person struct {
	ID   int
	Name string
}

type project struct {
	ID    int
	Title string
}

type assignment struct {
	ID    int
	Name  string
	Title string
}

func joinPair(k int, p person, pr project) assignment {
	return assignment{ID: k, Name: p.Name, Title: pr.Title}
}

var _ = Describe("Join operator", func() {
	var snapshot *JoinOp[int, person, project, assignment]

	BeforeEach(func() {
		snapshot = NewJoin(
			func(p person) int { return p.ID },
			func(p project) int { return p.ID },
			joinPair,
		)
	})

	Context("Snapshot join", func() {
		It("should join matching keys", func() {
			left := zset.Singleton(person{1, "Alice"})
			right := zset.Singleton(project{1, "ProjectX"})

			out, err := snapshot.Process(left, right)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{1, "Alice", "ProjectX"})).To(Equal(1))
			Expect(out.UniqueCount()).To(Equal(1))
		})

		It("should not join non-matching keys", func() {
			left := zset.Singleton(person{1, "Alice"})
			right := zset.Singleton(project{2, "ProjectY"})

			out, err := snapshot.Process(left, right)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.IsZero()).To(BeTrue())
		})

		It("should multiply multiplicities", func() {
			left := zset.FromEntries(zset.Entry[person]{Record: person{1, "Alice"}, Multiplicity: 2})
			right := zset.FromEntries(zset.Entry[project]{Record: project{1, "ProjectX"}, Multiplicity: 3})

			out, err := snapshot.Process(left, right)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{1, "Alice", "ProjectX"})).To(Equal(6))
		})

		It("should propagate retractions as negative products", func() {
			left := zset.FromEntries(zset.Entry[person]{Record: person{1, "Alice"}, Multiplicity: -1})
			right := zset.FromEntries(zset.Entry[project]{Record: project{1, "ProjectX"}, Multiplicity: 2})

			out, err := snapshot.Process(left, right)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{1, "Alice", "ProjectX"})).To(Equal(-2))
		})
	})

	Context("Incremental join", func() {
		var inc *IncrementalJoinOp[int, person, project, assignment]

		BeforeEach(func() {
			inc = NewIncrementalJoin(
				func(p person) int { return p.ID },
				func(p project) int { return p.ID },
				joinPair,
			)
		})

		It("should emit only pairs involving changed keys", func() {
			_, err := inc.Process(
				zset.Singleton(person{1, "Alice"}),
				zset.Singleton(project{1, "ProjectX"}),
			)
			Expect(err).NotTo(HaveOccurred())

			// A delta on key 2 must not re-emit the key-1 pair.
			out, err := inc.Process(
				zset.Singleton(person{2, "Bob"}),
				zset.Singleton(project{2, "ProjectY"}),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{2, "Bob", "ProjectY"})).To(Equal(1))
			Expect(out.UniqueCount()).To(Equal(1))
		})

		It("should join a delta against the accumulated other side", func() {
			_, err := inc.Process(zset.Singleton(person{1, "Alice"}), zset.New[project]())
			Expect(err).NotTo(HaveOccurred())

			out, err := inc.Process(zset.New[person](), zset.Singleton(project{1, "ProjectX"}))
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{1, "Alice", "ProjectX"})).To(Equal(1))
		})

		It("should retract pairs when one side is deleted", func() {
			_, err := inc.Process(
				zset.Singleton(person{1, "Alice"}),
				zset.Singleton(project{1, "ProjectX"}),
			)
			Expect(err).NotTo(HaveOccurred())

			out, err := inc.Process(
				zset.FromEntries(zset.Entry[person]{Record: person{1, "Alice"}, Multiplicity: -1}),
				zset.New[project](),
			)
			Expect(err).NotTo(HaveOccurred())

			Expect(out.Multiplicity(assignment{1, "Alice", "ProjectX"})).To(Equal(-1))
		})

		It("should accumulate to the snapshot join over any delta sequence", func() {
			rng := rand.New(rand.NewSource(3))
			cumLeft := zset.New[person]()
			cumRight := zset.New[project]()
			cumOut := zset.New[assignment]()

			for step := 0; step < 50; step++ {
				dl := zset.New[person]()
				dr := zset.New[project]()
				if rng.Intn(2) == 0 {
					dl.AddEntryMutate(person{rng.Intn(5), "p"}, rng.Intn(3)-1)
				}
				if rng.Intn(2) == 0 {
					dr.AddEntryMutate(project{rng.Intn(5), "q"}, rng.Intn(3)-1)
				}

				out, err := inc.Process(dl, dr)
				Expect(err).NotTo(HaveOccurred())

				cumLeft.AddMutate(dl)
				cumRight.AddMutate(dr)
				cumOut.AddMutate(out)

				want, err := snapshot.Process(cumLeft, cumRight)
				Expect(err).NotTo(HaveOccurred())
				Expect(cumOut.Subtract(want).IsZero()).To(BeTrue(), "diverged at step %d", step)
			}
		})

		It("should honor the join correctness property for all key pairs", func() {
			left := zset.FromEntries(
				zset.Entry[person]{Record: person{1, "Alice"}, Multiplicity: 2},
				zset.Entry[person]{Record: person{1, "Anna"}, Multiplicity: 1},
				zset.Entry[person]{Record: person{2, "Bob"}, Multiplicity: 3},
			)
			right := zset.FromEntries(
				zset.Entry[project]{Record: project{1, "X"}, Multiplicity: 4},
				zset.Entry[project]{Record: project{2, "Y"}, Multiplicity: -1},
			)

			out, err := inc.Process(left, right)
			Expect(err).NotTo(HaveOccurred())

			for _, le := range left.Entries() {
				for _, re := range right.Entries() {
					if le.Record.ID != re.Record.ID {
						continue
					}
					want := le.Multiplicity * re.Multiplicity
					Expect(out.Multiplicity(joinPair(le.Record.ID, le.Record, re.Record))).To(Equal(want))
				}
			}
		})

		It("should drop its history on Reset", func() {
			_, err := inc.Process(
				zset.Singleton(person{1, "Alice"}),
				zset.Singleton(project{1, "ProjectX"}),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(inc.RetainedEntries()).To(Equal(2))

			inc.Reset()
			Expect(inc.RetainedEntries()).To(Equal(0))

			out, err := inc.Process(zset.New[person](), zset.Singleton(project{1, "ProjectZ"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(out.IsZero()).To(BeTrue())
		})
	})

	Context("Index variants", func() {
		It("should produce identical results over hash and dense indexes", func() {
			hashed := NewIncrementalJoin(
				func(p person) int { return p.ID },
				func(p project) int { return p.ID },
				joinPair,
			)
			dense := NewIncrementalJoinIndexed(
				func(p person) int { return p.ID },
				func(p project) int { return p.ID },
				joinPair,
				zset.Dense[person](8), zset.Dense[project](8),
			)

			deltas := []struct {
				l *zset.ZSet[person]
				r *zset.ZSet[project]
			}{
				{zset.Singleton(person{1, "Alice"}), zset.Singleton(project{1, "X"})},
				{zset.New[person](), zset.Singleton(project{2, "Y"})},
				{zset.Singleton(person{2, "Bob"}), zset.New[project]()},
				{zset.FromEntries(zset.Entry[person]{Record: person{1, "Alice"}, Multiplicity: -1}), zset.New[project]()},
			}

			for _, d := range deltas {
				a, err := hashed.Process(d.l, d.r)
				Expect(err).NotTo(HaveOccurred())
				b, err := dense.Process(d.l, d.r)
				Expect(err).NotTo(HaveOccurred())
				Expect(a.Subtract(b).IsZero()).To(BeTrue())
			}
		})
	})
})
