package protocol

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SharerSet", func() {
	It("should add and remove nodes", func() {
		s := SharerSetOf(1, 3)

		Expect(s.Has(1)).To(BeTrue())
		Expect(s.Has(2)).To(BeFalse())
		Expect(s.Count()).To(Equal(2))
		Expect(s.Nodes()).To(Equal([]NodeID{1, 3}))

		s = s.Without(1)
		Expect(s.IsOnly(3)).To(BeTrue())

		s = s.Without(3)
		Expect(s.IsEmpty()).To(BeTrue())
	})

	It("should ignore invalid nodes in queries", func() {
		Expect(SharerSetOf(0).Has(NoNode)).To(BeFalse())
		Expect(func() { SharerSetOf(NoNode) }).To(Panic())
	})
})

var _ = Describe("DirEntry", func() {
	It("should remember past sharers", func() {
		e := NewDirEntry()
		e.SetSharers(SharerSetOf(1, 2))
		e.SetSharers(SharerSetOf(4))
		e.SetOwner(5)

		Expect(e.Sharers).To(Equal(SharerSetOf(4)))
		Expect(e.PastSharers).To(Equal(SharerSetOf(1, 2, 4, 5)))
	})

	It("should clone independently", func() {
		e := NewDirEntry()
		c := e.Clone()
		c.State = DirModified

		Expect(e.State).To(Equal(DirInvalid))
	})
})

var _ = Describe("Histogram", func() {
	It("should bucket samples by powers of two", func() {
		h := &Histogram{}
		h.Add(0)
		h.Add(1)
		h.Add(5)
		h.Add(7)

		Expect(h.Buckets).To(Equal([]uint64{1, 1, 0, 2}))
		Expect(h.Count).To(Equal(uint64(4)))
		Expect(h.Max).To(Equal(uint64(7)))
		Expect(h.Mean()).To(BeNumerically("~", 3.25))
	})
})
