package microcode

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Assembler", func() {
	var a *Assembler

	BeforeEach(func() {
		a = NewAssembler(6476, "test")
	})

	It("should resolve labels and fall through", func() {
		a.EmitAt(0, Word{Op: 9}, Halt, "halt")
		a.Org(16).
			Emit(Word{Op: 1, Args: 0x10}, Fallthrough, "first").
			Emit(Word{Op: 2}, "end", "second").
			Label("end").
			Emit(Word{Op: 3}, Halt, "last")

		p, err := a.Assemble()

		Expect(err).NotTo(HaveOccurred())
		Expect(p.ID).To(Equal("6476 test"))
		Expect(p.At(16).Next).To(Equal(17))
		Expect(p.At(17).Next).To(Equal(18))
		Expect(p.At(18).Next).To(Equal(0))
		Expect(p.Len).To(Equal(4))
	})

	It("should place table entries relative to the base", func() {
		a.Org(100).
			Emit(Word{Op: 2}, "replies", "receive").
			Table("replies", 4).
			Entry("replies", 3, Word{Op: 5}, Halt, "fourth").
			Label("after").
			Emit(Word{Op: 6}, Halt, "after table")

		p := a.MustAssemble()

		Expect(p.At(100).Next).To(Equal(101))
		Expect(p.At(104).Memo).To(Equal("fourth"))
		Expect(p.At(105).Memo).To(Equal("after table"))
		Expect(p.Code[102].Loaded).To(BeFalse())
	})

	It("should report unknown labels", func() {
		a.Org(1).Emit(Word{}, "nowhere", "")

		_, err := a.Assemble()

		Expect(err).To(MatchError(ErrUnresolvedReference))
	})

	It("should report overlapping instructions", func() {
		a.Org(1).Emit(Word{}, Halt, "a")
		a.Org(1).Emit(Word{}, Halt, "b")

		_, err := a.Assemble()

		Expect(err).To(MatchError(ErrIllegalInstruction))
	})

	It("should report entries outside the table", func() {
		a.Org(1).Table("t", 2).Entry("t", 2, Word{}, Halt, "")

		_, err := a.Assemble()

		Expect(err).To(MatchError(ErrIllegalInstruction))
	})

	It("should report duplicate labels", func() {
		a.Label("x").Label("x")

		Expect(func() { a.MustAssemble() }).To(Panic())
	})
})
