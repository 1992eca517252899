package memmap

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/protoengine/protocol"
)

var _ = Describe("Interleaved", func() {
	It("should interleave blocks over the nodes", func() {
		m := NewInterleaved(4, 4096)

		Expect(m.NodeForAddress(0x0)).To(Equal(protocol.NodeID(0)))
		Expect(m.NodeForAddress(0xfff)).To(Equal(protocol.NodeID(0)))
		Expect(m.NodeForAddress(0x1000)).To(Equal(protocol.NodeID(1)))
		Expect(m.NodeForAddress(0x3040)).To(Equal(protocol.NodeID(3)))
		Expect(m.NodeForAddress(0x4000)).To(Equal(protocol.NodeID(0)))
	})

	It("should refuse sizes that split a line", func() {
		Expect(func() { NewInterleaved(2, 96) }).To(Panic())
		Expect(func() { NewInterleaved(0, 64) }).To(Panic())
	})

	It("should align line addresses", func() {
		Expect(LineAddress(0x107f)).To(Equal(protocol.Address(0x1040)))
	})
})

var _ = Describe("Banked", func() {
	It("should find the bank", func() {
		m := &Banked{Nodes: 2, BankSize: 0x1000}

		Expect(m.NodeForAddress(0xfff)).To(Equal(protocol.NodeID(0)))
		Expect(m.NodeForAddress(0x1000)).To(Equal(protocol.NodeID(1)))
		Expect(func() { m.NodeForAddress(0x2000) }).To(Panic())
	})
})
