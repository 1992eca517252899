package sim

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/xid"
)

var _ = Describe("IDGenerator", func() {
	AfterEach(func() {
		UseSequentialIDGenerator()
	})

	It("should count up in sequence", func() {
		UseSequentialIDGenerator()

		first, err := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)
		Expect(err).NotTo(HaveOccurred())

		second, err := strconv.ParseUint(GetIDGenerator().Generate(), 10, 64)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first + 1))
	})

	It("should generate xids in parallel mode", func() {
		UseParallelIDGenerator()

		id := GetIDGenerator().Generate()

		_, err := xid.FromString(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(GetIDGenerator().Generate()).NotTo(Equal(id))
	})

	It("should not repeat sequential IDs after a switch", func() {
		UseSequentialIDGenerator()
		before := GetIDGenerator().Generate()

		UseParallelIDGenerator()
		GetIDGenerator().Generate()
		UseSequentialIDGenerator()

		Expect(GetIDGenerator().Generate()).NotTo(Equal(before))
	})
})
