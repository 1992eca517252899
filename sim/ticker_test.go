package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TickingComponent", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *SerialEngine
		ticker   *MockTicker
		comp     *TickingComponent
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewSerialEngine()
		ticker = NewMockTicker(mockCtrl)
		comp = NewTickingComponent("Comp", engine, ticker)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep ticking while making progress", func() {
		gomock.InOrder(
			ticker.EXPECT().Tick().Return(true),
			ticker.EXPECT().Tick().Return(true),
			ticker.EXPECT().Tick().Return(false),
		)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(2)))
	})

	It("should not schedule the same tick twice", func() {
		ticker.EXPECT().Tick().Return(false).Times(1)

		comp.TickLater()
		comp.TickLater()
		comp.TickNow()

		Expect(engine.Run()).To(Succeed())
		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(1)))
	})

	It("should wake up after going to sleep", func() {
		ticker.EXPECT().Tick().Return(false).Times(2)

		comp.TickNow()
		Expect(engine.Run()).To(Succeed())

		comp.TickLater()
		Expect(engine.Run()).To(Succeed())

		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(1)))
	})
})
