package cpu

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/node"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

var _ = Describe("CPU", func() {
	const (
		lineA = protocol.Address(0x40)
		lineB = protocol.Address(0xc0)
	)

	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		sink     *MockSink
		listener *MockTransactionListener
		sent     []*protocol.Packet
		c        *CPU
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		sink = NewMockSink(mockCtrl)
		listener = NewMockTransactionListener(mockCtrl)
		sent = nil

		sink.EXPECT().
			HandleCPUMessage(gomock.Any()).
			Do(func(pkt *protocol.Packet) { sent = append(sent, pkt) }).
			AnyTimes()

		c = MakeBuilder().
			WithEngine(engine).
			WithID(0).
			WithMapper(memmap.NewInterleaved(2, 64)).
			WithNumLines(1).
			WithCapacity(4).
			WithAccesses(4).
			WithMaxOutstanding(2).
			WithWriteRatio(0).
			WithPrefetchRatio(0).
			Build("CPU")
		c.SetNode(sink)
		c.AddListener(listener)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	reply := func(op protocol.CPUOp, addr protocol.Address) {
		c.HandleCPUOp(node.CPUOperation{Op: op, Address: addr})
	}

	fillModified := func(addr protocol.Address) {
		listener.EXPECT().TransactionCompleted(gomock.Any())
		c.writeRatio = 1
		c.Tick()
		reply(protocol.CPUMissWritableReply, addr)
		sent = nil
	}

	It("should only access lines homed elsewhere", func() {
		c = MakeBuilder().
			WithEngine(engine).
			WithID(1).
			WithMapper(memmap.NewInterleaved(2, 64)).
			WithNumLines(4).
			Build("CPU")

		Expect(c.Lines()).To(Equal([]protocol.Address{0x0, 0x80, 0x100, 0x180}))
	})

	It("should issue a read miss and fill the line as shared", func() {
		var done *protocol.Tracker
		listener.EXPECT().
			TransactionCompleted(gomock.Any()).
			Do(func(tr *protocol.Tracker) { done = tr })

		Expect(c.Tick()).To(BeTrue())

		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Type).To(Equal(protocol.LocalRead))
		Expect(sent[0].Address).To(Equal(lineA))
		Expect(sent[0].Tracker.InPE).To(BeTrue())
		Expect(sent[0].Tracker.Initiator).To(Equal(protocol.NodeID(0)))
		Expect(c.Outstanding()).To(Equal(1))

		reply(protocol.CPUMissReply, lineA)

		Expect(c.State(lineA)).To(Equal(Shared))
		Expect(done).To(BeIdenticalTo(sent[0].Tracker))
		Expect(done.InPE).To(BeFalse())
		Expect(c.Metrics.ReadMisses).To(Equal(uint64(1)))
		Expect(c.Metrics.MissLatency.Count).To(Equal(uint64(1)))
		Expect(c.Outstanding()).To(Equal(0))
	})

	It("should mark prefetches", func() {
		c.prefetchRatio = 1

		c.Tick()

		Expect(sent[0].Type).To(Equal(protocol.LocalPrefetchRead))
		Expect(sent[0].Prefetch).To(BeTrue())
		Expect(c.Metrics.Prefetches).To(Equal(uint64(1)))
	})

	It("should not issue a second access to a line in flight", func() {
		c.Tick()

		Expect(c.Tick()).To(BeFalse())
		Expect(sent).To(HaveLen(1))
		Expect(c.Metrics.ConflictStall).To(Equal(uint64(1)))
		Expect(c.AccessesLeft).To(Equal(3))
	})

	It("should hit on a shared line for reads", func() {
		listener.EXPECT().TransactionCompleted(gomock.Any())
		c.Tick()
		reply(protocol.CPUMissReply, lineA)
		sent = nil

		Expect(c.Tick()).To(BeTrue())

		Expect(sent).To(BeEmpty())
		Expect(c.Metrics.Hits).To(Equal(uint64(1)))
	})

	It("should upgrade a shared line for writes", func() {
		listener.EXPECT().TransactionCompleted(gomock.Any()).Times(2)
		c.Tick()
		reply(protocol.CPUMissReply, lineA)
		sent = nil
		c.writeRatio = 1

		c.Tick()

		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Type).To(Equal(protocol.LocalUpgradeAccess))

		reply(protocol.CPUUpgradeReply, lineA)

		Expect(c.State(lineA)).To(Equal(Modified))
		Expect(c.Metrics.Upgrades).To(Equal(uint64(1)))
	})

	It("should hit on a modified line for writes", func() {
		fillModified(lineA)

		c.Tick()

		Expect(sent).To(BeEmpty())
		Expect(c.Metrics.WriteMisses).To(Equal(uint64(1)))
		Expect(c.Metrics.Hits).To(Equal(uint64(1)))
	})

	It("should flush a modified victim", func() {
		c.capacity = 1
		fillModified(lineA)
		c.lines = []protocol.Address{lineB}

		c.Tick()

		Expect(sent).To(HaveLen(2))
		Expect(sent[0].Type).To(Equal(protocol.LocalFlush))
		Expect(sent[0].Address).To(Equal(lineA))
		Expect(sent[1].Type).To(Equal(protocol.LocalWriteAccess))
		Expect(sent[1].Address).To(Equal(lineB))
		Expect(c.State(lineA)).To(Equal(Invalid))
		Expect(c.Metrics.Flushes).To(Equal(uint64(1)))
	})

	It("should evict a shared victim", func() {
		listener.EXPECT().TransactionCompleted(gomock.Any())
		c.capacity = 1
		c.Tick()
		reply(protocol.CPUMissReply, lineA)
		sent = nil
		c.lines = []protocol.Address{lineB}

		c.Tick()

		Expect(sent[0].Type).To(Equal(protocol.LocalEvict))
		Expect(sent[1].Type).To(Equal(protocol.LocalRead))
		Expect(c.Metrics.Evictions).To(Equal(uint64(1)))
	})

	It("should answer an invalidation of a modified line with data", func() {
		fillModified(lineA)

		reply(protocol.CPUInvalidate, lineA)

		Expect(sent).To(BeEmpty())

		c.AccessesLeft = 0
		c.Tick()

		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Type).To(Equal(protocol.InvUpdateAck))
		Expect(c.State(lineA)).To(Equal(Invalid))
	})

	It("should acknowledge an invalidation of an absent line", func() {
		reply(protocol.CPUInvalidate, lineB)
		c.AccessesLeft = 0
		c.Tick()

		Expect(sent[0].Type).To(Equal(protocol.InvAck))
	})

	It("should downgrade a modified line", func() {
		fillModified(lineA)

		reply(protocol.CPUDowngrade, lineA)
		c.AccessesLeft = 0
		c.Tick()

		Expect(sent[0].Type).To(Equal(protocol.DowngradeUpdateAck))
		Expect(c.State(lineA)).To(Equal(Shared))
	})

	It("should be idle once every access completes", func() {
		listener.EXPECT().TransactionCompleted(gomock.Any())
		c.AccessesLeft = 1
		c.Tick()

		Expect(c.IsIdle()).To(BeFalse())

		reply(protocol.CPUMissReply, lineA)

		Expect(c.IsIdle()).To(BeTrue())
	})

	It("should panic on a reply without an access in flight", func() {
		Expect(func() { reply(protocol.CPUMissReply, lineA) }).To(Panic())
	})

	It("should panic if there are not two nodes", func() {
		Expect(func() {
			MakeBuilder().
				WithEngine(engine).
				WithMapper(memmap.NewInterleaved(1, 64)).
				Build("CPU")
		}).To(Panic())
	})
})
