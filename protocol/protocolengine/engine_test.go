package protocolengine

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/msi"
	"github.com/sarchlab/protoengine/sim"
)

const addr = protocol.Address(0x1000)

type cpuCall struct {
	op   protocol.CPUOp
	addr protocol.Address
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl  *gomock.Controller
		service   *MockServiceProvider
		myNode    protocol.NodeID
		sent      []*protocol.Packet
		lockOps   []protocol.LockOp
		dirWrites []*protocol.DirEntry
		cpuOps    []cpuCall
		responses []protocol.DirectoryResponse
		dirEntry  *protocol.DirEntry
	)

	packet := func(mt protocol.MessageType, src protocol.NodeID) *protocol.Packet {
		pkt := protocol.NewPacket(mt, addr)
		pkt.Src = src
		pkt.Requester = src
		pkt.Respondent = src

		return pkt
	}

	run := func(e *Engine) {
		for i := 0; i < 100; i++ {
			e.Tick()

			if e.IsQuiesced() {
				return
			}
		}

		Fail("the engine did not quiesce")
	}

	// runUntilSent ticks until the engine has sent n packets.
	runUntilSent := func(e *Engine, n int) {
		for i := 0; i < 100 && len(sent) < n; i++ {
			e.Tick()
		}

		Expect(sent).To(HaveLen(n))
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		service = NewMockServiceProvider(mockCtrl)

		sent = nil
		lockOps = nil
		dirWrites = nil
		cpuOps = nil
		responses = nil
		dirEntry = protocol.NewDirEntry()

		service.EXPECT().CurrentTime().Return(sim.VTimeInCycle(1)).AnyTimes()
		service.EXPECT().CPI().Return(1).AnyTimes()
		service.EXPECT().MyNodeID().
			DoAndReturn(func() protocol.NodeID { return myNode }).AnyTimes()
		service.EXPECT().NodeForAddress(gomock.Any()).
			Return(protocol.NodeID(0)).AnyTimes()
		service.EXPECT().IsAddressLocal(gomock.Any()).
			DoAndReturn(func(protocol.Address) bool { return myNode == 0 }).
			AnyTimes()
		service.EXPECT().Send(gomock.Any()).
			Do(func(pkt *protocol.Packet) { sent = append(sent, pkt) }).
			AnyTimes()
		service.EXPECT().LockOp(gomock.Any(), gomock.Any()).
			Do(func(op protocol.LockOp, a protocol.Address) {
				lockOps = append(lockOps, op)
				if op == protocol.Lock {
					responses = append(responses,
						protocol.DirectoryResponse{Address: a})
				}
			}).AnyTimes()
		service.EXPECT().MemOp(gomock.Any(), protocol.DestDirectory,
			gomock.Any(), gomock.Any()).
			Do(func(
				op protocol.MemOp,
				_ protocol.MemDest,
				a protocol.Address,
				entry *protocol.DirEntry,
			) {
				if op == protocol.MemWrite {
					dirWrites = append(dirWrites, entry)
					return
				}

				responses = append(responses, protocol.DirectoryResponse{
					Address: a,
					Entry:   dirEntry.Clone(),
				})
			}).AnyTimes()
		service.EXPECT().HasDirectoryResponse().
			DoAndReturn(func() bool { return len(responses) > 0 }).AnyTimes()
		service.EXPECT().DequeueDirectoryResponse().
			DoAndReturn(func() protocol.DirectoryResponse {
				r := responses[0]
				responses = responses[1:]

				return r
			}).AnyTimes()
		service.EXPECT().CPUOp(gomock.Any(), gomock.Any(), gomock.Any(),
			gomock.Any()).
			Do(func(
				op protocol.CPUOp,
				a protocol.Address,
				_ bool,
				_ *protocol.Tracker,
			) {
				cpuOps = append(cpuOps, cpuCall{op, a})
			}).AnyTimes()
		service.EXPECT().NotifyPredictor(gomock.Any(), gomock.Any(),
			gomock.Any(), gomock.Any()).AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("home", func() {
		var e *Engine

		BeforeEach(func() {
			myNode = 0
			e = MakeBuilder().
				WithRole(RoleHome).
				WithTSRFSize(4).
				WithInvariantChecks(true).
				WithServiceProvider(service).
				WithProgram(msi.HomeProgram()).
				Build("Node[0].HE")
		})

		It("should grant a read of an uncached line", func() {
			e.Enqueue(packet(protocol.ReadReq, 3))

			run(e)

			Expect(lockOps).To(Equal([]protocol.LockOp{
				protocol.Lock, protocol.Unlock}))
			Expect(dirWrites).To(HaveLen(1))
			Expect(dirWrites[0].State).To(Equal(protocol.DirShared))
			Expect(dirWrites[0].Sharers.Nodes()).
				To(ConsistOf(protocol.NodeID(3)))
			Expect(sent).To(HaveLen(1))
			Expect(sent[0].Type).To(Equal(protocol.ReadAck))
			Expect(sent[0].Dest).To(Equal(protocol.NodeID(3)))

			stats := e.Stats()
			Expect(stats.Role).To(Equal("Home"))
			Expect(stats.ThreadsCreated).To(Equal(uint64(1)))
			Expect(stats.Instructions).To(Equal(uint64(8)))
			Expect(stats.ProtocolErrors).To(BeZero())
		})

		It("should recall a modified line before granting a read", func() {
			dirEntry.State = protocol.DirModified
			dirEntry.SetOwner(5)

			e.Enqueue(packet(protocol.ReadReq, 3))
			runUntilSent(e, 1)

			Expect(sent[0].Type).To(Equal(protocol.RecallReadReq))
			Expect(sent[0].Dest).To(Equal(protocol.NodeID(5)))
			Expect(e.IsQuiesced()).To(BeFalse())

			ack := packet(protocol.RecallReadAck, 5)
			ack.Requester = 3
			e.Enqueue(ack)
			run(e)

			Expect(sent).To(HaveLen(2))
			Expect(sent[1].Type).To(Equal(protocol.ReadAck))
			Expect(sent[1].Dest).To(Equal(protocol.NodeID(3)))
			Expect(dirWrites).To(HaveLen(1))
			Expect(dirWrites[0].State).To(Equal(protocol.DirShared))
			Expect(dirWrites[0].Sharers.Nodes()).
				To(ConsistOf(protocol.NodeID(3), protocol.NodeID(5)))
			Expect(lockOps).To(Equal([]protocol.LockOp{
				protocol.Lock, protocol.Unlock}))
		})

		It("should route a request in an unexpected state to the error handler", func() {
			e.Enqueue(packet(protocol.WritebackReq, 3))

			run(e)

			Expect(sent).To(BeEmpty())
			Expect(e.ProtocolErrors()).To(Equal(uint64(1)))
		})

		It("should flow control on the queue size", func() {
			for i := 0; i < 4; i++ {
				Expect(e.CanAccept(protocol.VC0)).To(BeTrue())
				e.Enqueue(packet(protocol.ReadReq, protocol.NodeID(i+1)))
			}

			Expect(e.QueueSize(protocol.VC0)).To(Equal(5))
			Expect(e.CanAccept(protocol.VC0)).To(BeFalse())
		})
	})

	Context("remote", func() {
		var e *Engine

		BeforeEach(func() {
			myNode = 1
			e = MakeBuilder().
				WithRole(RoleRemote).
				WithInvariantChecks(true).
				WithServiceProvider(service).
				WithProgram(msi.RemoteProgram()).
				Build("Node[1].RE")
		})

		It("should fetch a line from its home", func() {
			e.Enqueue(protocol.NewPacket(protocol.LocalRead, addr))
			runUntilSent(e, 1)

			Expect(sent[0].Type).To(Equal(protocol.ReadReq))
			Expect(sent[0].Dest).To(Equal(protocol.NodeID(0)))
			Expect(sent[0].Requester).To(Equal(protocol.NodeID(1)))

			e.Enqueue(packet(protocol.ReadAck, 0))
			run(e)

			Expect(cpuOps).To(Equal([]cpuCall{{protocol.CPUMissReply, addr}}))
			Expect(lockOps).To(BeEmpty())
			Expect(e.Stats().Role).To(Equal("Remote"))
		})

		It("should invalidate the CPU to answer a recall", func() {
			e.Enqueue(packet(protocol.RecallWriteReq, 0))

			for i := 0; i < 100 && len(cpuOps) == 0; i++ {
				e.Tick()
			}

			Expect(cpuOps).To(Equal([]cpuCall{{protocol.CPUInvalidate, addr}}))
			Expect(sent).To(BeEmpty())

			e.Enqueue(protocol.NewPacket(protocol.InvAck, addr))
			run(e)

			Expect(sent).To(HaveLen(1))
			Expect(sent[0].Dest).To(Equal(protocol.NodeID(0)))
			Expect(sent[0].Type).To(Equal(protocol.RecallWriteAck))
		})
	})

	Context("builder", func() {
		It("should refuse a program of the other engine", func() {
			Expect(func() {
				MakeBuilder().
					WithRole(RoleRemote).
					WithServiceProvider(service).
					WithProgram(msi.HomeProgram()).
					Build("RE")
			}).To(Panic())
		})

		It("should refuse to build without a program", func() {
			Expect(func() {
				MakeBuilder().WithServiceProvider(service).Build("HE")
			}).To(Panic())
		})

		It("should refuse a negative starvation threshold", func() {
			Expect(func() {
				MakeBuilder().
					WithServiceProvider(service).
					WithProgram(msi.HomeProgram()).
					WithStarvationThreshold(-1).
					Build("HE")
			}).To(Panic())
		})
	})
})
