package interconnect

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

type arrival struct {
	pkt  *protocol.Packet
	time sim.VTimeInCycle
}

type endpoint struct {
	engine   sim.Engine
	busy     bool
	arrivals []arrival
}

func (e *endpoint) CanReceive(_ protocol.VC) bool {
	return !e.busy
}

func (e *endpoint) Receive(pkt *protocol.Packet) {
	e.arrivals = append(e.arrivals, arrival{pkt, e.engine.CurrentTime()})
}

var _ = Describe("Network", func() {
	var (
		engine *sim.SerialEngine
		net    *Network
		node1  *endpoint
	)

	send := func(mt protocol.MessageType) *protocol.Packet {
		pkt := protocol.NewPacket(mt, 0x40)
		pkt.Src = 0
		pkt.Dest = 1
		net.Send(pkt)

		return pkt
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		net = MakeBuilder().
			WithEngine(engine).
			WithLatency(5).
			Build("Network")
		node1 = &endpoint{engine: engine}

		net.PlugIn(0, &endpoint{engine: engine})
		net.PlugIn(1, node1)
	})

	It("should deliver after the latency", func() {
		pkt := send(protocol.ReadAck)

		Expect(engine.Run()).To(Succeed())

		Expect(node1.arrivals).To(HaveLen(1))
		Expect(node1.arrivals[0].pkt).To(BeIdenticalTo(pkt))
		Expect(node1.arrivals[0].time).To(Equal(sim.VTimeInCycle(5)))
		Expect(net.IsIdle()).To(BeTrue())
		Expect(net.Metrics.PayloadBytes).To(Equal(uint64(protocol.LineSize)))
	})

	It("should keep the order of a channel", func() {
		first := send(protocol.WritebackAck)
		second := send(protocol.WritebackStaleRdAck)

		Expect(engine.Run()).To(Succeed())

		Expect(node1.arrivals).To(HaveLen(2))
		Expect(node1.arrivals[0].pkt).To(BeIdenticalTo(first))
		Expect(node1.arrivals[1].pkt).To(BeIdenticalTo(second))
	})

	It("should hold packets while the receive buffer is busy", func() {
		node1.busy = true
		send(protocol.ReadReq)

		Expect(engine.Run()).To(Succeed())
		Expect(node1.arrivals).To(BeEmpty())
		Expect(net.InFlight()).To(Equal(1))
		Expect(net.Metrics.BlockedCycles).To(BeNumerically(">", 0))

		node1.busy = false
		net.NotifyAvailable()

		Expect(engine.Run()).To(Succeed())
		Expect(node1.arrivals).To(HaveLen(1))
	})

	It("should refuse unknown destinations", func() {
		pkt := protocol.NewPacket(protocol.ReadReq, 0x40)
		pkt.Dest = 7

		Expect(func() { net.Send(pkt) }).To(Panic())
	})

	It("should refuse a second endpoint with the same id", func() {
		Expect(func() { net.PlugIn(1, node1) }).To(Panic())
	})
})
