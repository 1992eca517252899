// Package interconnect provides the network between the nodes. Every pair
// of nodes is linked with the same fixed latency and the packets of one
// virtual channel toward one node are delivered in order.
package interconnect

import (
	"log"
	"sort"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// HookPosDeliver marks a packet handed to its destination.
var HookPosDeliver = &sim.HookPos{Name: "Net Deliver"}

// An Endpoint is a node attached to the network.
type Endpoint interface {
	// CanReceive tells if the receive buffer of a channel is free.
	CanReceive(vc protocol.VC) bool

	// Receive places a packet in the receive buffer of its channel.
	Receive(pkt *protocol.Packet)
}

// Metrics counts the traffic of the network.
type Metrics struct {
	Packets       uint64
	PayloadBytes  uint64
	PacketsPerVC  [protocol.NumNetworkVCs]uint64
	BlockedCycles uint64
}

type delivery struct {
	pkt     *protocol.Packet
	readyAt sim.VTimeInCycle
}

type destination struct {
	endpoint Endpoint
	channels [protocol.NumNetworkVCs][]delivery
}

// Network is a fully connected, fixed-latency network.
type Network struct {
	*sim.TickingComponent

	latency int
	dests   map[protocol.NodeID]*destination
	order   []protocol.NodeID

	Metrics Metrics
}

// PlugIn attaches a node to the network.
func (n *Network) PlugIn(id protocol.NodeID, ep Endpoint) {
	if _, ok := n.dests[id]; ok {
		log.Panicf("%s: node %s is already attached", n.Name(), id)
	}

	n.dests[id] = &destination{endpoint: ep}
	n.order = append(n.order, id)
	sort.Slice(n.order, func(i, j int) bool { return n.order[i] < n.order[j] })
}

// Send injects a packet. It arrives at the destination after the latency of
// the network, or later if the receive buffer is busy.
func (n *Network) Send(pkt *protocol.Packet) {
	d, ok := n.dests[pkt.Dest]
	if !ok {
		log.Panicf("%s: %s is sent to unknown node %s", n.Name(), pkt, pkt.Dest)
	}

	i := pkt.VC.NetworkIndex()
	d.channels[i] = append(d.channels[i], delivery{
		pkt:     pkt,
		readyAt: n.CurrentTime() + sim.VTimeInCycle(n.latency),
	})

	n.Metrics.Packets++
	n.Metrics.PacketsPerVC[i]++
	n.Metrics.PayloadBytes += uint64(pkt.PayloadBytes())

	n.TickLater()
}

// NotifyAvailable wakes the network up after a node frees a receive buffer.
func (n *Network) NotifyAvailable() {
	n.TickLater()
}

// Tick delivers every packet that has arrived and whose receive buffer is
// free.
func (n *Network) Tick() bool {
	madeProgress := false
	waiting := false
	now := n.CurrentTime()

	for _, id := range n.order {
		d := n.dests[id]

		for i := range d.channels {
			ch := d.channels[i]
			if len(ch) == 0 {
				continue
			}

			head := ch[0]
			if head.readyAt > now {
				waiting = true
				continue
			}

			vc := protocol.NetworkVC(i)
			if !d.endpoint.CanReceive(vc) {
				n.Metrics.BlockedCycles++
				continue
			}

			d.channels[i] = ch[1:]
			d.endpoint.Receive(head.pkt)
			n.invokeDeliver(head.pkt)

			madeProgress = true
		}
	}

	return madeProgress || waiting
}

// InFlight returns the number of packets inside the network.
func (n *Network) InFlight() int {
	count := 0

	for _, d := range n.dests {
		for _, ch := range d.channels {
			count += len(ch)
		}
	}

	return count
}

// IsIdle tells if no packet is in flight.
func (n *Network) IsIdle() bool {
	return n.InFlight() == 0
}

func (n *Network) invokeDeliver(pkt *protocol.Packet) {
	if n.NumHooks() == 0 {
		return
	}

	n.InvokeHook(sim.HookCtx{
		Domain: n,
		Pos:    HookPosDeliver,
		Item:   pkt,
	})
}
