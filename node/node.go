// Package node provides a simulated node. A node owns a Home Engine, a
// Remote Engine, and the directory of the lines it is home to. It moves
// packets between the network, the local CPU, and its engines.
package node

import (
	"log"

	"github.com/sarchlab/protoengine/directory"
	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
	"github.com/sarchlab/protoengine/tracing"
)

// Hook positions of a node. The item is the packet or the CPU operation.
var (
	HookPosNetSend      = &sim.HookPos{Name: "Node Net Send"}
	HookPosNetReceive   = &sim.HookPos{Name: "Node Net Receive"}
	HookPosCPUOp        = &sim.HookPos{Name: "Node CPU Op"}
	HookPosCPUMessage   = &sim.HookPos{Name: "Node CPU Message"}
	HookPosPredictorEvt = &sim.HookPos{Name: "Node Predictor Event"}
)

// A Network carries packets to other nodes.
type Network interface {
	Send(pkt *protocol.Packet)
	NotifyAvailable()
}

// A CPU performs the operations the engines request on the local cache.
type CPU interface {
	HandleCPUOp(op CPUOperation)
}

// A CPUOperation is an operation on the local cache.
type CPUOperation struct {
	Op      protocol.CPUOp
	Address protocol.Address
	AnyInv  bool
	Tracker *protocol.Tracker
}

// A PredictorEvent is an access notification for sharing predictors.
type PredictorEvent struct {
	Event   protocol.PredictorEvent
	Address protocol.Address
	Node    protocol.NodeID
	Tracker *protocol.Tracker
}

// Metrics counts the activity of a node.
type Metrics struct {
	PacketsSent        uint64
	PacketsReceived    uint64
	CPUOps             [protocol.CPUPrefetchReadReply + 1]uint64
	PredictorEvents    [protocol.PredictWrite + 1]uint64
	ReceiveStallCycles uint64
}

// Node is one node of the system.
type Node struct {
	*sim.TickingComponent

	id     protocol.NodeID
	mapper memmap.Mapper
	cpi    int

	HE        *protocolengine.Engine
	RE        *protocolengine.Engine
	Directory *directory.Directory

	network Network
	cpu     CPU

	recvBufs [protocol.NumNetworkVCs]*protocol.Packet
	cpuIn    sim.Buffer

	outNet       sim.Buffer
	outCPU       sim.Buffer
	outPredictor sim.Buffer

	Metrics Metrics
}

// ID returns the id of the node.
func (n *Node) ID() protocol.NodeID {
	return n.id
}

// SetNetwork sets the network the node sends to.
func (n *Node) SetNetwork(net Network) {
	n.network = net
}

// SetCPU sets the CPU the node sends CPU operations to.
func (n *Node) SetCPU(cpu CPU) {
	n.cpu = cpu
}

// CanReceive tells if the receive buffer of a network channel is free.
func (n *Node) CanReceive(vc protocol.VC) bool {
	return n.recvBufs[vc.NetworkIndex()] == nil
}

// Receive places a packet from the network into its receive buffer.
func (n *Node) Receive(pkt *protocol.Packet) {
	i := pkt.VC.NetworkIndex()
	if n.recvBufs[i] != nil {
		log.Panicf("%s: receive buffer of %s is busy", n.Name(), pkt.VC)
	}

	n.recvBufs[i] = pkt
	n.Metrics.PacketsReceived++
	n.invoke(HookPosNetReceive, pkt)
	tracing.TraceMsgReceive(pkt, n)
	n.TickLater()
}

// HandleCPUMessage accepts a request or an acknowledgment from the local
// CPU.
func (n *Node) HandleCPUMessage(pkt *protocol.Packet) {
	if !pkt.IsLocal() {
		log.Panicf("%s: %s does not come from a CPU", n.Name(), pkt)
	}

	n.cpuIn.Push(pkt)
	n.invoke(HookPosCPUMessage, pkt)
	n.TickLater()
}

// Tick advances the node by one cycle. Arrived packets move into the engine
// queues, the Home Engine runs before the Remote Engine, and then one item
// leaves each outbound queue.
func (n *Node) Tick() bool {
	madeProgress := false

	madeProgress = n.moveReceived() || madeProgress
	madeProgress = n.moveFromCPU() || madeProgress
	madeProgress = n.HE.Tick() || madeProgress
	madeProgress = n.RE.Tick() || madeProgress
	madeProgress = n.drainNetwork() || madeProgress
	madeProgress = n.drainCPU() || madeProgress
	madeProgress = n.drainPredictor() || madeProgress

	return madeProgress || !n.Directory.IsIdle()
}

func (n *Node) moveReceived() bool {
	madeProgress := false

	for i, pkt := range n.recvBufs {
		if pkt == nil {
			continue
		}

		e := n.engineForNetwork(pkt)
		if !e.CanAccept(pkt.VC) {
			n.Metrics.ReceiveStallCycles++
			continue
		}

		e.Enqueue(pkt)
		n.recvBufs[i] = nil
		n.network.NotifyAvailable()

		madeProgress = true
	}

	return madeProgress
}

func (n *Node) engineForNetwork(pkt *protocol.Packet) *protocolengine.Engine {
	if pkt.Type.IsForHome() {
		return n.HE
	}

	if pkt.Type == protocol.ProtocolError && n.IsAddressLocal(pkt.Address) {
		return n.HE
	}

	return n.RE
}

func (n *Node) moveFromCPU() bool {
	madeProgress := false

	for n.cpuIn.Size() > 0 {
		pkt := n.cpuIn.Peek().(*protocol.Packet)

		e := n.RE
		if n.IsAddressLocal(pkt.Address) {
			e = n.HE
		}

		if !e.CanAccept(pkt.VC) {
			break
		}

		if e == n.HE && pkt.Type.IsCPURequest() {
			pkt.DirEntry = n.Directory.Peek(pkt.Address)
		}

		e.Enqueue(pkt)
		n.cpuIn.Pop()

		madeProgress = true
	}

	return madeProgress
}

func (n *Node) drainNetwork() bool {
	item := n.outNet.Pop()
	if item == nil {
		return false
	}

	pkt := item.(*protocol.Packet)

	tracing.TraceMsgSend(pkt, n)
	n.network.Send(pkt)
	n.Metrics.PacketsSent++
	n.invoke(HookPosNetSend, pkt)

	return true
}

func (n *Node) drainCPU() bool {
	item := n.outCPU.Pop()
	if item == nil {
		return false
	}

	op := item.(CPUOperation)

	n.Metrics.CPUOps[op.Op]++
	n.invoke(HookPosCPUOp, op)
	n.cpu.HandleCPUOp(op)

	return true
}

func (n *Node) drainPredictor() bool {
	item := n.outPredictor.Pop()
	if item == nil {
		return false
	}

	evt := item.(PredictorEvent)

	n.Metrics.PredictorEvents[evt.Event]++
	n.invoke(HookPosPredictorEvt, evt)

	return true
}

// IsQuiesced tells if the node has nothing left to do.
func (n *Node) IsQuiesced() bool {
	for _, pkt := range n.recvBufs {
		if pkt != nil {
			return false
		}
	}

	return n.cpuIn.Size() == 0 &&
		n.outNet.Size() == 0 &&
		n.outCPU.Size() == 0 &&
		n.outPredictor.Size() == 0 &&
		n.Directory.IsIdle() &&
		n.HE.IsQuiesced() &&
		n.RE.IsQuiesced()
}

// NumNodes returns the number of nodes of the system.
func (n *Node) NumNodes() int {
	return n.mapper.NumNodes()
}

// MyNodeID returns the id of the node.
func (n *Node) MyNodeID() protocol.NodeID {
	return n.id
}

// NodeForAddress returns the home node of an address.
func (n *Node) NodeForAddress(addr protocol.Address) protocol.NodeID {
	return n.mapper.NodeForAddress(addr)
}

// IsAddressLocal tells if the node is the home of an address.
func (n *Node) IsAddressLocal(addr protocol.Address) bool {
	return n.mapper.NodeForAddress(addr) == n.id
}

// AcceptHookAll registers a hook with the node, its engines, and its
// directory.
func (n *Node) AcceptHookAll(hook sim.Hook) {
	n.AcceptHook(hook)
	n.HE.AcceptHook(hook)
	n.RE.AcceptHook(hook)
	n.Directory.AcceptHook(hook)
}

func (n *Node) invoke(pos *sim.HookPos, item interface{}) {
	if n.NumHooks() == 0 {
		return
	}

	n.InvokeHook(sim.HookCtx{
		Domain: n,
		Pos:    pos,
		Item:   item,
	})
}
