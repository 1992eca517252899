package microcode

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

// Send builds a message of the thread's transaction and hands it to the
// service provider.
func Send(
	sp protocol.ServiceProvider,
	t tsrf.Thread,
	mt protocol.MessageType,
	dest protocol.NodeID,
) {
	pkt := protocol.NewPacket(mt, t.Address())
	pkt.Dest = dest
	pkt.Requester = t.Requester()
	pkt.InvCount = t.InvCount()
	pkt.AnyInv = t.AnyInvalidations()
	pkt.Prefetch = t.IsPrefetch()
	pkt.Tracker = t.Tracker()

	sp.Send(pkt)
}

// CPUOpCode decodes the CPU operation field shared by both engines.
func CPUOpCode(code uint32) (protocol.CPUOp, bool) {
	switch code {
	case 0:
		return protocol.CPUInvalidate, true
	case 1:
		return protocol.CPUDowngrade, true
	case 8:
		return protocol.CPUMissReply, true
	case 9:
		return protocol.CPUMissWritableReply, true
	case 10:
		return protocol.CPUUpgradeReply, true
	case 11:
		return protocol.CPUPrefetchReadReply, true
	}

	return 0, false
}

// EncodeCPUOp returns the field value of a CPU operation.
func EncodeCPUOp(op protocol.CPUOp) uint32 {
	switch op {
	case protocol.CPUInvalidate:
		return 0
	case protocol.CPUDowngrade:
		return 1
	case protocol.CPUMissReply:
		return 8
	case protocol.CPUMissWritableReply:
		return 9
	case protocol.CPUUpgradeReply:
		return 10
	case protocol.CPUPrefetchReadReply:
		return 11
	}

	log.Panicf("unknown CPU operation %s", op)

	return 0
}
