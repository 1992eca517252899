package node

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// services is the service provider the node gives to one of its engines.
type services struct {
	*Node

	home bool
}

func (s *services) CurrentTime() sim.VTimeInCycle {
	return s.Node.CurrentTime()
}

func (s *services) Send(pkt *protocol.Packet) {
	pkt.Src = s.id
	pkt.Respondent = s.id
	pkt.VC = pkt.Type.VC()

	if !pkt.Dest.Valid() {
		log.Panicf("%s: %s has no destination", s.Name(), pkt)
	}

	s.outNet.Push(pkt)
}

func (s *services) CPUOp(
	op protocol.CPUOp,
	addr protocol.Address,
	anyInv bool,
	tracker *protocol.Tracker,
) {
	s.outCPU.Push(CPUOperation{
		Op:      op,
		Address: addr,
		AnyInv:  anyInv,
		Tracker: tracker,
	})
}

func (s *services) LockOp(op protocol.LockOp, addr protocol.Address) {
	s.mustBeHome("lock operation")

	switch op {
	case protocol.Lock:
		s.Directory.Lock(addr)
	case protocol.Unlock:
		s.Directory.Unlock(addr)
	case protocol.LockSquash:
		s.Directory.Squash(addr)
	default:
		log.Panicf("%s: unknown lock operation %d", s.Name(), op)
	}
}

func (s *services) MemOp(
	op protocol.MemOp,
	dest protocol.MemDest,
	addr protocol.Address,
	entry *protocol.DirEntry,
) {
	s.mustBeHome("directory access")

	if dest != protocol.DestDirectory {
		log.Panicf("%s: unknown memory destination %d", s.Name(), dest)
	}

	if op == protocol.MemWrite {
		s.Directory.Set(addr, entry)
		return
	}

	s.Directory.Get(addr)
}

func (s *services) HasDirectoryResponse() bool {
	return s.home && s.Directory.HasResponse()
}

func (s *services) DequeueDirectoryResponse() protocol.DirectoryResponse {
	s.mustBeHome("directory response")
	return s.Directory.PopResponse()
}

func (s *services) NotifyPredictor(
	ev protocol.PredictorEvent,
	addr protocol.Address,
	node protocol.NodeID,
	tracker *protocol.Tracker,
) {
	s.outPredictor.Push(PredictorEvent{
		Event:   ev,
		Address: addr,
		Node:    node,
		Tracker: tracker,
	})
}

func (s *services) CPI() int {
	return s.cpi
}

func (s *services) mustBeHome(what string) {
	if !s.home {
		log.Panicf("%s: %s from the Remote Engine", s.Name(), what)
	}
}
