package scheduler

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

// WaitForPacket suspends a running thread until a reply arrives. A message
// that is both a request and a potential reply may already have started a
// thread that is still waiting for a lock or blocked on another thread. That
// thread is cancelled and its message is redelivered, so that the newest
// waiter receives it.
func (s *Scheduler) WaitForPacket(t tsrf.Thread) {
	if !t.Is(tsrf.Runnable) {
		log.Panicf("%s: %s waits without running", s.name, t)
	}

	for _, o := range s.live[t.Address()] {
		if !s.isPreemptible(o, t) {
			continue
		}

		s.preempt(o)

		break
	}

	t.Wait()
	t.SetDelayCause(s.name, protocol.DelayWaitForReply)
}

func (s *Scheduler) isPreemptible(o, waiter tsrf.Thread) bool {
	switch {
	case o.Is(tsrf.SuspendedForLock):
	case o.Is(tsrf.Blocked) && o.BlockedOn() != waiter.ID():
	default:
		return false
	}

	mt := o.Type()

	return mt.IsRequest() && mt.IsPotentialReply()
}

func (s *Scheduler) preempt(o tsrf.Thread) {
	s.queues.Refuse(o.VC(), o.Packet())

	if o.Is(tsrf.SuspendedForLock) {
		s.service.LockOp(protocol.LockSquash, o.Address())
	} else {
		s.removeBlockedThread(o)
	}

	s.cancel(o)
}

func (s *Scheduler) cancel(t tsrf.Thread) {
	t.Cancel()
	s.Metrics.Cancellations++
	s.invoke(HookPosThreadCancel, t, nil)
	s.traceThreadStep(t, "cancel")
	s.Reschedule(t)
}

// RefusePacket gives back the message a thread has been delivered. A
// request moves to a new thread blocked on the refusing one, or to the tail
// of its queue if no entry is available. A reply goes back to the head of
// its queue and stalls the queue until the refusing thread completes.
func (s *Scheduler) RefusePacket(t tsrf.Thread) {
	pkt := t.Packet()
	if pkt == nil {
		log.Panicf("%s: %s has no message to refuse", s.name, t)
	}

	s.progress = true

	if pkt.Type.IsRequest() {
		if s.pool.IsEntryAvail(tsrf.WritebackReserved) {
			n := s.createThread(pkt, t.VC(), tsrf.WritebackReserved)
			s.blockThread(n, t)
		} else {
			s.queues.RefuseAndRotate(t.VC(), pkt)
		}

		return
	}

	s.queues.Refuse(t.VC(), pkt)
	s.stallQueue(t, t.VC())
}

// HandleInvalidate cancels the local flushes and evicts blocked at the
// address and turns the blocked local upgrades into writes. It returns true
// if anything was cancelled.
func (s *Scheduler) HandleInvalidate(addr protocol.Address) bool {
	return s.cancelBlockedEvictions(addr, true)
}

// HandleDowngrade cancels the local flushes and evicts blocked at the
// address. It returns true if anything was cancelled.
func (s *Scheduler) HandleDowngrade(addr protocol.Address) bool {
	return s.cancelBlockedEvictions(addr, false)
}

func (s *Scheduler) cancelBlockedEvictions(
	addr protocol.Address,
	rewriteUpgrades bool,
) bool {
	list := s.blocked[addr]
	if len(list) == 0 {
		return false
	}

	kept := make([]tsrf.Thread, 0, len(list))

	var cancelled []tsrf.Thread

	for _, t := range list {
		switch t.Type() {
		case protocol.LocalFlush, protocol.LocalEvict:
			cancelled = append(cancelled, t)
		case protocol.LocalUpgradeAccess:
			if rewriteUpgrades {
				t.SetType(protocol.LocalWriteAccess)
			}

			kept = append(kept, t)
		default:
			kept = append(kept, t)
		}
	}

	s.setBlocked(addr, kept)

	for _, t := range cancelled {
		s.cancel(t)
	}

	return len(cancelled) > 0
}
