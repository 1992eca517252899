package scheduler

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

// startsThread tells if a packet may start a thread. Protocol errors start
// one so that the engine routes them to its error handler.
func startsThread(mt protocol.MessageType) bool {
	return mt.IsRequest() || mt == protocol.ProtocolError
}

func requestKind(pkt *protocol.Packet) tsrf.RequestKind {
	switch {
	case pkt.IsLocal():
		return tsrf.LocalReserved
	case pkt.Type == protocol.WritebackReq, pkt.Type == protocol.FlushReq:
		return tsrf.WritebackReserved
	}

	return tsrf.Normal
}

func (s *Scheduler) processMatchedPacket(vc protocol.VC, pkt *protocol.Packet) {
	addr := pkt.Address
	if s.anyThreadIs(addr, tsrf.Runnable) {
		return
	}

	waiting, hasWaiting := s.findUniqueThread(addr, tsrf.Waiting)

	if pkt.Type.IsPotentialReply() {
		if hasWaiting {
			s.deliverReply(waiting, vc)
		}

		return
	}

	// A local request carrying its own directory entry races with the
	// completion of the transaction in flight.
	if pkt.IsLocal() && pkt.DirEntry != nil {
		s.processUnmatchedPacket(vc, pkt)
		return
	}

	blockOn := s.live[addr][0]
	if hasWaiting {
		blockOn = waiting
	}

	s.createBlockedThread(vc, blockOn)
}

func (s *Scheduler) processUnmatchedPacket(
	vc protocol.VC,
	pkt *protocol.Packet,
) {
	if !startsThread(pkt.Type) {
		log.Panicf("%s: %s on %s matches no thread", s.name, pkt, vc)
	}

	if tr := pkt.Tracker; tr != nil && tr.InPE {
		tr.SetDelayCause(s.name, protocol.DelayRequestTSRF)
	}

	kind := requestKind(pkt)
	if !s.pool.IsEntryAvail(kind) {
		return
	}

	t := s.createThreadFromQueue(vc, kind)
	s.launchThread(t)
}

func (s *Scheduler) createBlockedThread(vc protocol.VC, blockOn tsrf.Thread) {
	if !s.pool.IsEntryAvail(tsrf.Normal) {
		return
	}

	t := s.createThreadFromQueue(vc, tsrf.Normal)
	s.blockThread(t, blockOn)
}

func (s *Scheduler) createThreadFromQueue(
	vc protocol.VC,
	kind tsrf.RequestKind,
) tsrf.Thread {
	pkt := s.queues.Head(vc)
	t := s.createThread(pkt, vc, kind)
	s.queues.Dequeue(vc)

	return t
}

func (s *Scheduler) createThread(
	pkt *protocol.Packet,
	vc protocol.VC,
	kind tsrf.RequestKind,
) tsrf.Thread {
	if !startsThread(pkt.Type) {
		log.Panicf("%s: %s cannot start a thread", s.name, pkt)
	}

	t := s.pool.Spawn(kind, s.nextID, s.service.CurrentTime(), s.service.CPI())
	s.nextID++

	t.SetPacket(pkt)
	t.SetTracker(pkt.Tracker)
	t.SetVC(vc)
	t.SetAddress(pkt.Address)
	t.SetType(pkt.Type)
	t.SetPrefetch(pkt.Prefetch)

	if pkt.IsLocal() {
		me := s.service.MyNodeID()
		t.SetRequester(me)
		t.SetRespondent(me)
	} else {
		t.SetRequester(pkt.Requester)
		t.SetRespondent(pkt.Respondent)
	}

	s.live[pkt.Address] = append(s.live[pkt.Address], t)
	s.Metrics.ThreadsCreated++
	s.progress = true
	s.invoke(HookPosThreadCreate, t, pkt)
	s.traceThreadStart(t, pkt)

	return t
}

func (s *Scheduler) blockThread(t, blockOn tsrf.Thread) {
	s.blocked[t.Address()] = append(s.blocked[t.Address()], t)
	t.Block(blockOn)
	t.SetDelayCause(s.name, protocol.DelayBlocked)
	s.invoke(HookPosThreadBlock, t, blockOn.ID())
	s.traceThreadStep(t, "block")
}

func (s *Scheduler) requiresDirectoryLock(pkt *protocol.Packet) bool {
	return s.service.IsAddressLocal(pkt.Address) &&
		(!pkt.IsLocal() || pkt.DirEntry == nil)
}

func (s *Scheduler) launchThread(t tsrf.Thread) {
	pkt := t.Packet()
	if s.requiresDirectoryLock(pkt) {
		s.requestDirectoryLock(t)
		return
	}

	state := protocol.DirInvalid

	if pkt.IsLocal() && s.service.IsAddressLocal(t.Address()) {
		if pkt.DirEntry == nil {
			log.Panicf("%s: local %s has no directory entry", s.name, pkt)
		}

		t.LoadDirEntry(pkt.DirEntry)
		state = t.DirState()
	}

	s.start(t, s.engine.EntryPoint(t.Type(), t, state))
}

func (s *Scheduler) start(t tsrf.Thread, pc int) {
	t.Start(pc, s.service.CurrentTime())
	t.MarkRunnable()
	s.invoke(HookPosThreadStart, t, pc)
	s.Reschedule(t)
}

func (s *Scheduler) requestDirectoryLock(t tsrf.Thread) {
	s.service.LockOp(protocol.Lock, t.Address())
	t.WaitForLock()
	t.SetDelayCause(s.name, protocol.DelayWaitForLock)
	s.traceThreadStep(t, "wait_lock")
	s.Reschedule(t)
}

func (s *Scheduler) requestDirectoryEntry(t tsrf.Thread) {
	s.service.MemOp(protocol.MemRead, protocol.DestDirectory, t.Address(), nil)
	t.WaitForDirectory()
	t.SetDelayCause(s.name, protocol.DelayWaitForDir)
	s.traceThreadStep(t, "wait_dir")
	s.Reschedule(t)
}

func (s *Scheduler) processLockAcquired(addr protocol.Address) {
	t, ok := s.findUniqueThread(addr, tsrf.SuspendedForLock)
	if !ok {
		log.Panicf("%s: lock on %s granted to no thread", s.name, addr)
	}

	s.requestDirectoryEntry(t)
}

func (s *Scheduler) processDirectoryReply(
	addr protocol.Address,
	entry *protocol.DirEntry,
) {
	t, ok := s.findUniqueThread(addr, tsrf.SuspendedForDir)
	if !ok {
		log.Panicf("%s: directory entry of %s read for no thread", s.name, addr)
	}

	t.LoadDirEntry(entry)

	if tr := t.Tracker(); tr != nil && tr.Initiator.Valid() {
		switch entry.State {
		case protocol.DirShared:
			tr.Responder = s.service.MyNodeID()
		case protocol.DirModified:
			tr.Responder = entry.Owner
		}
	}

	s.start(t, s.engine.EntryPoint(t.Type(), t, t.DirState()))
}

func (s *Scheduler) deliverReply(t tsrf.Thread, vc protocol.VC) {
	if !t.Is(tsrf.Waiting) {
		log.Panicf("%s: delivering to %s", s.name, t)
	}

	pkt := s.queues.Head(vc)
	if pkt.Address != t.Address() {
		log.Panicf("%s: delivering %s to %s", s.name, pkt, t)
	}

	t.SetPacket(pkt)
	t.SetVC(vc)
	t.SetType(pkt.Type)

	if !pkt.IsLocal() {
		t.SetRespondent(pkt.Respondent)
		t.SetRacer(pkt.Requester)
	}

	s.traceThreadStep(t, "reply_"+pkt.Type.String())
	s.engine.DeliverReply(t, pkt.Type)
	s.queues.Dequeue(vc)

	t.MarkRunnable()
	s.progress = true
	s.Reschedule(t)
}

func (s *Scheduler) reclaimThread(t tsrf.Thread) {
	addr := t.Address()
	threads := s.live[addr]

	idx := -1

	for i, o := range threads {
		if o == t {
			idx = i
			break
		}
	}

	if idx < 0 {
		log.Panicf("%s: reclaiming unknown %s", s.name, t)
	}

	now := s.service.CurrentTime()
	s.Metrics.ThreadLifetime.Add(uint64(now - t.CreationTime()))

	if t.EntryPC() != 0 {
		s.Metrics.ThreadRuntime.Add(uint64(now - t.StartTime()))
	}

	s.invoke(HookPosThreadComplete, t, nil)
	s.traceThreadEnd(t)

	if len(threads) == 1 {
		delete(s.live, addr)
	} else {
		s.live[addr] = append(threads[:idx:idx], threads[idx+1:]...)
	}

	s.releaseQueues(t)
	s.pool.Free(t.Vacate())
	s.progress = true

	s.unblockThreads(addr)
}

// unblockThreads launches the oldest thread blocked at the address unless
// another thread there is still in progress.
func (s *Scheduler) unblockThreads(addr protocol.Address) {
	list := s.blocked[addr]
	if len(list) == 0 {
		return
	}

	for _, o := range s.live[addr] {
		switch o.State() {
		case tsrf.Runnable, tsrf.Waiting,
			tsrf.SuspendedForLock, tsrf.SuspendedForDir:
			return
		}
	}

	next := list[0]
	s.setBlocked(addr, list[1:])
	s.launchThread(next)
}

func (s *Scheduler) setBlocked(addr protocol.Address, list []tsrf.Thread) {
	if len(list) == 0 {
		delete(s.blocked, addr)
		return
	}

	s.blocked[addr] = list
}

func (s *Scheduler) removeBlockedThread(t tsrf.Thread) {
	list := s.blocked[t.Address()]
	kept := make([]tsrf.Thread, 0, len(list))

	for _, o := range list {
		if o != t {
			kept = append(kept, o)
		}
	}

	if len(kept) == len(list) {
		log.Panicf("%s: %s is not blocked", s.name, t)
	}

	s.setBlocked(t.Address(), kept)
}

func (s *Scheduler) anyThreadIs(addr protocol.Address, state tsrf.State) bool {
	for _, t := range s.live[addr] {
		if t.Is(state) {
			return true
		}
	}

	return false
}

func (s *Scheduler) findUniqueThread(
	addr protocol.Address,
	state tsrf.State,
) (tsrf.Thread, bool) {
	var (
		found tsrf.Thread
		ok    bool
	)

	for _, t := range s.live[addr] {
		if !t.Is(state) {
			continue
		}

		if ok {
			log.Panicf("%s: %s and %s are both %s",
				s.name, found, t, state)
		}

		found, ok = t, true
	}

	return found, ok
}

func (s *Scheduler) stallQueue(t tsrf.Thread, vc protocol.VC) {
	if s.isStalled(vc) {
		log.Panicf("%s: %s is already stalled", s.name, vc)
	}

	s.stalledOn[vc] = t.ID()
	t.SetDelayCause(s.name, protocol.DelayStalledQueue)
}

func (s *Scheduler) isStalled(vc protocol.VC) bool {
	return s.stalledOn[vc] != 0
}

func (s *Scheduler) releaseQueues(t tsrf.Thread) {
	for vc := range s.stalledOn {
		if s.stalledOn[vc] == t.ID() {
			s.stalledOn[vc] = 0
		}
	}
}
