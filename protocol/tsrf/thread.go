package tsrf

import (
	"fmt"
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// Thread is a handle to one pool entry. Handles are values; copies refer to
// the same entry. Once the entry is vacated every handle to it becomes
// invalid and accessing it panics.
type Thread struct {
	pool *Pool
	slot Slot
	id   ThreadID
}

// IsValid returns true if the handle still refers to a live entry.
func (t Thread) IsValid() bool {
	_, ok := t.pool.lookup(t.slot)
	return ok
}

func (t Thread) e() *entry {
	e, ok := t.pool.lookup(t.slot)
	if !ok {
		log.Panicf("access to invalid thread %d", t.id)
	}

	return e
}

// ID returns the thread ID.
func (t Thread) ID() ThreadID {
	return t.id
}

// String describes the thread, or marks the handle invalid.
func (t Thread) String() string {
	if !t.IsValid() {
		return fmt.Sprintf("thread %d (invalid)", t.id)
	}

	e := t.e()

	return fmt.Sprintf("thread %d [%s %s %s pc=%d]",
		t.id, e.state, e.msgType, e.address, e.pc)
}

// State returns the scheduling state.
func (t Thread) State() State {
	return t.e().state
}

// Is tells if the thread is in the given state.
func (t Thread) Is(s State) bool {
	return t.e().state == s
}

func (t Thread) transit(to State) {
	e := t.e()
	if !canTransit(e.state, to) {
		log.Panicf("thread %d cannot move from %s to %s", t.id, e.state, to)
	}

	e.state = to
}

// MarkRunnable makes the thread eligible for execution.
func (t Thread) MarkRunnable() {
	t.transit(Runnable)
}

// Wait suspends a running thread until a reply arrives.
func (t Thread) Wait() {
	t.transit(Waiting)
}

// WaitForLock suspends the thread until the directory grants the lock.
func (t Thread) WaitForLock() {
	t.transit(SuspendedForLock)
}

// WaitForDirectory suspends the thread until the directory entry is read.
func (t Thread) WaitForDirectory() {
	t.transit(SuspendedForDir)
}

// Block makes the thread wait until the blocker completes.
func (t Thread) Block(blocker Thread) {
	t.transit(Blocked)
	t.e().blockedOn = blocker.ID()
}

// BlockedOn returns the thread that this thread is blocked on.
func (t Thread) BlockedOn() ThreadID {
	return t.e().blockedOn
}

// Cancel completes a thread that has not started running and discards any
// pending dispatch.
func (t Thread) Cancel() {
	e := t.e()
	if e.state != SuspendedForLock && e.state != Blocked {
		log.Panicf("cannot cancel thread %d in state %s", t.id, e.state)
	}

	e.pc = 0
	e.deferredJump = 0
	e.dispatchPhase = DispatchNone
	e.state = Complete
}

// Vacate clears the entry and returns the slot so that it can be freed.
// The thread must be complete.
func (t Thread) Vacate() Slot {
	e := t.e()
	if e.state != Complete {
		log.Panicf("vacating thread %d in state %s", t.id, e.state)
	}

	e.vacate()

	return Slot{index: t.slot.index, gen: e.gen}
}

// PC returns the program counter.
func (t Thread) PC() int {
	return t.e().pc
}

// SetPC sets the program counter. Address 0 halts the thread.
func (t Thread) SetPC(pc int) {
	e := t.e()
	e.pc = pc

	if pc == 0 {
		t.transit(Complete)
	}
}

// Start sets the entry PC and the start time.
func (t Thread) Start(pc int, now sim.VTimeInCycle) {
	e := t.e()
	e.entryPC = pc
	e.startTime = now
	t.SetPC(pc)
}

// EntryPC returns the entry point the thread started at.
func (t Thread) EntryPC() int {
	return t.e().entryPC
}

// RelativeJump moves the program counter by offset.
func (t Thread) RelativeJump(offset int) {
	t.SetPC(t.e().pc + offset)
}

// DeferJump records a second-level offset to apply once the thread reaches
// its second-level receive.
func (t Thread) DeferJump(offset int) {
	e := t.e()
	e.deferredJump = offset
	e.dispatchPhase = DispatchLevel2Pending
}

// ResolveDeferredJump applies the recorded second-level offset.
func (t Thread) ResolveDeferredJump() {
	e := t.e()
	if e.dispatchPhase != DispatchLevel2Pending {
		log.Panicf("thread %d has no pending second-level dispatch", t.id)
	}

	offset := e.deferredJump
	e.deferredJump = 0
	e.dispatchPhase = DispatchNone

	t.RelativeJump(offset)
}

// Dispatch returns the dispatch phase.
func (t Thread) Dispatch() DispatchPhase {
	return t.e().dispatchPhase
}

// Address returns the cache line address.
func (t Thread) Address() protocol.Address { return t.e().address }

// SetAddress sets the cache line address.
func (t Thread) SetAddress(a protocol.Address) { t.e().address = a }

// Type returns the type of the last message delivered.
func (t Thread) Type() protocol.MessageType { return t.e().msgType }

// SetType sets the message type.
func (t Thread) SetType(mt protocol.MessageType) { t.e().msgType = mt }

// VC returns the channel of the last message delivered.
func (t Thread) VC() protocol.VC { return t.e().vc }

// SetVC sets the channel.
func (t Thread) SetVC(vc protocol.VC) { t.e().vc = vc }

// Requester returns the node that started the transaction.
func (t Thread) Requester() protocol.NodeID { return t.e().requester }

// SetRequester sets the requester.
func (t Thread) SetRequester(n protocol.NodeID) { t.e().requester = n }

// Respondent returns the node that sent the last message.
func (t Thread) Respondent() protocol.NodeID { return t.e().respondent }

// SetRespondent sets the respondent.
func (t Thread) SetRespondent(n protocol.NodeID) { t.e().respondent = n }

// Racer returns the node whose request raced with this thread.
func (t Thread) Racer() protocol.NodeID { return t.e().racer }

// SetRacer sets the racer.
func (t Thread) SetRacer(n protocol.NodeID) { t.e().racer = n }

// FwdRequester returns the requester of a forwarded request.
func (t Thread) FwdRequester() protocol.NodeID { return t.e().fwdRequester }

// SetFwdRequester sets the forwarded requester.
func (t Thread) SetFwdRequester(n protocol.NodeID) { t.e().fwdRequester = n }

// InvAckReceiver returns the node that collects the invalidation acks.
func (t Thread) InvAckReceiver() protocol.NodeID { return t.e().invAckReceiver }

// SetInvAckReceiver sets the node that collects the invalidation acks.
func (t Thread) SetInvAckReceiver(n protocol.NodeID) {
	t.e().invAckReceiver = n
}

// TempReg returns the scratch node register.
func (t Thread) TempReg() protocol.NodeID { return t.e().tempReg }

// SetTempReg sets the scratch node register.
func (t Thread) SetTempReg(n protocol.NodeID) { t.e().tempReg = n }

// InvCount returns the number of invalidation acks expected.
func (t Thread) InvCount() int { return t.e().invCount }

// SetInvCount sets the number of invalidation acks expected.
func (t Thread) SetInvCount(n int) { t.e().invCount = n }

// InvReceived returns the number of invalidation acks received.
func (t Thread) InvReceived() int { return t.e().invReceived }

// SetInvReceived sets the number of invalidation acks received.
func (t Thread) SetInvReceived(n int) { t.e().invReceived = n }

// InvAckForFwdExpected tells if an ack for a forwarded invalidation is due.
func (t Thread) InvAckForFwdExpected() bool { return t.e().invAckForFwdExpected }

// SetInvAckForFwdExpected records whether a forwarded invalidation ack is due.
func (t Thread) SetInvAckForFwdExpected(b bool) {
	t.e().invAckForFwdExpected = b
}

// DowngradeAckExpected tells if the CPU owes a downgrade ack.
func (t Thread) DowngradeAckExpected() bool { return t.e().downgradeAckExpected }

// SetDowngradeAckExpected records whether a downgrade ack is due.
func (t Thread) SetDowngradeAckExpected(b bool) {
	t.e().downgradeAckExpected = b
}

// RequestReplyToRacer tells if the reply must also go to the racer.
func (t Thread) RequestReplyToRacer() bool { return t.e().requestReplyToRacer }

// SetRequestReplyToRacer records whether the racer gets the reply.
func (t Thread) SetRequestReplyToRacer(b bool) {
	t.e().requestReplyToRacer = b
}

// FwdReqOrStaleAckExpected tells if a forwarded request or a stale ack is
// due.
func (t Thread) FwdReqOrStaleAckExpected() bool {
	return t.e().fwdReqOrStaleAckExpected
}

// SetFwdReqOrStaleAckExpected records whether a forwarded request or a
// stale ack is due.
func (t Thread) SetFwdReqOrStaleAckExpected(b bool) {
	t.e().fwdReqOrStaleAckExpected = b
}

// WritebackAckExpected tells if the home owes a writeback ack.
func (t Thread) WritebackAckExpected() bool { return t.e().writebackAckExpected }

// SetWritebackAckExpected records whether a writeback ack is due.
func (t Thread) SetWritebackAckExpected(b bool) {
	t.e().writebackAckExpected = b
}

// AnyInvalidations tells if any invalidation was sent.
func (t Thread) AnyInvalidations() bool { return t.e().anyInvalidations }

// SetAnyInvalidations records whether any invalidation was sent.
func (t Thread) SetAnyInvalidations(b bool) { t.e().anyInvalidations = b }

// IsPrefetch tells if the transaction is a prefetch.
func (t Thread) IsPrefetch() bool { return t.e().isPrefetch }

// SetPrefetch marks the transaction as a prefetch.
func (t Thread) SetPrefetch(b bool) { t.e().isPrefetch = b }

// DirState returns the working directory state.
func (t Thread) DirState() protocol.DirState { return t.e().dirState }

// SetDirState sets the working directory state.
func (t Thread) SetDirState(s protocol.DirState) { t.e().dirState = s }

// Owner returns the working owner.
func (t Thread) Owner() protocol.NodeID { return t.e().owner }

// SetOwner sets the working owner.
func (t Thread) SetOwner(n protocol.NodeID) { t.e().owner = n }

// Sharers returns the working sharer set.
func (t Thread) Sharers() protocol.SharerSet { return t.e().sharers }

// IsSharer tells if n is in the working sharer set.
func (t Thread) IsSharer(n protocol.NodeID) bool { return t.e().sharers.Has(n) }

// IsOnlySharer tells if n is the only node in the working sharer set.
func (t Thread) IsOnlySharer(n protocol.NodeID) bool {
	return t.e().sharers.IsOnly(n)
}

// AddSharer adds n to the working sharer set.
func (t Thread) AddSharer(n protocol.NodeID) {
	e := t.e()
	e.sharers = e.sharers.With(n)
}

// ClearSharer removes n from the working sharer set.
func (t Thread) ClearSharer(n protocol.NodeID) {
	e := t.e()
	e.sharers = e.sharers.Without(n)
}

// ClearSharers empties the working sharer set.
func (t Thread) ClearSharers() {
	t.e().sharers = 0
}

// DirEntry returns the thread's copy of the directory entry, or nil.
func (t Thread) DirEntry() *protocol.DirEntry {
	return t.e().dirEntry
}

// LoadDirEntry stores a private copy of the directory entry and loads the
// working state, owner, and sharers from it.
func (t Thread) LoadDirEntry(d *protocol.DirEntry) {
	e := t.e()
	e.dirEntry = d.Clone()
	e.dirState = d.State

	if d.State == protocol.DirModified {
		e.owner = d.Owner
		return
	}

	e.sharers = d.Sharers
}

// WasSharer tells if n has ever shared the line.
func (t Thread) WasSharer(n protocol.NodeID) bool {
	d := t.e().dirEntry
	return d != nil && d.PastSharers.Has(n)
}

// WasNoOtherSharer tells if no node other than n has ever shared the line.
func (t Thread) WasNoOtherSharer(n protocol.NodeID) bool {
	d := t.e().dirEntry
	if d == nil {
		return true
	}

	if !n.Valid() {
		return d.PastSharers.IsEmpty()
	}

	return d.PastSharers.Without(n).IsEmpty()
}

// WasModified tells if the line has ever been modified.
func (t Thread) WasModified() bool {
	e := t.e()
	return e.dirState == protocol.DirModified ||
		(e.dirEntry != nil && e.dirEntry.WasModified)
}

// CommitDirEntry writes the working state back into the thread's directory
// entry and returns it.
func (t Thread) CommitDirEntry() *protocol.DirEntry {
	e := t.e()
	if e.dirEntry == nil {
		e.dirEntry = protocol.NewDirEntry()
	}

	d := e.dirEntry
	wasInvalid := d.State == protocol.DirInvalid
	d.State = e.dirState

	switch e.dirState {
	case protocol.DirInvalid:
		if !wasInvalid {
			d.MarkModified()
		}
	case protocol.DirModified:
		d.SetOwner(e.owner)
		d.MarkModified()
	default:
		d.SetSharers(e.sharers)
	}

	return d
}

// Packet returns the last packet delivered.
func (t Thread) Packet() *protocol.Packet { return t.e().packet }

// SetPacket sets the last packet delivered.
func (t Thread) SetPacket(p *protocol.Packet) { t.e().packet = p }

// Tracker returns the transaction tracker, or nil.
func (t Thread) Tracker() *protocol.Tracker { return t.e().tracker }

// SetTracker sets the transaction tracker.
func (t Thread) SetTracker(tr *protocol.Tracker) { t.e().tracker = tr }

// SetDelayCause records why the transaction is delayed, if it is tracked.
func (t Thread) SetDelayCause(component string, cause protocol.DelayCause) {
	if tr := t.e().tracker; tr != nil {
		tr.SetDelayCause(component, cause)
	}
}

// CreationTime returns when the thread was created.
func (t Thread) CreationTime() sim.VTimeInCycle { return t.e().creationTime }

// StartTime returns when the thread started running.
func (t Thread) StartTime() sim.VTimeInCycle { return t.e().startTime }

// UopCount returns the number of instructions executed.
func (t Thread) UopCount() int { return t.e().uopCount }

// IncrUopCount counts an executed instruction.
func (t Thread) IncrUopCount() { t.e().uopCount++ }

// CPI returns the cycles per instruction.
func (t Thread) CPI() int { return t.e().cpi }

// SetCPI sets the cycles per instruction.
func (t Thread) SetCPI(cpi int) { t.e().cpi = cpi }

// StallCycles returns the remaining stall before the next instruction.
func (t Thread) StallCycles() int { return t.e().stallCycles }

// ResetStallCycles sets the stall for one instruction.
func (t Thread) ResetStallCycles() { t.e().stallCycles = t.e().cpi - 1 }

// DecStallCycles consumes one stall cycle.
func (t Thread) DecStallCycles() { t.e().stallCycles-- }
