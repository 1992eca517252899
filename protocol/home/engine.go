package home

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

// Metrics counts what the engine did.
type Metrics struct {
	// EntryPoints counts the threads started at each entry point.
	EntryPoints [numEntryPoints]uint64

	// ProtocolErrors counts messages that the engine could not map.
	ProtocolErrors uint64
}

// Engine executes Home Engine microcode.
type Engine struct {
	name      string
	service   protocol.ServiceProvider
	scheduler microcode.Scheduler

	// ConfigReg is the value TestConfigReg branches on.
	ConfigReg bool

	Metrics Metrics
}

// NewEngine creates a Home Engine executor.
func NewEngine(name string, service protocol.ServiceProvider) *Engine {
	return &Engine{
		name:    name,
		service: service,
	}
}

// SetScheduler sets the scheduler that receives and refusals go through.
func (e *Engine) SetScheduler(s microcode.Scheduler) {
	e.scheduler = s
}

// Execute runs one instruction.
func (e *Engine) Execute(t tsrf.Thread, op int, args uint32, pc int) {
	switch op {
	case OpSend:
		e.send(t, args, false)
	case OpSendFwd:
		e.send(t, args, true)
	case OpReceive:
		e.scheduler.WaitForPacket(t)
	case OpTest:
		e.test(t, args)
	case OpSet:
		e.set(t, args)
	case OpUnlock:
		e.service.LockOp(protocol.Unlock, t.Address())
	case OpCPUOp:
		e.cpuOp(t, args)
	case OpWriteDirectory:
		entry := t.CommitDirEntry()
		e.service.MemOp(protocol.MemWrite, protocol.DestDirectory,
			t.Address(), entry.Clone())
	case OpInputQueueOp:
		e.inputQueueOp(t, args)
	case OpNop:
	default:
		log.Panicf("%s: illegal opcode %d at %d", e.name, op, pc)
	}
}

func (e *Engine) send(t tsrf.Thread, args uint32, fwd bool) {
	code := (args >> 4) & 0xf
	dest := Destination((args >> 10) & 0x3)

	mt := txMessageType(code, fwd)
	if mt == protocol.ProtocolError {
		e.Metrics.ProtocolErrors++
	}

	if tr := t.Tracker(); tr != nil {
		tr.NetworkTrafficRequired = true
		tr.FillLevel = protocol.FillLevelRemoteMem
	}

	if dest == ToSharers {
		e.sendToSharers(t, mt)
		return
	}

	var node protocol.NodeID

	switch dest {
	case ToRequester:
		node = t.Requester()
	case ToOwner:
		node = t.Owner()
	case ToRespondent:
		node = t.Respondent()
	}

	microcode.Send(e.service, t, mt, node)
}

func (e *Engine) sendToSharers(t tsrf.Thread, mt protocol.MessageType) {
	homeNode := e.service.NodeForAddress(t.Address())
	targets := make([]protocol.NodeID, 0, t.Sharers().Count())

	for _, n := range t.Sharers().Nodes() {
		if n != t.Requester() && n != homeNode {
			targets = append(targets, n)
		}
	}

	t.SetInvCount(len(targets))
	t.SetAnyInvalidations(len(targets) > 0 || t.IsSharer(homeNode))

	for _, n := range targets {
		microcode.Send(e.service, t, mt, n)
	}
}

func (e *Engine) test(t tsrf.Thread, args uint32) {
	var cond bool

	switch Condition((args >> 4) & 0x7) {
	case TestInvalidationsPending:
		cond = t.InvCount() != 0
	case TestOwnerIsTempReg:
		cond = t.Owner() == t.TempReg()
	case TestRequesterIsSharer:
		cond = t.IsSharer(t.Requester())
	case TestPrefetch:
		cond = t.IsPrefetch()
	case TestConfigReg:
		cond = e.ConfigReg
	default:
		log.Panicf("%s: illegal test %d", e.name, (args>>4)&0x7)
	}

	if cond {
		t.RelativeJump(1)
	}
}

func (e *Engine) source(t tsrf.Thread, s Source, tr Transfer) protocol.NodeID {
	switch s {
	case SrcOwner:
		return t.Owner()
	case SrcRespondent:
		if tr == TransferBit {
			return e.service.NodeForAddress(t.Address())
		}

		return t.Respondent()
	case SrcTempReg:
		return t.TempReg()
	}

	return t.Requester()
}

func (e *Engine) set(t tsrf.Thread, args uint32) {
	reg := Register((args >> 4) & 0x7)
	transfer := Transfer((args >> 7) & 0x3)
	src := Source((args >> 9) & 0x3)
	bit := args&bitValue != 0

	switch reg {
	case RegDirState:
		e.mustTransfer(transfer, TransferValue)

		if src > Source(protocol.DirModified) {
			log.Panicf("%s: illegal directory state %d", e.name, src)
		}

		t.SetDirState(protocol.DirState(src))
	case RegOwner:
		e.mustTransfer(transfer, TransferValue)
		t.SetOwner(e.source(t, src, transfer))
	case RegSharers:
		e.setSharers(t, transfer, src, bit)
	case RegTempReg:
		e.mustTransfer(transfer, TransferValue)
		t.SetTempReg(e.source(t, src, transfer))
	case RegInvCount:
		setInvCount(t, transfer)
	case RegAnyInvalidations:
		e.mustTransfer(transfer, TransferValue)
		t.SetAnyInvalidations(bit)
	case RegPrefetch:
		e.mustTransfer(transfer, TransferValue)
		t.SetPrefetch(bit)
	default:
		log.Panicf("%s: illegal set destination %d", e.name, reg)
	}
}

func (e *Engine) setSharers(
	t tsrf.Thread,
	transfer Transfer,
	src Source,
	bit bool,
) {
	switch transfer {
	case TransferBit:
		node := e.source(t, src, transfer)
		if bit {
			t.AddSharer(node)
		} else {
			t.ClearSharer(node)
		}
	case TransferValue:
		t.ClearSharers()
	default:
		log.Panicf("%s: illegal sharer transfer %d", e.name, transfer)
	}
}

func setInvCount(t tsrf.Thread, transfer Transfer) {
	switch transfer {
	case TransferValue:
		t.SetInvCount(0)
	case TransferDecrement:
		if t.InvCount() <= 0 {
			log.Panicf("decrementing invalidation count of %s", t)
		}

		t.SetInvCount(t.InvCount() - 1)
	default:
		log.Panicf("illegal invalidation count transfer %d", transfer)
	}
}

func (e *Engine) mustTransfer(got, want Transfer) {
	if got != want {
		log.Panicf("%s: transfer %d where %d is required", e.name, got, want)
	}
}

func (e *Engine) cpuOp(t tsrf.Thread, args uint32) {
	op, ok := microcode.CPUOpCode((args >> 4) & 0xf)
	if !ok {
		log.Panicf("%s: illegal CPU operation %d", e.name, (args>>4)&0xf)
	}

	e.service.CPUOp(op, t.Address(), t.AnyInvalidations(), t.Tracker())
}

func (e *Engine) inputQueueOp(t tsrf.Thread, args uint32) {
	switch (args >> 4) & 0x3 {
	case queueDequeue:
		e.notifyPredictor(t)
	case queueRefuse:
		e.scheduler.RefusePacket(t)
	default:
		log.Panicf("%s: illegal input queue operation", e.name)
	}
}

func (e *Engine) notifyPredictor(t tsrf.Thread) {
	if !e.service.IsAddressLocal(t.Address()) {
		return
	}

	me := e.service.MyNodeID()
	addr := t.Address()
	tracker := t.Tracker()

	switch t.Type() {
	case protocol.FlushReq:
		if pkt := t.Packet(); pkt != nil {
			tracker = pkt.Tracker
		}

		e.service.NotifyPredictor(protocol.PredictFlush, addr, t.Respondent(), tracker)
	case protocol.LocalFlush:
		e.service.NotifyPredictor(protocol.PredictFlush, addr, me, tracker)
	case protocol.ReadReq:
		ev := protocol.PredictReadNonPredicted
		if t.IsPrefetch() {
			ev = protocol.PredictReadPredicted
		}

		e.service.NotifyPredictor(ev, addr, t.Requester(), tracker)
	case protocol.LocalRead:
		e.service.NotifyPredictor(protocol.PredictReadNonPredicted, addr, me, tracker)
	case protocol.LocalPrefetchRead:
		e.service.NotifyPredictor(protocol.PredictReadPredicted, addr, me, tracker)
	case protocol.WriteReq, protocol.UpgradeReq:
		e.service.NotifyPredictor(protocol.PredictWrite, addr, t.Requester(), tracker)
	case protocol.LocalWriteAccess, protocol.LocalUpgradeAccess:
		e.service.NotifyPredictor(protocol.PredictWrite, addr, me, tracker)
	}
}

// DeliverReply moves a waiting thread to the handler of the reply.
func (e *Engine) DeliverReply(t tsrf.Thread, mt protocol.MessageType) {
	code := rxCode(mt)
	if code == RXError {
		e.Metrics.ProtocolErrors++
	}

	t.RelativeJump(code)
}
