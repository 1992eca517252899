package remote

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

	// DeferredJumps counts the replies dispatched in two levels.
	DeferredJumps uint64

	// ProtocolErrors counts messages that the engine could not map.
	ProtocolErrors uint64
}

// Engine executes Remote Engine microcode.
type Engine struct {
	name      string
	service   protocol.ServiceProvider
	scheduler microcode.Scheduler

	Metrics Metrics
}

// NewEngine creates a Remote Engine executor.
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
		e.send(t, args)
	case OpSendRacer:
		e.sendRacer(t, args)
	case OpReceive:
		e.scheduler.WaitForPacket(t)
	case OpReceiveDeferredJump:
		t.ResolveDeferredJump()
	case OpTest:
		e.test(t, args)
	case OpSet:
		e.set(t, args)
	case OpSetRacer:
		e.setRacer(t, args)
	case OpArith:
		e.arith(t, args)
	case OpCPUOp:
		e.cpuOp(t, args)
	case OpRefuse:
		e.scheduler.RefusePacket(t)
	case OpNop:
	default:
		log.Panicf("%s: illegal opcode %d at %d", e.name, op, pc)
	}
}

func (e *Engine) txMessageType(code uint32) protocol.MessageType {
	mt := txMessageType(code)
	if mt == protocol.ProtocolError {
		e.Metrics.ProtocolErrors++
	}

	return mt
}

func (e *Engine) send(t tsrf.Thread, args uint32) {
	mt := e.txMessageType((args >> 4) & 0xf)

	var node protocol.NodeID

	switch Destination((args >> 10) & 0x3) {
	case ToRequester:
		node = t.Requester()
	case ToDirectory:
		node = e.service.NodeForAddress(t.Address())
	default:
		log.Panicf("%s: illegal send destination %d", e.name, (args>>10)&0x3)
	}

	microcode.Send(e.service, t, mt, node)
}

func (e *Engine) sendRacer(t tsrf.Thread, args uint32) {
	mt := e.txMessageType((args >> 4) & 0xf)

	var node protocol.NodeID

	switch RacerDestination((args >> 10) & 0x3) {
	case ToInvAckReceiver:
		node = t.InvAckReceiver()
	case ToFwdRequester:
		node = t.FwdRequester()
	case ToRacer:
		node = t.Racer()
	default:
		log.Panicf("%s: illegal racer destination %d", e.name, (args>>10)&0x3)
	}

	microcode.Send(e.service, t, mt, node)
}

func jumpIf(t tsrf.Thread, cond bool) {
	if cond {
		t.RelativeJump(1)
	}
}

func (e *Engine) test(t tsrf.Thread, args uint32) {
	switch c := Condition((args >> 4) & 0xf); c {
	case TestInvCount:
		jumpIf(t, t.InvCount() != 0)
	case TestInvReceived:
		t.RelativeJump(t.InvReceived())
	case TestInvAckReceiver:
		t.RelativeJump(int(t.InvAckReceiver()))
	case TestInvAckForFwdExpected:
		jumpIf(t, t.InvAckForFwdExpected())
	case TestDowngradeAckExpected:
		jumpIf(t, t.DowngradeAckExpected())
	case TestRequestReplyToRacer:
		jumpIf(t, t.RequestReplyToRacer())
	case TestFwdReqOrStaleAckExpected:
		jumpIf(t, t.FwdReqOrStaleAckExpected())
	case TestWritebackAckExpected:
		jumpIf(t, t.WritebackAckExpected())
	case TestAnyInvalidations:
		jumpIf(t, t.AnyInvalidations())
	case TestPrefetch:
		jumpIf(t, t.IsPrefetch())
	case TestFwdRequester:
		log.Panicf("%s: branching on the forwarded requester is not supported",
			e.name)
	default:
		log.Panicf("%s: illegal test %d", e.name, c)
	}
}

func (e *Engine) node(t tsrf.Thread, n Node) protocol.NodeID {
	switch n {
	case NodeRequester:
		return t.Requester()
	case NodeOwner:
		return t.Owner()
	case NodeDirectory:
		return e.service.NodeForAddress(t.Address())
	case NodeRespondent:
		return t.Respondent()
	case NodeRacer:
		return t.Racer()
	}

	log.Panicf("%s: illegal node selector %d", e.name, n)

	return protocol.NoNode
}

func (e *Engine) set(t tsrf.Thread, args uint32) {
	dest := (args >> 4) & 0x3
	typ := (args >> 6) & 0x3
	val := (args >> 8) & 0x7
	bit := (args>>11)&0x1 == 1

	if dest != setInvCount && typ != 0 {
		log.Panicf("%s: set of register %d only takes values", e.name, dest)
	}

	switch dest {
	case setInvCount:
		e.setInvCount(t, typ)
	case setInvReceived:
		if val > ReceivedInvalHandled {
			log.Panicf("%s: illegal invalidation received value %d",
				e.name, val)
		}

		t.SetInvReceived(int(val))
	case setInvAckReceiver:
		t.SetInvAckReceiver(e.node(t, Node(val)))
	case setPrefetch:
		t.SetPrefetch(bit)
	}
}

func (e *Engine) setInvCount(t tsrf.Thread, typ uint32) {
	switch typ {
	case countClear:
		t.SetInvCount(0)
	case countDecrement:
		if t.InvCount() <= 0 {
			log.Panicf("%s: decrementing invalidation count of %s", e.name, t)
		}

		t.SetInvCount(t.InvCount() - 1)
	case countIncrement:
		t.SetInvCount(t.InvCount() + 1)
	default:
		log.Panicf("%s: illegal invalidation count update %d", e.name, typ)
	}
}

func (e *Engine) setRacer(t tsrf.Thread, args uint32) {
	flag := RacerFlag((args >> 4) & 0x7)
	val := (args >> 9) & 0x7

	switch flag {
	case FlagInvAckForFwdExpected:
		t.SetInvAckForFwdExpected(val != 0)
	case FlagDowngradeAckExpected:
		t.SetDowngradeAckExpected(val != 0)
	case FlagRequestReplyToRacer:
		t.SetRequestReplyToRacer(val != 0)
	case FlagFwdReqOrStaleAckExpected:
		t.SetFwdReqOrStaleAckExpected(val != 0)
	case FlagFwdRequester:
		t.SetFwdRequester(e.node(t, Node(val)))
	case FlagWritebackAckExpected:
		t.SetWritebackAckExpected(val != 0)
	default:
		log.Panicf("%s: illegal racer flag %d", e.name, flag)
	}
}

func (e *Engine) operand(t tsrf.Thread, o Operand) int {
	switch o {
	case OperandInvCount:
		return t.InvCount()
	case OperandAnyInvalidations:
		return boolToInt(t.AnyInvalidations())
	}

	pkt := t.Packet()
	if pkt == nil {
		log.Panicf("%s: %s has no message to read", e.name, t)
	}

	if o == OperandMsgInvCount {
		return pkt.InvCount
	}

	return boolToInt(pkt.AnyInv)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

func (e *Engine) arith(t tsrf.Thread, args uint32) {
	left := e.operand(t, Operand((args>>6)&0x3))
	right := e.operand(t, Operand((args>>8)&0x3))

	var result int

	switch ArithOp((args >> 4) & 0x3) {
	case ArithOr:
		result = left | right
	case ArithAdd:
		result = left + right
	case ArithSub:
		result = left - right
	default:
		log.Panicf("%s: illegal arithmetic operation %d", e.name, (args>>4)&0x3)
	}

	switch ArithDest((args >> 10) & 0x3) {
	case ArithToInvCount:
		t.SetInvCount(result)
	case ArithToAnyInvalidations:
		t.SetAnyInvalidations(result != 0)
	default:
		log.Panicf("%s: illegal arithmetic destination %d",
			e.name, (args>>10)&0x3)
	}
}

func (e *Engine) cpuOp(t tsrf.Thread, args uint32) {
	op, ok := microcode.CPUOpCode((args >> 4) & 0xf)
	if !ok {
		log.Panicf("%s: illegal CPU operation %d", e.name, (args>>4)&0xf)
	}

	e.service.CPUOp(op, t.Address(), t.AnyInvalidations(), t.Tracker())
}

// DeliverReply moves a waiting thread to the handler of the reply. Replies
// that share the deferred slot also record their second-level offset.
func (e *Engine) DeliverReply(t tsrf.Thread, mt protocol.MessageType) {
	code := rxCode(mt)

	switch code {
	case RXError:
		e.Metrics.ProtocolErrors++
	case RXDeferredJump:
		e.Metrics.DeferredJumps++
		t.DeferJump(deferredCode(mt))
	}

	t.RelativeJump(code)
}
