// Package remote implements the Remote Engine instruction set, the engine
// that tracks the requests a node has outstanding at remote homes.
//
// Some replies share one first-level receive slot, RXDeferredJump. A thread
// receiving one of them is dispatched twice: the first-level receive jumps
// to the shared slot and records a second-level offset, and the
// OpReceiveDeferredJump instruction found there applies it.
package remote

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
)

// Magic identifies Remote Engine microcode files.
const Magic = 6477

// Opcodes.
const (
	OpSend                = 0
	OpReceive             = 1
	OpReceiveDeferredJump = 2
	OpTest                = 3
	OpSet                 = 4
	OpArith               = 5
	OpCPUOp               = 6
	OpRefuse              = 8
	OpSendRacer           = 9
	OpSetRacer            = 10
	OpNop                 = 15
)

// Entry points.
const (
	EPHalt                  = 0
	EPLocalRead             = 1
	EPLocalWriteAccess      = 2
	EPLocalUpgradeAccess    = 3
	EPLocalDropHint         = 4
	EPLocalEvict            = 5
	EPLocalFlush            = 6
	EPLocalPrefetchRead     = 7
	EPLocalInvalidationReq  = 8
	EPRemoteInvalidationReq = 9
	EPForwardedReadReq      = 10
	EPForwardedWriteReq     = 11
	EPRecallReadReq         = 12
	EPRecallWriteReq        = 13
	EPReadAck               = 14
	EPWriteAck              = 15
	EPUpgradeAck            = 16
	EPWritebackAck          = 17
	EPWritebackStaleRdAck   = 18
	EPWritebackStaleWrAck   = 19
	EPFlushAck              = 20
	EPRemoteInvalidationAck = 21
	EPReadFwd               = 22
	EPWriteFwd              = 23
	EPError                 = 31

	numEntryPoints = 32
)

// Codes of the messages sent with OpSend and OpSendRacer. The cache to
// cache messages share their codes with the receive table.
const (
	TXReadReq               = 0
	TXWriteReq              = 1
	TXUpgradeReq            = 2
	TXFlushReq              = 3
	TXRemoteInvalidationAck = 4
	TXReadFwd               = 5
	TXWriteFwd              = 6
	TXWritebackReq          = 7
	TXForwardedWriteAck     = 8
	TXForwardedReadAck      = 9
	TXRecallReadAck         = 10
	TXRecallWriteAck        = 11
	TXLocalInvalidationAck  = 12
	TXError                 = 15
)

// Offsets a reply adds to the PC of a waiting thread.
const (
	RXReadAck               = 0
	RXWriteAck              = 1
	RXUpgradeAck            = 2
	RXWritebackAck          = 3
	RXRemoteInvalidationAck = 4
	RXReadFwd               = 5
	RXWriteFwd              = 6
	RXFlushAck              = 7
	RXLocalInvalidationReq  = 8
	RXRemoteInvalidationReq = 9
	RXDeferredJump          = 10
	RXInvAck                = 11
	RXInvUpdateAck          = 12
	RXDowngradeAck          = 13
	RXDowngradeUpdateAck    = 14
	RXError                 = 15

	// ReplyTableSize is the number of slots of a receive dispatch table.
	ReplyTableSize = 16
)

// Second-level offsets of the messages dispatched through RXDeferredJump.
const (
	DJWritebackStaleRdAck = 0
	DJWritebackStaleWrAck = 1
	DJForwardedReadReq    = 2
	DJForwardedWriteReq   = 3
	DJRecallReadReq       = 4
	DJRecallWriteReq      = 5
	DJError               = 15
)

// Destination selects the receiver of OpSend.
type Destination uint32

// Destinations.
const (
	ToRequester Destination = iota
	ToDirectory
)

// RacerDestination selects the receiver of OpSendRacer.
type RacerDestination uint32

// Racer destinations.
const (
	ToInvAckReceiver RacerDestination = iota
	ToFwdRequester
	ToRacer
)

// Condition selects what a test branches on. Flag conditions skip one
// instruction when set. TestInvReceived and TestInvAckReceiver jump by the
// value of the register.
type Condition uint32

// Conditions.
const (
	TestInvCount                 Condition = 0
	TestInvReceived              Condition = 1
	TestInvAckReceiver           Condition = 2
	TestInvAckForFwdExpected     Condition = 3
	TestDowngradeAckExpected     Condition = 4
	TestRequestReplyToRacer      Condition = 5
	TestFwdReqOrStaleAckExpected Condition = 6
	TestFwdRequester             Condition = 7
	TestWritebackAckExpected     Condition = 8
	TestAnyInvalidations         Condition = 9
	TestPrefetch                 Condition = 10
)

// Node selects one of the nodes known to a transaction.
type Node uint32

// Nodes.
const (
	NodeRequester Node = iota
	NodeOwner
	NodeDirectory
	NodeRespondent
	NodeRacer
)

// InvReceived records which invalidation hit a transaction.
const (
	ReceivedNoInval      = 0
	ReceivedLocalInval   = 1
	ReceivedRemoteInval  = 2
	ReceivedInvalHandled = 3
)

// RacerFlag selects a register of OpSetRacer.
type RacerFlag uint32

// Racer flags.
const (
	FlagInvAckForFwdExpected     RacerFlag = 0
	FlagDowngradeAckExpected     RacerFlag = 1
	FlagRequestReplyToRacer      RacerFlag = 2
	FlagFwdReqOrStaleAckExpected RacerFlag = 3
	FlagFwdRequester             RacerFlag = 4
	FlagWritebackAckExpected     RacerFlag = 5
)

// ArithOp is an operation of OpArith.
type ArithOp uint32

// Arithmetic operations.
const (
	ArithOr ArithOp = iota
	ArithAdd
	ArithSub
)

// Operand is an input of OpArith.
type Operand uint32

// Operands.
const (
	OperandInvCount Operand = iota
	OperandMsgInvCount
	OperandAnyInvalidations
	OperandMsgAnyInvalidations
)

// ArithDest is the register OpArith writes.
type ArithDest uint32

// Arithmetic destinations.
const (
	ArithToInvCount ArithDest = iota
	ArithToAnyInvalidations
)

const (
	setInvCount       = 0
	setInvReceived    = 1
	setInvAckReceiver = 2
	setPrefetch       = 3

	countClear     = 0
	countDecrement = 2
	countIncrement = 3
)

func word(op int, args uint32) microcode.Word {
	return microcode.Word{Op: op, Args: args}
}

// Send sends a message to the requester or the home directory.
func Send(tx uint32, dest Destination) microcode.Word {
	return word(OpSend, tx<<4|uint32(dest)<<10)
}

// SendRacer sends a message to a node learned during a race.
func SendRacer(tx uint32, dest RacerDestination) microcode.Word {
	return word(OpSendRacer, tx<<4|uint32(dest)<<10)
}

// Receive waits for a reply. The next address of the instruction is the
// base of the reply table.
func Receive() microcode.Word {
	return word(OpReceive, 0)
}

// ReceiveDeferredJump applies the second-level offset of the last reply.
// The next address of the instruction is the base of the second-level
// table.
func ReceiveDeferredJump() microcode.Word {
	return word(OpReceiveDeferredJump, 0)
}

// Test branches on a condition.
func Test(c Condition) microcode.Word {
	return word(OpTest, uint32(c)<<4)
}

func set(dest, typ, val uint32, bit bool) microcode.Word {
	args := dest<<4 | typ<<6 | val<<8
	if bit {
		args |= 1 << 11
	}

	return word(OpSet, args)
}

// ClearInvCount clears the invalidation count.
func ClearInvCount() microcode.Word {
	return set(setInvCount, countClear, 0, false)
}

// DecInvCount decrements the invalidation count.
func DecInvCount() microcode.Word {
	return set(setInvCount, countDecrement, 0, false)
}

// IncInvCount increments the invalidation count.
func IncInvCount() microcode.Word {
	return set(setInvCount, countIncrement, 0, false)
}

// SetInvReceived records which invalidation hit the transaction.
func SetInvReceived(v uint32) microcode.Word {
	return set(setInvReceived, 0, v, false)
}

// SetInvAckReceiver records where invalidation acks go.
func SetInvAckReceiver(n Node) microcode.Word {
	return set(setInvAckReceiver, 0, uint32(n), false)
}

// SetPrefetch sets the prefetch flag.
func SetPrefetch(v bool) microcode.Word {
	return set(setPrefetch, 0, 0, v)
}

// SetRacerFlag sets a race flag.
func SetRacerFlag(f RacerFlag, v bool) microcode.Word {
	var val uint32
	if v {
		val = 1
	}

	return word(OpSetRacer, uint32(f)<<4|val<<9)
}

// SetFwdRequester records the node a forwarded request came for.
func SetFwdRequester(n Node) microcode.Word {
	return word(OpSetRacer, uint32(FlagFwdRequester)<<4|uint32(n)<<9)
}

// Arith computes left op right into dest.
func Arith(op ArithOp, left, right Operand, dest ArithDest) microcode.Word {
	return word(OpArith,
		uint32(op)<<4|uint32(left)<<6|uint32(right)<<8|uint32(dest)<<10)
}

// CPU issues an operation to the local CPU.
func CPU(op protocol.CPUOp) microcode.Word {
	return word(OpCPUOp, microcode.EncodeCPUOp(op)<<4)
}

// Refuse gives the message back to the scheduler.
func Refuse() microcode.Word {
	return word(OpRefuse, 0)
}

// Nop does nothing.
func Nop() microcode.Word {
	return word(OpNop, 0)
}
