// Package home implements the Home Engine instruction set, the engine that
// runs the directory of the addresses homed at a node.
package home

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
)

// Magic identifies Home Engine microcode files.
const Magic = 6476

// Opcodes.
const (
	OpSend           = 0
	OpSendFwd        = 1
	OpReceive        = 2
	OpTest           = 3
	OpSet            = 4
	OpUnlock         = 5
	OpCPUOp          = 6
	OpWriteDirectory = 7
	OpInputQueueOp   = 8
	OpNop            = 15
)

// Entry points.
const (
	EPHalt                     = 0
	EPLocalRead                = 1
	EPLocalWriteAccessShared   = 2
	EPLocalWriteAccessModified = 3
	EPLocalUpgradeAccess       = 4
	EPLocalPrefetchRead        = 5
	EPReadReqInvalid           = 16
	EPReadReqShared            = 17
	EPReadReqModified          = 18
	EPWriteReqInvalid          = 19
	EPWriteReqShared           = 20
	EPWriteReqModified         = 21
	EPUpgradeReqInvalid        = 22
	EPUpgradeReqShared         = 23
	EPUpgradeReqModified       = 24
	EPFlushReq                 = 25
	EPWritebackReq             = 26
	EPError                    = 31

	numEntryPoints = 32
)

// Codes of the messages sent with OpSend.
const (
	TXReadAck      = 0
	TXWriteAck     = 1
	TXUpgradeAck   = 2
	TXWritebackAck = 3
	TXFlushAck     = 4
	TXError        = 7
)

// Codes of the messages sent with OpSendFwd.
const (
	FwdLocalInvalidationReq  = 0
	FwdRemoteInvalidationReq = 1
	FwdForwardedReadReq      = 2
	FwdForwardedWriteReq     = 3
	FwdRecallReadReq         = 4
	FwdRecallWriteReq        = 5
	FwdWritebackStaleRdAck   = 6
	FwdWritebackStaleWrAck   = 7
	FwdError                 = 15
)

// Offsets a reply adds to the PC of a waiting thread.
const (
	RXWritebackReq         = 0
	RXForwardedWriteAck    = 1
	RXForwardedReadAck     = 2
	RXRecallReadAck        = 3
	RXRecallWriteAck       = 4
	RXLocalInvalidationAck = 5
	RXFlushReq             = 6
	RXInvAck               = 7
	RXInvUpdateAck         = 8
	RXDowngradeAck         = 9
	RXDowngradeUpdateAck   = 10
	RXError                = 15

	// ReplyTableSize is the number of slots of a receive dispatch table.
	ReplyTableSize = 16
)

// Destination selects the receivers of a send.
type Destination uint32

// Destinations.
const (
	ToRequester Destination = iota
	ToOwner
	ToSharers
	ToRespondent
)

// Condition selects what a test branches on. A true condition skips one
// instruction of the two-slot table that follows the test.
type Condition uint32

// Conditions.
const (
	TestInvalidationsPending Condition = 0
	TestOwnerIsTempReg       Condition = 1
	TestRequesterIsSharer    Condition = 2
	TestPrefetch             Condition = 4
	TestConfigReg            Condition = 7
)

// Register selects the destination of a set.
type Register uint32

// Registers.
const (
	RegDirState Register = iota
	RegOwner
	RegSharers
	RegTempReg
	RegInvCount
	RegAnyInvalidations
	RegPrefetch
)

// Transfer is the kind of update a set performs.
type Transfer uint32

// Transfers.
const (
	TransferValue Transfer = iota
	TransferBit
	TransferDecrement
)

// Source selects the node a set reads.
type Source uint32

// Sources. SrcRespondent reads the home node of the address in single-bit
// transfers.
const (
	SrcRequester Source = iota
	SrcOwner
	SrcRespondent
	SrcTempReg
)

const (
	queueDequeue = 0
	queueRefuse  = 1

	bitValue = 0x800
)

func word(op int, args uint32) microcode.Word {
	return microcode.Word{Op: op, Args: args}
}

// Send sends a reply message.
func Send(tx uint32, dest Destination) microcode.Word {
	return word(OpSend, tx<<4|uint32(dest)<<10)
}

// SendFwd sends a forwarded request.
func SendFwd(fwd uint32, dest Destination) microcode.Word {
	return word(OpSendFwd, fwd<<4|uint32(dest)<<10)
}

// Receive waits for a reply. The next address of the instruction is the
// base of the reply table.
func Receive() microcode.Word {
	return word(OpReceive, 0)
}

// Test branches on a condition.
func Test(c Condition) microcode.Word {
	return word(OpTest, uint32(c)<<4)
}

func set(r Register, t Transfer, s Source, bit bool) microcode.Word {
	args := uint32(r)<<4 | uint32(t)<<7 | uint32(s)<<9
	if bit {
		args |= bitValue
	}

	return word(OpSet, args)
}

// SetDirState sets the directory state.
func SetDirState(s protocol.DirState) microcode.Word {
	return set(RegDirState, TransferValue, Source(s), false)
}

// SetOwner sets the owner.
func SetOwner(s Source) microcode.Word {
	return set(RegOwner, TransferValue, s, false)
}

// AddSharer adds a node to the sharers.
func AddSharer(s Source) microcode.Word {
	return set(RegSharers, TransferBit, s, true)
}

// RemoveSharer removes a node from the sharers.
func RemoveSharer(s Source) microcode.Word {
	return set(RegSharers, TransferBit, s, false)
}

// ClearSharers empties the sharers.
func ClearSharers() microcode.Word {
	return set(RegSharers, TransferValue, 0, false)
}

// SetTempReg loads the temporary register.
func SetTempReg(s Source) microcode.Word {
	return set(RegTempReg, TransferValue, s, false)
}

// ClearInvCount zeroes the invalidation count.
func ClearInvCount() microcode.Word {
	return set(RegInvCount, TransferValue, 0, false)
}

// DecInvCount decrements the invalidation count.
func DecInvCount() microcode.Word {
	return set(RegInvCount, TransferDecrement, 0, false)
}

// SetAnyInvalidations sets the any-invalidations flag.
func SetAnyInvalidations(v bool) microcode.Word {
	return set(RegAnyInvalidations, TransferValue, 0, v)
}

// SetPrefetch sets the prefetch flag.
func SetPrefetch(v bool) microcode.Word {
	return set(RegPrefetch, TransferValue, 0, v)
}

// Unlock releases the directory lock.
func Unlock() microcode.Word {
	return word(OpUnlock, 0)
}

// CPU issues an operation to the local CPU.
func CPU(op protocol.CPUOp) microcode.Word {
	return word(OpCPUOp, microcode.EncodeCPUOp(op)<<4)
}

// WriteDirectory commits the directory entry.
func WriteDirectory() microcode.Word {
	return word(OpWriteDirectory, 0)
}

// Dequeue accepts the request.
func Dequeue() microcode.Word {
	return word(OpInputQueueOp, queueDequeue<<4)
}

// Refuse gives the request back to the scheduler.
func Refuse() microcode.Word {
	return word(OpInputQueueOp, queueRefuse<<4)
}

// Nop does nothing.
func Nop() microcode.Word {
	return word(OpNop, 0)
}
