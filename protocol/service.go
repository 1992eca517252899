package protocol

import "github.com/sarchlab/protoengine/sim"

// CPUOp is an operation a protocol engine asks the local CPU to perform.
type CPUOp int

// CPU operations.
const (
	CPUInvalidate CPUOp = iota
	CPUDowngrade
	CPUMissReply
	CPUMissWritableReply
	CPUUpgradeReply
	CPUPrefetchReadReply
)

func (op CPUOp) String() string {
	switch op {
	case CPUInvalidate:
		return "Invalidate"
	case CPUDowngrade:
		return "Downgrade"
	case CPUMissReply:
		return "MissReply"
	case CPUMissWritableReply:
		return "MissWritableReply"
	case CPUUpgradeReply:
		return "UpgradeReply"
	case CPUPrefetchReadReply:
		return "PrefetchReadReply"
	}

	return "UnknownCPUOp"
}

// LockOp is an operation on a directory lock.
type LockOp int

// Lock operations.
const (
	Lock LockOp = iota
	Unlock
	LockSquash
)

func (op LockOp) String() string {
	switch op {
	case Lock:
		return "Lock"
	case Unlock:
		return "Unlock"
	case LockSquash:
		return "LockSquash"
	}

	return "UnknownLockOp"
}

// MemOp is a read or a write of memory-side state.
type MemOp int

// Memory operations.
const (
	MemRead MemOp = iota
	MemWrite
)

func (op MemOp) String() string {
	if op == MemWrite {
		return "Write"
	}

	return "Read"
}

// MemDest selects the memory-side structure a MemOp targets.
type MemDest int

// Memory destinations. Engines only ever address the directory.
const (
	DestDirectory MemDest = iota
)

// PredictorEvent classifies an access for sharing predictors.
type PredictorEvent int

// Predictor events.
const (
	PredictFlush PredictorEvent = iota
	PredictReadPredicted
	PredictReadNonPredicted
	PredictWrite
)

func (e PredictorEvent) String() string {
	switch e {
	case PredictFlush:
		return "Flush"
	case PredictReadPredicted:
		return "ReadPredicted"
	case PredictReadNonPredicted:
		return "ReadNonPredicted"
	case PredictWrite:
		return "Write"
	}

	return "UnknownPredictorEvent"
}

// A DirectoryResponse is a reply from the directory. A response without an
// entry means that the lock on the address has been acquired.
type DirectoryResponse struct {
	Address Address
	Entry   *DirEntry
}

// IsLockAcquired returns true if the response grants a lock.
func (r DirectoryResponse) IsLockAcquired() bool {
	return r.Entry == nil
}

// Topology answers questions about nodes and address homes.
type Topology interface {
	NumNodes() int
	MyNodeID() NodeID
	NodeForAddress(addr Address) NodeID
	IsAddressLocal(addr Address) bool
}

// ServiceProvider is everything a protocol engine needs from its node. All
// the outbound operations only queue work and never block.
type ServiceProvider interface {
	sim.TimeTeller
	Topology

	// Send queues a message to the network. The provider fills in the
	// source, the respondent, and the virtual channel.
	Send(pkt *Packet)

	// CPUOp queues an operation for the local CPU.
	CPUOp(op CPUOp, addr Address, anyInv bool, tracker *Tracker)

	// LockOp queues a directory lock operation.
	LockOp(op LockOp, addr Address)

	// MemOp queues a directory read or write. Reads pass a nil entry.
	MemOp(op MemOp, dest MemDest, addr Address, entry *DirEntry)

	HasDirectoryResponse() bool
	DequeueDirectoryResponse() DirectoryResponse

	// NotifyPredictor reports an access classification.
	NotifyPredictor(
		ev PredictorEvent,
		addr Address,
		node NodeID,
		tracker *Tracker,
	)

	// CPI returns the number of cycles each micro-op takes.
	CPI() int
}
