package protocol

import "fmt"

// MessageType enumerates the messages exchanged by protocol engines, CPUs,
// and directories.
type MessageType int

// Cache to directory requests.
const (
	ReadReq MessageType = iota
	WriteReq
	UpgradeReq
	FlushReq
	WritebackReq

	// Directory to cache requests.
	LocalInvalidationReq
	RemoteInvalidationReq
	ForwardedReadReq
	ForwardedWriteReq
	RecallReadReq
	RecallWriteReq

	// Cache to directory replies.
	ForwardedWriteAck
	ForwardedReadAck
	RecallReadAck
	RecallWriteAck
	LocalInvalidationAck

	// Directory to cache replies.
	ReadAck
	WriteAck
	UpgradeAck
	WritebackAck
	WritebackStaleRdAck
	WritebackStaleWrAck
	FlushAck

	// Cache to cache replies.
	RemoteInvalidationAck
	ReadFwd
	WriteFwd

	// Requests from the local CPU.
	LocalRead
	LocalWriteAccess
	LocalUpgradeAccess
	LocalFlush
	LocalDropHint
	LocalEvict
	LocalPrefetchRead

	// Replies from the local CPU to a CPU operation.
	InvAck
	InvUpdateAck
	DowngradeAck
	DowngradeUpdateAck

	ProtocolError

	numMessageTypes
)

var messageTypeNames = [...]string{
	"ReadReq",
	"WriteReq",
	"UpgradeReq",
	"FlushReq",
	"WritebackReq",
	"LocalInvalidationReq",
	"RemoteInvalidationReq",
	"ForwardedReadReq",
	"ForwardedWriteReq",
	"RecallReadReq",
	"RecallWriteReq",
	"ForwardedWriteAck",
	"ForwardedReadAck",
	"RecallReadAck",
	"RecallWriteAck",
	"LocalInvalidationAck",
	"ReadAck",
	"WriteAck",
	"UpgradeAck",
	"WritebackAck",
	"WritebackStaleRdAck",
	"WritebackStaleWrAck",
	"FlushAck",
	"RemoteInvalidationAck",
	"ReadFwd",
	"WriteFwd",
	"LocalRead",
	"LocalWriteAccess",
	"LocalUpgradeAccess",
	"LocalFlush",
	"LocalDropHint",
	"LocalEvict",
	"LocalPrefetchRead",
	"InvAck",
	"InvUpdateAck",
	"DowngradeAck",
	"DowngradeUpdateAck",
	"ProtocolError",
}

func (t MessageType) String() string {
	if t < 0 || t >= numMessageTypes {
		return fmt.Sprintf("MessageType(%d)", int(t))
	}

	return messageTypeNames[t]
}

// ParseMessageType finds the message type by its name.
func ParseMessageType(name string) (MessageType, error) {
	for i, n := range messageTypeNames {
		if n == name {
			return MessageType(i), nil
		}
	}

	return ProtocolError, fmt.Errorf("unknown message type %q", name)
}

// IsLocal returns true for messages that come from the local CPU.
func (t MessageType) IsLocal() bool {
	return t >= LocalRead && t <= DowngradeUpdateAck
}

// IsCPURequest returns true for requests issued by the local CPU.
func (t MessageType) IsCPURequest() bool {
	return t >= LocalRead && t <= LocalPrefetchRead
}

// IsRequest returns true if the message may start a new transaction.
func (t MessageType) IsRequest() bool {
	switch t {
	case ReadReq, WriteReq, UpgradeReq, FlushReq, WritebackReq,
		LocalInvalidationReq, RemoteInvalidationReq,
		ForwardedReadReq, ForwardedWriteReq,
		RecallReadReq, RecallWriteReq:
		return true
	}

	return t.IsCPURequest()
}

// IsPotentialReply returns true if the message can be consumed by a thread
// waiting for a reply. Flush and writeback requests, as well as requests
// from the directory to a cache, are both requests and potential replies:
// they can race with, and answer, a transaction already in flight.
func (t MessageType) IsPotentialReply() bool {
	switch t {
	case ReadReq, WriteReq, UpgradeReq:
		return false
	}

	return !t.IsCPURequest()
}

// IsForHome returns true for network messages that the home node of the
// address handles. Every other network message goes to a cache.
func (t MessageType) IsForHome() bool {
	switch t {
	case ReadReq, WriteReq, UpgradeReq, FlushReq, WritebackReq,
		ForwardedReadAck, ForwardedWriteAck,
		RecallReadAck, RecallWriteAck,
		LocalInvalidationAck:
		return true
	}

	return false
}

// CarriesData returns true if the message moves a cache line.
func (t MessageType) CarriesData() bool {
	switch t {
	case FlushReq, WritebackReq,
		ForwardedReadAck, RecallReadAck, RecallWriteAck,
		ReadAck, WriteAck, ReadFwd, WriteFwd,
		InvUpdateAck, DowngradeUpdateAck:
		return true
	}

	return false
}

// VC returns the engine virtual channel a message travels on.
func (t MessageType) VC() VC {
	switch {
	case t.IsCPURequest():
		return LocalVC0
	case t.IsLocal():
		return LocalVC1
	}

	switch t {
	case ReadReq, WriteReq, UpgradeReq:
		return VC0
	case FlushReq, WritebackReq,
		LocalInvalidationReq, RemoteInvalidationReq,
		ForwardedReadReq, ForwardedWriteReq,
		RecallReadReq, RecallWriteReq,
		ReadAck, WriteAck, UpgradeAck, FlushAck:
		return VC1
	}

	return VC2
}
