package protocol

import (
	"fmt"

	"github.com/sarchlab/protoengine/sim"
)

// LineSize is the number of bytes a data-carrying message moves.
const LineSize = 64

// A Packet is a protocol message as seen by an engine. A packet belongs to
// at most one queue or one thread at a time.
type Packet struct {
	ID         string
	Address    Address
	Type       MessageType
	VC         VC
	Src        NodeID
	Dest       NodeID
	Requester  NodeID
	Respondent NodeID
	InvCount   int
	AnyInv     bool
	Prefetch   bool

	// DirEntry is set on local requests that carry a directory snapshot.
	DirEntry *DirEntry

	// Tracker follows the transaction across components.
	Tracker *Tracker

	// EnqueuedAt is stamped every time the packet enters an input queue.
	EnqueuedAt sim.VTimeInCycle
}

// NewPacket creates a packet of the given type, placed on the virtual
// channel the type travels on.
func NewPacket(t MessageType, addr Address) *Packet {
	return &Packet{
		ID:         sim.GetIDGenerator().Generate(),
		Address:    addr,
		Type:       t,
		VC:         t.VC(),
		Src:        NoNode,
		Dest:       NoNode,
		Requester:  NoNode,
		Respondent: NoNode,
	}
}

// IsLocal returns true if the packet comes from the local CPU.
func (p *Packet) IsLocal() bool {
	return p.Type.IsLocal()
}

// PayloadBytes returns the number of data bytes the packet carries.
func (p *Packet) PayloadBytes() int {
	if p.Type.CarriesData() {
		return LineSize
	}

	return 0
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s[%s] %s %s->%s req=%s",
		p.Type, p.ID, p.Address, p.Src, p.Dest, p.Requester)
}
