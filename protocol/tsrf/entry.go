package tsrf

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// ThreadID identifies a thread for its whole life.
type ThreadID uint64

// entry is one Transaction State Register File record.
type entry struct {
	gen     uint64
	inUse   bool
	vacated bool

	id    ThreadID
	state State

	pc            int
	entryPC       int
	deferredJump  int
	dispatchPhase DispatchPhase

	address protocol.Address
	msgType protocol.MessageType
	vc      protocol.VC

	requester      protocol.NodeID
	respondent     protocol.NodeID
	racer          protocol.NodeID
	fwdRequester   protocol.NodeID
	invAckReceiver protocol.NodeID
	tempReg        protocol.NodeID

	invCount    int
	invReceived int

	invAckForFwdExpected     bool
	downgradeAckExpected     bool
	requestReplyToRacer      bool
	fwdReqOrStaleAckExpected bool
	writebackAckExpected     bool
	anyInvalidations         bool
	isPrefetch               bool

	dirEntry *protocol.DirEntry
	dirState protocol.DirState
	owner    protocol.NodeID
	sharers  protocol.SharerSet

	packet  *protocol.Packet
	tracker *protocol.Tracker

	creationTime sim.VTimeInCycle
	startTime    sim.VTimeInCycle
	uopCount     int
	blockedOn    ThreadID
	stallCycles  int
	cpi          int
}

// vacate resets every field and starts a new generation, which invalidates
// all the handles to the previous occupant.
func (e *entry) vacate() {
	gen, inUse := e.gen+1, e.inUse

	*e = entry{
		gen:            gen,
		inUse:          inUse,
		vacated:        true,
		msgType:        protocol.ProtocolError,
		vc:             protocol.VC0,
		requester:      protocol.NoNode,
		respondent:     protocol.NoNode,
		racer:          protocol.NoNode,
		fwdRequester:   protocol.NoNode,
		invAckReceiver: protocol.NoNode,
		owner:          protocol.NoNode,
	}
}
