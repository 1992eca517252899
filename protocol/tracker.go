package protocol

import (
	"fmt"

	"github.com/sarchlab/protoengine/sim"
)

// FillType classifies a miss by the history of the line.
type FillType int

// Fill types.
const (
	FillUnknown FillType = iota
	FillCold
	FillCoherence
	FillReplacement
)

func (t FillType) String() string {
	switch t {
	case FillCold:
		return "Cold"
	case FillCoherence:
		return "Coherence"
	case FillReplacement:
		return "Replacement"
	}

	return "Unknown"
}

// FillLevel tells where the data of a miss came from.
type FillLevel int

// Fill levels.
const (
	FillLevelUnknown FillLevel = iota
	FillLevelLocalMem
	FillLevelRemoteMem
)

func (l FillLevel) String() string {
	switch l {
	case FillLevelLocalMem:
		return "LocalMem"
	case FillLevelRemoteMem:
		return "RemoteMem"
	}

	return "Unknown"
}

// DelayCause names what a transaction is waiting on.
type DelayCause string

// Delay causes reported by the engines.
const (
	DelayInputQueue    DelayCause = "Input Q"
	DelayRequestTSRF   DelayCause = "Request TSRF"
	DelayWaitForLock   DelayCause = "Wait for Lock"
	DelayWaitForDir    DelayCause = "Wait for Dir"
	DelayBlocked       DelayCause = "Block on Conflict"
	DelayWaitToRun     DelayCause = "Wait to Run"
	DelayRun           DelayCause = "Run"
	DelayWaitForReply  DelayCause = "Wait for Reply"
	DelayStalledQueue  DelayCause = "Stall Queue"
	DelayNotInProtocol DelayCause = ""
)

// A Tracker follows one CPU transaction through the system for telemetry.
// Trackers never influence protocol decisions.
type Tracker struct {
	ID        string
	Address   Address
	Initiator NodeID
	Responder NodeID

	PreviousState    DirState
	HasPreviousState bool

	FillType               FillType
	FillLevel              FillLevel
	NetworkTrafficRequired bool

	// InPE is true while the transaction is inside a protocol engine.
	InPE bool

	DelayComponent string
	DelayCause     DelayCause

	StartTime sim.VTimeInCycle
	EndTime   sim.VTimeInCycle
}

// NewTracker creates a tracker for a transaction started by initiator.
func NewTracker(
	addr Address,
	initiator NodeID,
	now sim.VTimeInCycle,
) *Tracker {
	return &Tracker{
		ID:        sim.GetIDGenerator().Generate(),
		Address:   addr,
		Initiator: initiator,
		Responder: NoNode,
		StartTime: now,
	}
}

// SetPreviousState records the directory state seen by the home node.
func (t *Tracker) SetPreviousState(s DirState) {
	t.PreviousState = s
	t.HasPreviousState = true
}

// SetDelayCause records what the transaction is waiting on and where.
func (t *Tracker) SetDelayCause(component string, cause DelayCause) {
	t.DelayComponent = component
	t.DelayCause = cause
}

func (t *Tracker) String() string {
	return fmt.Sprintf("tracker[%s] %s init=%s resp=%s fill=%s",
		t.ID, t.Address, t.Initiator, t.Responder, t.FillType)
}
