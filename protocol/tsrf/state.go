// Package tsrf implements the Transaction State Register File: a fixed pool
// of per-transaction records and the thread handles that view them.
package tsrf

import "fmt"

// State governs whether a thread can be scheduled.
type State int

// Thread states.
const (
	NoThread State = iota
	Waiting
	SuspendedForLock
	SuspendedForDir
	Runnable
	Complete
	Blocked
)

var stateNames = [...]string{
	"NoThread",
	"Waiting",
	"SuspendedForLock",
	"SuspendedForDir",
	"Runnable",
	"Complete",
	"Blocked",
}

func (s State) String() string {
	if s < NoThread || s > Blocked {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

var legalTransitions = map[State][]State{
	NoThread:         {Runnable, SuspendedForLock, Blocked},
	Runnable:         {Waiting, Complete},
	Waiting:          {Runnable},
	SuspendedForLock: {SuspendedForDir, Complete},
	SuspendedForDir:  {Runnable},
	Blocked:          {Runnable, SuspendedForLock, Complete},
}

func canTransit(from, to State) bool {
	for _, s := range legalTransitions[from] {
		if s == to {
			return true
		}
	}

	return false
}

// DispatchPhase tracks a two-level reply dispatch. A reply whose type needs
// a second decode stage moves the thread to DispatchLevel2Pending; the
// second-level receive resolves it.
type DispatchPhase int

// Dispatch phases.
const (
	DispatchNone DispatchPhase = iota
	DispatchLevel2Pending
)

func (p DispatchPhase) String() string {
	if p == DispatchLevel2Pending {
		return "Level2Pending"
	}

	return "None"
}
