// Package protocolengine puts together the parts of one protocol engine: the
// TSRF pool, the input queues, the thread scheduler, and the microcode
// emulator with a Home or a Remote executor.
package protocolengine

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/inputq"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/remote"
	"github.com/sarchlab/protoengine/protocol/scheduler"
	"github.com/sarchlab/protoengine/protocol/tsrf"
	"github.com/sarchlab/protoengine/sim"
)

// Role selects the executor of an engine.
type Role int

// Engine roles.
const (
	RoleHome Role = iota
	RoleRemote
)

func (r Role) String() string {
	if r == RoleRemote {
		return "Remote"
	}

	return "Home"
}

// Engine is one protocol engine of a node.
type Engine struct {
	name     string
	role     Role
	tsrfSize int

	checkInvariants bool

	Pool      *tsrf.Pool
	Queues    *inputq.Controller
	Scheduler *scheduler.Scheduler
	Emulator  *microcode.Emulator

	// Exactly one of the executors is set, according to the role.
	Home   *home.Engine
	Remote *remote.Engine
}

// Name returns the name of the engine.
func (e *Engine) Name() string {
	return e.name
}

// Role returns whether the engine is a Home or a Remote engine.
func (e *Engine) Role() Role {
	return e.role
}

// TSRFSize returns the number of general TSRF entries.
func (e *Engine) TSRFSize() int {
	return e.tsrfSize
}

// Enqueue places a packet in the input queue of its virtual channel.
func (e *Engine) Enqueue(pkt *protocol.Packet) {
	e.Queues.Enqueue(pkt)
}

// QueueSize returns the occupancy the node uses for flow control, which is
// the queue length plus one.
func (e *Engine) QueueSize(vc protocol.VC) int {
	return e.Queues.Size(vc)
}

// CanAccept tells if the node may move another packet into the queue of a
// virtual channel.
func (e *Engine) CanAccept(vc protocol.VC) bool {
	return e.QueueSize(vc) < e.tsrfSize+1
}

// Tick advances the engine by one cycle. The scheduler processes the input
// queues and the directory responses, then the active thread, if any, runs.
func (e *Engine) Tick() bool {
	progress := e.Scheduler.ProcessQueues()

	if e.checkInvariants {
		if err := e.Scheduler.CheckInvariants(); err != nil {
			log.Panic(err)
		}
	}

	if !e.Scheduler.Ready() {
		return progress
	}

	t := e.Scheduler.Activate()
	e.Emulator.RunThread(t)
	e.Scheduler.Reschedule(t)

	return true
}

// IsQuiesced returns true if no packet is queued and no thread is alive.
func (e *Engine) IsQuiesced() bool {
	return e.Queues.IsEmpty() && e.Scheduler.IsQuiesced()
}

// AcceptHook registers a hook with every part of the engine.
func (e *Engine) AcceptHook(hook sim.Hook) {
	e.Queues.AcceptHook(hook)
	e.Scheduler.AcceptHook(hook)
	e.Emulator.AcceptHook(hook)
}

// ProtocolErrors returns the number of messages the executor could not map.
func (e *Engine) ProtocolErrors() uint64 {
	if e.Home != nil {
		return e.Home.Metrics.ProtocolErrors
	}

	return e.Remote.Metrics.ProtocolErrors
}
