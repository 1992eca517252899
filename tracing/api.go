package tracing

import (
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// NamedHookable represent something both have a name and can be hooked
type NamedHookable interface {
	sim.Named
	sim.Hookable
	InvokeHook(sim.HookCtx)
}

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &sim.HookPos{Name: "HookPosTaskStart"}
	HookPosTaskStep  = &sim.HookPos{Name: "HookPosTaskStep"}
	HookPosTaskEnd   = &sim.HookPos{Name: "HookPosTaskEnd"}
)

// Task kinds used by the protocol components.
const (
	KindTransaction = "transaction"
	KindThread      = "thread"
	KindMessage     = "msg"
)

// StartTask notifies the hooks that hook to the domain about the start of a
// task.
func StartTask(
	id string,
	parentID string,
	domain NamedHookable,
	kind string,
	what string,
	detail interface{},
) {
	if domain.NumHooks() == 0 {
		return
	}

	allRequiredFieldsMustBeNotEmpty(id, kind, what)
	domainMustHaveName(domain)

	task := Task{
		ID:       id,
		ParentID: parentID,
		Kind:     kind,
		What:     what,
		Location: domain.Name(),
		Detail:   detail,
	}
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskStart,
	})
}

func allRequiredFieldsMustBeNotEmpty(id, kind, what string) {
	if id == "" {
		panic("id must not be empty")
	}

	if kind == "" {
		panic("kind must not be empty")
	}

	if what == "" {
		panic("what must not be empty")
	}
}

func domainMustHaveName(domain NamedHookable) {
	if domain.Name() == "" {
		panic("domain must have a name")
	}
}

// AddTaskStep marks that a milestone has been reached when processing a task.
func AddTaskStep(
	id string,
	domain NamedHookable,
	what string,
) {
	if domain.NumHooks() == 0 {
		return
	}

	task := Task{
		ID:    id,
		Steps: []TaskStep{{What: what}},
	}
	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Item:   task,
		Pos:    HookPosTaskStep,
	})
}

// EndTask notifies the hooks about the end of a task.
func EndTask(
	id string,
	domain NamedHookable,
) {
	if domain.NumHooks() == 0 {
		return
	}

	domain.InvokeHook(sim.HookCtx{
		Domain: domain,
		Item:   Task{ID: id},
		Pos:    HookPosTaskEnd,
	})
}

// TraceTransactionStart starts the task of a CPU transaction. The tracker ID
// is the task ID, so that engine threads can name it as their parent.
func TraceTransactionStart(
	pkt *protocol.Packet,
	domain NamedHookable,
) {
	StartTask(pkt.Tracker.ID, "", domain, KindTransaction,
		pkt.Type.String(), pkt)
}

// TraceTransactionEnd ends the task of a CPU transaction.
func TraceTransactionEnd(
	tr *protocol.Tracker,
	domain NamedHookable,
) {
	EndTask(tr.ID, domain)
}

// MsgTaskID returns the ID of the task that follows a packet through the
// network.
func MsgTaskID(pkt *protocol.Packet) string {
	return pkt.ID + "_msg"
}

// TraceMsgSend starts the task of a packet entering the network. The
// sender calls it.
func TraceMsgSend(
	pkt *protocol.Packet,
	domain NamedHookable,
) {
	parentID := ""
	if pkt.Tracker != nil {
		parentID = pkt.Tracker.ID
	}

	StartTask(MsgTaskID(pkt), parentID, domain, KindMessage,
		pkt.Type.String(), pkt)
}

// TraceMsgReceive ends the task of a packet leaving the network. The
// receiver calls it.
func TraceMsgReceive(
	pkt *protocol.Packet,
	domain NamedHookable,
) {
	EndTask(MsgTaskID(pkt), domain)
}
