package scheduler

import (
	"fmt"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
	"github.com/sarchlab/protoengine/tracing"
)

func (s *Scheduler) threadTaskID(t tsrf.Thread) string {
	return fmt.Sprintf("%s.T%d", s.name, t.ID())
}

// traceThreadStart starts the task of a thread. A thread serving a CPU
// transaction is a subtask of the transaction.
func (s *Scheduler) traceThreadStart(t tsrf.Thread, pkt *protocol.Packet) {
	if s.NumHooks() == 0 {
		return
	}

	parentID := ""
	if pkt.Tracker != nil {
		parentID = pkt.Tracker.ID
	}

	tracing.StartTask(s.threadTaskID(t), parentID, s,
		tracing.KindThread, pkt.Type.String(), pkt)
}

func (s *Scheduler) traceThreadStep(t tsrf.Thread, what string) {
	if s.NumHooks() == 0 {
		return
	}

	tracing.AddTaskStep(s.threadTaskID(t), s, what)
}

func (s *Scheduler) traceThreadEnd(t tsrf.Thread) {
	if s.NumHooks() == 0 {
		return
	}

	tracing.EndTask(s.threadTaskID(t), s)
}
