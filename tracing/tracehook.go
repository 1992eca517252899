package tracing

import (
	"log"

	"github.com/sarchlab/protoengine/sim"
)

// CollectTrace makes a tracer see the tasks of a domain, such as the
// transactions of a CPU or the threads of a scheduler. A tracer can be
// attached to a domain only once.
func CollectTrace(domain sim.Hookable, tracer Tracer) {
	for _, h := range domain.Hooks() {
		if th, ok := h.(*traceHook); ok && th.t == tracer {
			log.Panicf("tracer %T already collects from %T", tracer, domain)
		}
	}

	domain.AcceptHook(&traceHook{t: tracer})
}

type traceHook struct {
	t Tracer
}

func (h *traceHook) Func(ctx sim.HookCtx) {
	task, ok := ctx.Item.(Task)
	if !ok {
		return
	}

	switch ctx.Pos {
	case HookPosTaskStart:
		h.t.StartTask(task)
	case HookPosTaskStep:
		h.t.StepTask(task)
	case HookPosTaskEnd:
		h.t.EndTask(task)
	}
}
