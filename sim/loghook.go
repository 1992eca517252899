package sim

import (
	"log"
)

// LogHookBase lets a hook print through a logger. Hooks that log embed it
// and implement Func.
type LogHookBase struct {
	*log.Logger
}

// EventLogger prints every event before the engine handles it, as
// "<cycle>, <event type> -> <handler>".
type EventLogger struct {
	LogHookBase
}

// NewEventLogger returns a new EventLogger which writes into the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	h := new(EventLogger)
	h.Logger = logger

	return h
}

// Func prints the event of a HookPosBeforeEvent hook.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	if comp, ok := evt.Handler().(Named); ok {
		h.Printf("%d, %T -> %s", evt.Time(), evt, comp.Name())
		return
	}

	h.Printf("%d, %T", evt.Time(), evt)
}
