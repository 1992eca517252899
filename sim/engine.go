package sim

// HookPosBeforeEvent is a hook position that triggers before handling an event.
var HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}

// HookPosAfterEvent is a hook position that triggers after handling an event.
var HookPosAfterEvent = &HookPos{Name: "AfterEvent"}

// An Engine is a unit that keeps the discrete event simulation run.
type Engine interface {
	Hookable
	TimeTeller

	// Schedule registers an event to be triggered in the future.
	Schedule(e Event)

	// Run processes all the events scheduled until no event is left.
	Run() error

	// Pause temporarily suspends event processing.
	Pause()

	// Continue resumes a paused engine.
	Continue()
}
