package sim

import (
	"sync"
)

// TickEvent is a generic event that almost all the components can use to
// update their status.
type TickEvent struct {
	EventBase
}

// MakeTickEvent creates a new TickEvent.
func MakeTickEvent(handler Handler, time VTimeInCycle) TickEvent {
	evt := TickEvent{}
	evt.id = GetIDGenerator().Generate()
	evt.handler = handler
	evt.time = time

	return evt
}

// A Ticker is an object that updates states with ticks.
type Ticker interface {
	// Tick advances the object by one cycle and reports if any progress
	// was made.
	Tick() bool
}

// TickScheduler can help schedule tick events.
type TickScheduler struct {
	lock      sync.Mutex
	handler   Handler
	Engine    Engine
	secondary bool

	hasScheduled bool
	nextTickTime VTimeInCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(handler Handler, engine Engine) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		Engine:  engine,
	}
}

// NewSecondaryTickScheduler creates a scheduler that always schedules
// secondary tick events.
func NewSecondaryTickScheduler(handler Handler, engine Engine) *TickScheduler {
	ticker := NewTickScheduler(handler, engine)
	ticker.secondary = true

	return ticker
}

// TickNow schedules a Tick event at the current cycle.
func (t *TickScheduler) TickNow() {
	t.scheduleAt(t.CurrentTime())
}

// TickLater schedules a Tick event at the cycle after the current cycle.
func (t *TickScheduler) TickLater() {
	t.scheduleAt(t.CurrentTime() + 1)
}

func (t *TickScheduler) scheduleAt(time VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.hasScheduled && t.nextTickTime >= time {
		return
	}

	t.hasScheduled = true
	t.nextTickTime = time

	tick := MakeTickEvent(t.handler, time)
	tick.secondary = t.secondary
	t.Engine.Schedule(tick)
}

// CurrentTime returns the current cycle of the engine.
func (t *TickScheduler) CurrentTime() VTimeInCycle {
	return t.Engine.CurrentTime()
}

// TickingComponent is a type of component that updates states from cycle to
// cycle. A programmer would only need to program a tick function for a
// ticking component. The component keeps ticking while Tick reports
// progress and goes to sleep otherwise; anything that delivers new work to a
// sleeping component must call TickLater or TickNow.
type TickingComponent struct {
	*ComponentBase
	*TickScheduler

	ticker Ticker
}

// Handle triggers the tick function of the TickingComponent.
func (c *TickingComponent) Handle(_ Event) error {
	madeProgress := c.ticker.Tick()
	if madeProgress {
		c.TickLater()
	}

	return nil
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine Engine,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewTickScheduler(tc, engine)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}

// NewSecondaryTickingComponent creates a new ticking component that ticks
// after all the primary events of a cycle.
func NewSecondaryTickingComponent(
	name string,
	engine Engine,
	ticker Ticker,
) *TickingComponent {
	tc := new(TickingComponent)
	tc.TickScheduler = NewSecondaryTickScheduler(tc, engine)
	tc.ComponentBase = NewComponentBase(name)
	tc.ticker = ticker

	return tc
}
