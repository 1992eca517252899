package sim

// A Handler can handle events.
type Handler interface {
	Handle(e Event) error
}

// An Event is something going to happen in the future.
type Event interface {
	// ID returns the unique identifier of the event.
	ID() string

	// Time returns the cycle at which the event should happen.
	Time() VTimeInCycle

	// Handler returns the handler that should handle the event.
	Handler() Handler

	// IsSecondary tells if the event is a secondary event. Secondary events
	// are handled after all same-cycle primary events are handled.
	IsSecondary() bool
}

// EventBase provides the basic fields and getters for other events.
type EventBase struct {
	id        string
	time      VTimeInCycle
	handler   Handler
	secondary bool
}

// NewEventBase creates a new EventBase.
func NewEventBase(t VTimeInCycle, handler Handler) *EventBase {
	e := new(EventBase)
	e.id = GetIDGenerator().Generate()
	e.time = t
	e.handler = handler

	return e
}

// ID returns the ID of the event.
func (e EventBase) ID() string {
	return e.id
}

// Time returns the cycle that the event is going to happen.
func (e EventBase) Time() VTimeInCycle {
	return e.time
}

// Handler returns the handler to handle the event.
func (e EventBase) Handler() Handler {
	return e.handler
}

// IsSecondary returns true if the event is a secondary event.
func (e EventBase) IsSecondary() bool {
	return e.secondary
}
