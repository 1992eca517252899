package sim

import (
	"fmt"
	"log"
	"reflect"
	"sync"
)

// A SerialEngine is an Engine that always runs events one after another.
type SerialEngine struct {
	HookableBase

	timeLock       sync.RWMutex
	now            VTimeInCycle
	queue          EventQueue
	secondaryQueue EventQueue

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex
}

// NewSerialEngine creates a SerialEngine.
func NewSerialEngine() *SerialEngine {
	e := new(SerialEngine)
	e.queue = NewEventQueue()
	e.secondaryQueue = NewEventQueue()

	return e
}

// Schedule registers an event to happen in the future.
func (e *SerialEngine) Schedule(evt Event) {
	now := e.readNow()
	if evt.Time() < now {
		log.Panicf("scheduling an event earlier than current time, "+
			"evt %s @ %d, now %d", reflect.TypeOf(evt), evt.Time(), now)
	}

	if evt.IsSecondary() {
		e.secondaryQueue.Push(evt)
		return
	}

	e.queue.Push(evt)
}

func (e *SerialEngine) readNow() VTimeInCycle {
	e.timeLock.RLock()
	t := e.now
	e.timeLock.RUnlock()

	return t
}

func (e *SerialEngine) writeNow(t VTimeInCycle) {
	e.timeLock.Lock()
	e.now = t
	e.timeLock.Unlock()
}

// Run processes all the events scheduled in the SerialEngine. It stops at
// the first error returned by a handler.
func (e *SerialEngine) Run() error {
	e.singleRunLock.Lock()
	defer e.singleRunLock.Unlock()

	for !e.noMoreEvent() {
		if err := e.runOne(); err != nil {
			return err
		}
	}

	return nil
}

func (e *SerialEngine) runOne() error {
	e.pauseLock.Lock()
	defer e.pauseLock.Unlock()

	evt := e.nextEvent()
	e.writeNow(evt.Time())

	hookCtx := HookCtx{
		Domain: e,
		Pos:    HookPosBeforeEvent,
		Item:   evt,
	}
	e.InvokeHook(hookCtx)

	if err := evt.Handler().Handle(evt); err != nil {
		return fmt.Errorf("handling %s @ %d: %w",
			reflect.TypeOf(evt), evt.Time(), err)
	}

	hookCtx.Pos = HookPosAfterEvent
	e.InvokeHook(hookCtx)

	return nil
}

func (e *SerialEngine) noMoreEvent() bool {
	return e.queue.Len() == 0 && e.secondaryQueue.Len() == 0
}

func (e *SerialEngine) nextEvent() Event {
	if e.queue.Len() == 0 {
		return e.secondaryQueue.Pop()
	}

	if e.secondaryQueue.Len() == 0 {
		return e.queue.Pop()
	}

	if e.queue.Peek().Time() <= e.secondaryQueue.Peek().Time() {
		return e.queue.Pop()
	}

	return e.secondaryQueue.Pop()
}

// Pause prevents the engine from dispatching more events until Continue is
// called.
func (e *SerialEngine) Pause() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if e.isPaused {
		return
	}

	e.pauseLock.Lock()
	e.isPaused = true
}

// Continue resumes event processing after a Pause.
func (e *SerialEngine) Continue() {
	e.isPausedLock.Lock()
	defer e.isPausedLock.Unlock()

	if !e.isPaused {
		return
	}

	e.pauseLock.Unlock()
	e.isPaused = false
}

// CurrentTime returns the cycle of the event being or most recently handled.
func (e *SerialEngine) CurrentTime() VTimeInCycle {
	return e.readNow()
}
