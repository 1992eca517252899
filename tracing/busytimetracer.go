package tracing

import (
	"sync"

	"github.com/sarchlab/protoengine/sim"
)

// BusyTimeTracer traces the time that a domain is processing a kind of task.
// Overlapping tasks count only once.
type BusyTimeTracer struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock      sync.Mutex
	inflight  map[string]bool
	busySince sim.VTimeInCycle
	busyTime  sim.VTimeInCycle
}

// NewBusyTimeTracer creates a new BusyTimeTracer. A nil filter traces every
// task.
func NewBusyTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *BusyTimeTracer {
	return &BusyTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]bool),
	}
}

// BusyTime returns the number of cycles with at least one task in flight,
// counting the current busy period up to now.
func (t *BusyTimeTracer) BusyTime() sim.VTimeInCycle {
	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.inflight) == 0 {
		return t.busyTime
	}

	return t.busyTime + t.timeTeller.CurrentTime() - t.busySince
}

// StartTask records the task start time
func (t *BusyTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if len(t.inflight) == 0 {
		t.busySince = t.timeTeller.CurrentTime()
	}

	t.inflight[task.ID] = true
}

// StepTask does nothing
func (t *BusyTimeTracer) StepTask(_ Task) {
	// Do nothing
}

// EndTask records the end of the task
func (t *BusyTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if !t.inflight[task.ID] {
		return
	}

	delete(t.inflight, task.ID)

	if len(t.inflight) == 0 {
		t.busyTime += t.timeTeller.CurrentTime() - t.busySince
	}
}
