package tracing

import (
	"sync"

	"github.com/sarchlab/protoengine/sim"
)

// TotalTimeTracer sums the time of the tasks that pass its filter.
// Overlapping tasks are all counted, so the total time of the threads of an
// engine divided by the run time is the average number of live threads.
type TotalTimeTracer struct {
	clock taskClock

	lock      sync.Mutex
	totalTime sim.VTimeInCycle
}

// NewTotalTimeTracer creates a new TotalTimeTracer
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{
		clock: newTaskClock(timeTeller, filter),
	}
}

// TotalTime returns the summed time of the completed tasks.
func (t *TotalTimeTracer) TotalTime() sim.VTimeInCycle {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// InFlight returns the number of tasks started but not ended.
func (t *TotalTimeTracer) InFlight() int {
	return t.clock.running()
}

// StartTask starts timing a task.
func (t *TotalTimeTracer) StartTask(task Task) {
	t.clock.start(task)
}

// StepTask does nothing.
func (t *TotalTimeTracer) StepTask(_ Task) {}

// EndTask adds the time of the task to the total.
func (t *TotalTimeTracer) EndTask(task Task) {
	taskTime, ok := t.clock.stop(task)
	if !ok {
		return
	}

	t.lock.Lock()
	t.totalTime += taskTime
	t.lock.Unlock()
}
