package tracing

import (
	"sync"

	"github.com/sarchlab/protoengine/sim"
)

// AverageTimeTracer collects the number, the average time, and the longest
// time of the tasks that pass its filter, such as CPU transactions.
type AverageTimeTracer struct {
	clock taskClock

	lock        sync.Mutex
	averageTime float64
	maxTime     sim.VTimeInCycle
	taskCount   uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		clock: newTaskClock(timeTeller, filter),
	}
}

// AverageTime returns the average number of cycles a task takes.
func (t *AverageTimeTracer) AverageTime() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.averageTime
}

// MaxTime returns the number of cycles the longest task took.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInCycle {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the number of completed tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// StartTask starts timing a task.
func (t *AverageTimeTracer) StartTask(task Task) {
	t.clock.start(task)
}

// StepTask does nothing.
func (t *AverageTimeTracer) StepTask(_ Task) {}

// EndTask adds the time of the task to the average.
func (t *AverageTimeTracer) EndTask(task Task) {
	taskTime, ok := t.clock.stop(task)
	if !ok {
		return
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.taskCount++
	t.averageTime += (float64(taskTime) - t.averageTime) / float64(t.taskCount)

	if taskTime > t.maxTime {
		t.maxTime = taskTime
	}
}
