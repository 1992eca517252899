package tracing

import (
	"sync"

	"github.com/sarchlab/protoengine/sim"
)

// taskClock remembers when the tasks that pass a filter started.
type taskClock struct {
	timeTeller sim.TimeTeller
	filter     TaskFilter

	lock     sync.Mutex
	inflight map[string]sim.VTimeInCycle
}

func newTaskClock(timeTeller sim.TimeTeller, filter TaskFilter) taskClock {
	return taskClock{
		timeTeller: timeTeller,
		filter:     filter,
		inflight:   make(map[string]sim.VTimeInCycle),
	}
}

func (c *taskClock) start(task Task) {
	now := c.timeTeller.CurrentTime()

	if !c.filter(task) {
		return
	}

	c.lock.Lock()
	c.inflight[task.ID] = now
	c.lock.Unlock()
}

// stop returns how long the task ran. It returns false for tasks that were
// not started or were filtered out.
func (c *taskClock) stop(task Task) (sim.VTimeInCycle, bool) {
	now := c.timeTeller.CurrentTime()

	c.lock.Lock()
	defer c.lock.Unlock()

	startTime, ok := c.inflight[task.ID]
	if !ok {
		return 0, false
	}

	delete(c.inflight, task.ID)

	return now - startTime, true
}

func (c *taskClock) running() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.inflight)
}
