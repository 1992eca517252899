package tracing

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sarchlab/protoengine/sim"
)

// TaskPrinter can print tasks with a format.
type TaskPrinter interface {
	Print(task Task)
}

type writerTaskPrinter struct {
	w io.Writer
}

func (p writerTaskPrinter) Print(task Task) {
	fmt.Fprintf(p.w, "%s-%s@%s [%s] since %d\n",
		task.Kind, task.What, task.Location, task.ID, task.StartTime)
}

// NewWriterTaskPrinter creates a TaskPrinter that prints one line per task.
func NewWriterTaskPrinter(w io.Writer) TaskPrinter {
	return writerTaskPrinter{w: w}
}

// BackTraceTracer keeps the tasks that have not completed, so that a stuck
// simulation can show what every transaction is waiting on.
type BackTraceTracer struct {
	printer      TaskPrinter
	timeTeller   sim.TimeTeller
	tracingTasks map[string]Task
	lock         sync.Mutex
}

// NewBackTraceTracer creates a new BackTraceTracer
func NewBackTraceTracer(printer TaskPrinter) *BackTraceTracer {
	return &BackTraceTracer{
		printer:      printer,
		tracingTasks: make(map[string]Task),
	}
}

// SetTimeTeller makes the tracer stamp the start time of the tasks.
func (t *BackTraceTracer) SetTimeTeller(tt sim.TimeTeller) {
	t.timeTeller = tt
}

// StartTask remembers the task.
func (t *BackTraceTracer) StartTask(task Task) {
	if t.timeTeller != nil {
		task.StartTime = t.timeTeller.CurrentTime()
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	t.tracingTasks[task.ID] = task
}

// StepTask does nothing.
func (t *BackTraceTracer) StepTask(_ Task) {
	// Do Nothing
}

// EndTask forgets the task.
func (t *BackTraceTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	delete(t.tracingTasks, task.ID)
}

// NumInflightTasks returns the number of tasks that have not completed.
func (t *BackTraceTracer) NumInflightTasks() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.tracingTasks)
}

// DumpBackTrace prints a task and then its ancestors that are still in
// flight.
func (t *BackTraceTracer) DumpBackTrace(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	t.dump(task)
}

func (t *BackTraceTracer) dump(task Task) {
	t.printer.Print(task)

	if task.ParentID == "" {
		return
	}

	parentTask, ok := t.tracingTasks[task.ParentID]
	if !ok {
		return
	}

	t.dump(parentTask)
}

// DumpAll prints the back trace of every in-flight task of a kind, oldest
// first.
func (t *BackTraceTracer) DumpAll(kind string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	tasks := make([]Task, 0, len(t.tracingTasks))
	for _, task := range t.tracingTasks {
		if task.Kind == kind {
			tasks = append(tasks, task)
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].StartTime != tasks[j].StartTime {
			return tasks[i].StartTime < tasks[j].StartTime
		}

		return tasks[i].ID < tasks[j].ID
	})

	for _, task := range tasks {
		t.dump(task)
	}
}
