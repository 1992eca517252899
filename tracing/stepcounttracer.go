package tracing

import (
	"sync"
)

type stepStat struct {
	steps uint64
	tasks uint64
}

// StepCountTracer counts, for each step name, how many times tasks reached
// the step and how many tasks reached it at least once. A thread that
// blocks on a conflict three times adds three steps but one task.
type StepCountTracer struct {
	filter TaskFilter

	lock     sync.Mutex
	inflight map[string]map[string]bool
	order    []string
	stats    map[string]*stepStat
}

// NewStepCountTracer creates a new StepCountTracer
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	return &StepCountTracer{
		filter:   filter,
		inflight: make(map[string]map[string]bool),
		stats:    make(map[string]*stepStat),
	}
}

// GetStepNames returns the step names in the order they were first seen.
func (t *StepCountTracer) GetStepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.order...)
}

// GetStepCount returns how many times a step was reached.
func (t *StepCountTracer) GetStepCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if s, ok := t.stats[stepName]; ok {
		return s.steps
	}

	return 0
}

// GetTaskCount returns how many tasks reached a step.
func (t *StepCountTracer) GetTaskCount(stepName string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	if s, ok := t.stats[stepName]; ok {
		return s.tasks
	}

	return 0
}

// StartTask begins counting the steps of a task.
func (t *StepCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflight[task.ID] = make(map[string]bool)
	t.lock.Unlock()
}

// StepTask counts the step of a counted task.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, ok := t.inflight[task.ID]
	if !ok || len(task.Steps) == 0 {
		return
	}

	what := task.Steps[0].What

	s, ok := t.stats[what]
	if !ok {
		s = &stepStat{}
		t.stats[what] = s
		t.order = append(t.order, what)
	}

	s.steps++

	if !seen[what] {
		seen[what] = true
		s.tasks++
	}
}

// EndTask stops counting the steps of a task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.inflight, task.ID)
	t.lock.Unlock()
}
