package tracing

import "github.com/sarchlab/protoengine/sim"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time sim.VTimeInCycle `json:"time"`
	What string           `json:"what"`
}

// A Task is a task
type Task struct {
	ID        string           `json:"id"`
	ParentID  string           `json:"parent_id"`
	Kind      string           `json:"kind"`
	What      string           `json:"what"`
	Location  string           `json:"location"`
	StartTime sim.VTimeInCycle `json:"start_time"`
	EndTime   sim.VTimeInCycle `json:"end_time"`
	Steps     []TaskStep       `json:"steps"`
	Detail    interface{}      `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// KindFilter keeps the tasks of one kind.
func KindFilter(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}
