package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/sim"
)

// TraceTable is the table the DBTracer writes completed tasks into.
const TraceTable = "trace"

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime uint64
	EndTime   uint64
}

// DBTracer is a tracer that stores completed tasks into a DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    datarecording.DataRecorder

	startTime, endTime sim.VTimeInCycle

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The tracer flushes its backend at
// exit.
func NewDBTracer(
	timeTeller sim.TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(TraceTable, taskTableEntry{})

	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      dataRecorder,
		tracingTasks: make(map[string]Task),
	}

	atexit.Register(func() {
		t.Terminate()
	})

	return t
}

// SetTimeRange limits the tracer to the tasks that overlap the range. An end
// time of 0 means no limit.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInCycle) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startTime = startTime
	t.endTime = endTime
}

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	if t.endTime > 0 && task.StartTime > t.endTime {
		return
	}

	t.tracingTasks[task.ID] = task
}

// StepTask does nothing.
func (t *DBTracer) StepTask(_ Task) {
	// Do nothing.
}

// EndTask writes the task into the backend.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	delete(t.tracingTasks, task.ID)

	originalTask.EndTime = t.timeTeller.CurrentTime()
	if originalTask.EndTime < t.startTime {
		return
	}

	t.backend.InsertData(TraceTable, taskTableEntry{
		ID:        originalTask.ID,
		ParentID:  originalTask.ParentID,
		Kind:      originalTask.Kind,
		What:      originalTask.What,
		Location:  originalTask.Location,
		StartTime: uint64(originalTask.StartTime),
		EndTime:   uint64(originalTask.EndTime),
	})
}

// Terminate drops the unfinished tasks and flushes the backend.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}
