package tracing

import (
	"sync"

	"github.com/fabriclab/tlpbridge/sim"
)

// TraceWriter is a backend that can store completed tasks.
type TraceWriter interface {
	// Init prepares the backend for writing.
	Init()

	// Write stores one completed task. Writes may be buffered.
	Write(task Task)

	// Flush writes all the buffered tasks to their destination.
	Flush()
}

// DBTracer is a tracer that stores tasks through a TraceWriter backend.
// Only tasks that end within the time window are stored.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller sim.TimeTeller
	backend    TraceWriter

	startTime, endTime sim.VTimeInSec

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The backend must be initialized
// before the tracer starts collecting.
func NewDBTracer(timeTeller sim.TimeTeller, backend TraceWriter) *DBTracer {
	t := &DBTracer{
		timeTeller:   timeTeller,
		backend:      backend,
		tracingTasks: make(map[string]Task),
	}

	return t
}

// SetTimeRange sets the time range of the tracer. Only tasks that overlap
// the range are recorded.
func (t *DBTracer) SetTimeRange(startTime, endTime sim.VTimeInSec) {
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

// StepTask does nothing for now.
func (t *DBTracer) StepTask(_ Task) {
}

// EndTask marks the end of a task.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	endTime := t.timeTeller.CurrentTime()
	if t.startTime > 0 && endTime < t.startTime {
		delete(t.tracingTasks, task.ID)
		return
	}

	originalTask, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	originalTask.EndTime = endTime
	delete(t.tracingTasks, task.ID)

	t.backend.Write(originalTask)
}
