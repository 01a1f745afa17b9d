package tracing

import (
	"sync"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/sc2melee/datarecording"
)

const traceTable = "trace"

type taskTableEntry struct {
	ID        string
	ParentID  string
	Kind      string
	What      string
	Location  string
	StartTime float64
	EndTime   float64
	Steps     string
}

// DBTracer is a tracer that stores completed tasks into a DataRecorder.
type DBTracer struct {
	mu         sync.Mutex
	timeTeller TimeTeller
	backend    datarecording.DataRecorder

	tracingTasks map[string]Task
}

// NewDBTracer creates a new DBTracer. The tasks that did not end are
// dropped when the process exits.
func NewDBTracer(
	timeTeller TimeTeller,
	dataRecorder datarecording.DataRecorder,
) *DBTracer {
	dataRecorder.CreateTable(traceTable, taskTableEntry{})

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

// StartTask marks the start of a task.
func (t *DBTracer) StartTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.Now()
	t.tracingTasks[task.ID] = task
}

// StepTask records a milestone of a task.
func (t *DBTracer) StepTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	now := t.timeTeller.Now()
	for _, step := range task.Steps {
		step.Time = now
		original.Steps = append(original.Steps, step)
	}

	t.tracingTasks[task.ID] = original
}

// EndTask marks the end of a task and writes it.
func (t *DBTracer) EndTask(task Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	original, ok := t.tracingTasks[task.ID]
	if !ok {
		return
	}

	original.EndTime = t.timeTeller.Now()
	delete(t.tracingTasks, task.ID)

	t.backend.InsertData(traceTable, toEntry(original))
}

// Terminate drops unfinished tasks and flushes the recorder.
func (t *DBTracer) Terminate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tracingTasks = make(map[string]Task)
	t.backend.Flush()
}

func toEntry(task Task) taskTableEntry {
	steps := ""
	for i, s := range task.Steps {
		if i > 0 {
			steps += ","
		}
		steps += s.What
	}

	return taskTableEntry{
		ID:        task.ID,
		ParentID:  task.ParentID,
		Kind:      task.Kind,
		What:      task.What,
		Location:  task.Location,
		StartTime: seconds(task.StartTime),
		EndTime:   seconds(task.EndTime),
		Steps:     steps,
	}
}
