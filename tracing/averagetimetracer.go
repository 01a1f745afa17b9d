package tracing

import (
	"sync"
	"time"
)

// AverageTimeTracer measures how long the tasks accepted by its filter take
// on average.
type AverageTimeTracer struct {
	timeTeller TimeTeller
	filter     TaskFilter

	lock     sync.Mutex
	started  map[string]time.Time
	total    time.Duration
	finished uint64
}

// NewAverageTimeTracer creates an AverageTimeTracer. A nil filter accepts
// all the tasks.
func NewAverageTimeTracer(
	timeTeller TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{
		timeTeller: timeTeller,
		filter:     filter,
		started:    make(map[string]time.Time),
	}
}

// AverageTime returns the average duration of the finished tasks.
func (t *AverageTimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.finished == 0 {
		return 0
	}

	return t.total / time.Duration(t.finished)
}

// TotalCount returns the number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.finished
}

// InflightCount returns the number of tasks that started but did not end.
func (t *AverageTimeTracer) InflightCount() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.started)
}

// StartTask remembers when the task started.
func (t *AverageTimeTracer) StartTask(task Task) {
	if t.filter != nil && !t.filter(task) {
		return
	}

	now := t.timeTeller.Now()

	t.lock.Lock()
	t.started[task.ID] = now
	t.lock.Unlock()
}

// StepTask ignores milestones.
func (t *AverageTimeTracer) StepTask(Task) {}

// EndTask adds the duration of the task.
func (t *AverageTimeTracer) EndTask(task Task) {
	now := t.timeTeller.Now()

	t.lock.Lock()
	defer t.lock.Unlock()

	start, ok := t.started[task.ID]
	if !ok {
		return
	}

	delete(t.started, task.ID)
	t.total += now.Sub(start)
	t.finished++
}
