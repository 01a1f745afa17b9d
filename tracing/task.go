package tracing

import "time"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time time.Time `json:"time"`
	What string    `json:"what"`
}

// A Task is a unit of work that is traced from its start to its end, such as
// a request waiting for its response.
type Task struct {
	ID        string      `json:"id"`
	ParentID  string      `json:"parent_id"`
	Kind      string      `json:"kind"`
	What      string      `json:"what"`
	Location  string      `json:"location"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Steps     []TaskStep  `json:"steps"`
	Detail    interface{} `json:"-"`
}

// Duration returns the time between the start and the end of the task.
func (t Task) Duration() time.Duration {
	return t.EndTime.Sub(t.StartTime)
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// A TimeTeller tells the current time.
type TimeTeller interface {
	Now() time.Time
}

// WallClock tells the time of the system clock.
type WallClock struct{}

// Now returns the current system time.
func (WallClock) Now() time.Time {
	return time.Now()
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
