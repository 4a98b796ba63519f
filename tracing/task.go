// Package tracing turns the request hooks of connectors into tasks and
// collects them.
package tracing

import (
	"errors"
	"time"

	"github.com/sarchlab/simradio/connector"
)

// A Task is one query sent by a connector radio and waiting for its answer.
type Task struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	What      string        `json:"what"`
	Where     string        `json:"where"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Err       error         `json:"-"`
	Latency   time.Duration `json:"latency"`
}

// Outcome names how the task ended.
func (t Task) Outcome() string {
	switch {
	case t.Err == nil:
		return "ok"
	case errors.Is(t.Err, connector.ErrTimeout):
		return "timeout"
	case errors.Is(t.Err, connector.ErrClosed),
		errors.Is(t.Err, connector.ErrRadioClosed):
		return "closed"
	default:
		return "error"
	}
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool

// KindFilter accepts the tasks of one request kind, such as "SignalRequest".
func KindFilter(kind string) TaskFilter {
	return func(t Task) bool {
		return t.Kind == kind
	}
}

// A Tracer can collect task traces
type Tracer interface {
	StartTask(task Task)
	EndTask(task Task)
}
