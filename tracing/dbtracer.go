package tracing

import (
	"github.com/sarchlab/simradio/datarecording"
)

// DBTracer is a tracer that stores every ended request into the requests
// table of a DataRecorder.
type DBTracer struct {
	backend datarecording.DataRecorder
	filter  TaskFilter
}

// NewDBTracer creates the requests table and returns the tracer. A nil filter
// accepts every task.
func NewDBTracer(
	backend datarecording.DataRecorder,
	filter TaskFilter,
) *DBTracer {
	backend.CreateTable(datarecording.RequestTable,
		datarecording.RequestEntry{})

	return &DBTracer{
		backend: backend,
		filter:  filter,
	}
}

// StartTask does nothing. The start time travels with the ended task.
func (t *DBTracer) StartTask(_ Task) {
	// Do nothing
}

// EndTask writes the task.
func (t *DBTracer) EndTask(task Task) {
	if task.ID == "" {
		panic("task ID must be set")
	}

	if t.filter != nil && !t.filter(task) {
		return
	}

	t.backend.InsertData(datarecording.RequestTable, datarecording.RequestEntry{
		ID:        task.ID,
		Connector: task.Where,
		Band:      task.What,
		Kind:      task.Kind,
		StartTime: datarecording.TimeInSec(task.StartTime),
		EndTime:   datarecording.TimeInSec(task.EndTime),
		Outcome:   task.Outcome(),
	})
}
