package datarecording

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExecInfoTable is the table that describes the recorded run.
const ExecInfoTable = "exec_info"

// ExecInfo is one property of the recorded run.
type ExecInfo struct {
	Property string
	Value    string
}

const execTimeFormat = "2006-01-02 15:04:05.000000000"

// execRecorder records the command line and the start and end time of the
// program.
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return &execRecorder{recorder: recorder}
}

// Start remembers the start of the run.
func (e *execRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(execTimeFormat)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	ex, err := os.Executable()
	if err == nil {
		e.entries = append(e.entries,
			ExecInfo{"Working Directory", filepath.Dir(ex)})
	}
}

// End writes the run information along with the end time.
func (e *execRecorder) End() {
	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.recorder.InsertData(ExecInfoTable,
		ExecInfo{"End Time", time.Now().Format(execTimeFormat)})

	e.entries = nil
}
