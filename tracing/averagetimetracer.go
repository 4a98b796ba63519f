package tracing

import (
	"sync"
	"time"
)

// AverageTimeTracer collects the average latency of a certain type of
// request. Failed requests are counted but do not change the average.
type AverageTimeTracer struct {
	filter        TaskFilter
	lock          sync.Mutex
	averageTime   time.Duration
	maxTime       time.Duration
	inflightTasks map[string]Task
	taskCount     uint64
	failureCount  uint64
}

// NewAverageTimeTracer creates a new AverageTimeTracer. A nil filter accepts
// every task.
func NewAverageTimeTracer(filter TaskFilter) *AverageTimeTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &AverageTimeTracer{
		filter:        filter,
		inflightTasks: make(map[string]Task),
	}
}

// AverageTime returns the average latency of the successful tasks.
func (t *AverageTimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.averageTime
}

// MaxTime returns the longest latency of a successful task.
func (t *AverageTimeTracer) MaxTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the number of successful tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// FailureCount returns the number of tasks that ended with an error.
func (t *AverageTimeTracer) FailureCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.failureCount
}

// InflightCount returns the number of started tasks that have not ended.
func (t *AverageTimeTracer) InflightCount() int {
	t.lock.Lock()
	defer t.lock.Unlock()

	return len(t.inflightTasks)
}

// StartTask records the task start time
func (t *AverageTimeTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.inflightTasks[task.ID] = task
	t.lock.Unlock()
}

// EndTask records the end of the task
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	delete(t.inflightTasks, task.ID)

	if task.Err != nil {
		t.failureCount++
		return
	}

	taskTime := task.EndTime.Sub(originalTask.StartTime)
	t.averageTime = time.Duration(
		(float64(t.averageTime)*float64(t.taskCount) + float64(taskTime)) /
			float64(t.taskCount+1))
	t.maxTime = max(t.maxTime, taskTime)
	t.taskCount++
}
