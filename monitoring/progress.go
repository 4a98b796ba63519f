package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar follows a channel sweep on one band. Methods on a nil bar do
// nothing, so callers without a monitor can use it unconditionally.
type ProgressBar struct {
	id    string
	name  string
	start time.Time
	total uint64

	mu       sync.Mutex
	current  int32
	active   bool
	finished uint64
}

// Begin marks a channel as being measured.
func (b *ProgressBar) Begin(channel int32) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = channel
	b.active = true
}

// Done marks the channel under measurement as finished.
func (b *ProgressBar) Done() {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.active {
		return
	}

	b.active = false
	b.finished++
}

// ProgressStatus is the JSON form of a ProgressBar.
type ProgressStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
	Channel    *int32    `json:"channel,omitempty"`
}

// Status returns a copy of the bar's counters.
func (b *ProgressBar) Status() ProgressStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := ProgressStatus{
		ID:        b.id,
		Name:      b.name,
		StartTime: b.start,
		Total:     b.total,
		Finished:  b.finished,
	}

	if b.active {
		ch := b.current
		s.InProgress = 1
		s.Channel = &ch
	}

	return s
}
