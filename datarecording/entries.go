package datarecording

import "time"

// Table names used by the connector recorders.
const (
	FrameTable   = "frames"
	RequestTable = "requests"
)

// FrameEntry is one frame sent, received or dropped by a connector.
type FrameEntry struct {
	ID        string
	Time      float64
	Connector string
	Direction string
	Kind      string
	Band      string
	Size      int
	Error     string
}

// RequestEntry is one signal-strength or state query and its outcome.
type RequestEntry struct {
	ID        string
	Connector string
	Band      string
	Kind      string
	StartTime float64
	EndTime   float64
	Outcome   string
}

// TimeInSec converts a wall-clock time into the seconds stored in tables.
func TimeInSec(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
