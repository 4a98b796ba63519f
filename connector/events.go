package connector

// Event is what a radio reports to its EventSink.
type Event int

// The radio events.
const (
	EventNone           Event = 0
	EventPacketReceived Event = 1
	EventSendDone       Event = 2
)

func (e Event) String() string {
	switch e {
	case EventPacketReceived:
		return "PacketReceived"
	case EventSendDone:
		return "SendDone"
	default:
		return "None"
	}
}

// An EventSink receives radio events. It is called on the connector's receive
// goroutine, so it must return quickly and must not call GetSignalStrength or
// GetState.
type EventSink interface {
	HandleRadioEvent(r *Radio, e Event)
}

// EventSinkFunc adapts a function to the EventSink interface.
type EventSinkFunc func(r *Radio, e Event)

// HandleRadioEvent calls f(r, e).
func (f EventSinkFunc) HandleRadioEvent(r *Radio, e Event) {
	f(r, e)
}
