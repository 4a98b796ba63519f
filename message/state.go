package message

import "fmt"

// RadioState is the power state of a virtual radio as reported by the server.
type RadioState uint32

// The radio states. The numbering is part of the wire format.
const (
	StateIdle         RadioState = 0
	StateReceive      RadioState = 1
	StateReceiving    RadioState = 2
	StateTransmitting RadioState = 3
	StateSleep        RadioState = 4
)

func (s RadioState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReceive:
		return "Receive"
	case StateReceiving:
		return "Receiving"
	case StateTransmitting:
		return "Transmitting"
	case StateSleep:
		return "Sleep"
	default:
		return fmt.Sprintf("RadioState(%d)", uint32(s))
	}
}

// ParseRadioState converts a state name into a RadioState.
func ParseRadioState(name string) (RadioState, error) {
	for s := StateIdle; s <= StateSleep; s++ {
		if s.String() == name {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown radio state %q", name)
}
