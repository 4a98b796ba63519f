package message

import (
	"fmt"
	"strings"
)

// FormatBytes renders a payload as "name (length: n): xx xx ..." for logs.
func FormatBytes(name string, data []byte) string {
	sb := strings.Builder{}

	fmt.Fprintf(&sb, "%s (length: %d):", name, len(data))
	for _, b := range data {
		fmt.Fprintf(&sb, " %.2x", b)
	}

	return sb.String()
}

// Describe renders a one-line summary of an envelope for logs.
func Describe(env *Envelope) string {
	if env == nil {
		return "<nil>"
	}

	switch b := env.Body.(type) {
	case *Register:
		return fmt.Sprintf("Register{address: %s}", b.Address)
	case *Deregister:
		return fmt.Sprintf("Deregister{address: %s}", b.Address)
	case *Packet:
		return fmt.Sprintf("Packet{%s, %s}", describeInfo(b.Info),
			FormatBytes("data", b.Data))
	case *SignalRequest:
		return fmt.Sprintf("SignalRequest{%s}", describeInfo(b.Info))
	case *SignalResponse:
		return fmt.Sprintf("SignalResponse{%s, value: %.2f}",
			describeInfo(b.Info), b.Value)
	case *StateRequest:
		return fmt.Sprintf("StateRequest{%s}", describeInfo(b.Info))
	case *StateResponse:
		return fmt.Sprintf("StateResponse{%s, state: %s}",
			describeInfo(b.Info), b.State)
	case *StateSet:
		return fmt.Sprintf("StateSet{%s, state: %s}",
			describeInfo(b.Info), b.State)
	case *FieldSet:
		return fmt.Sprintf("FieldSet{%s: %q}", b.Name, b.Data)
	case *FieldRequest:
		return fmt.Sprintf("FieldRequest{%s}", b.Name)
	case *SendComplete:
		return fmt.Sprintf("SendComplete{%s}", describeInfo(b.Info))
	case *Event:
		return fmt.Sprintf("Event{%q}", b.Data)
	default:
		return env.Kind().String()
	}
}

func describeInfo(info *RFInfo) string {
	if info == nil {
		return "band: <none>"
	}

	return fmt.Sprintf("band: %s, channel: %d", info.Band, info.Channel)
}
