package message

import (
	"errors"
	"fmt"
)

// DecodeError is returned when a frame cannot be turned into a valid
// envelope.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("message: decode failed: %s: %v", e.Reason, e.Err)
	}

	return "message: decode failed: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ErrEmptyEnvelope is returned when an envelope carries no body.
var ErrEmptyEnvelope = errors.New("message: envelope has no body")

// Validate checks that the envelope has exactly one body and that the body has
// all its required fields.
func (e *Envelope) Validate() error {
	if e == nil || e.Body == nil {
		return ErrEmptyEnvelope
	}

	switch b := e.Body.(type) {
	case *Register:
		return requireString(b.Kind(), "address", b.Address)
	case *Deregister:
		return requireString(b.Kind(), "address", b.Address)
	case *Packet:
		return requireInfo(b.Kind(), b.Info)
	case *SignalRequest:
		return requireInfo(b.Kind(), b.Info)
	case *SignalResponse:
		if err := requireInfo(b.Kind(), b.Info); err != nil {
			return err
		}
		if !b.HasValue {
			return missing(b.Kind(), "value")
		}
	case *StateRequest:
		return requireInfo(b.Kind(), b.Info)
	case *StateResponse:
		if err := requireInfo(b.Kind(), b.Info); err != nil {
			return err
		}
		if !b.HasState {
			return missing(b.Kind(), "state")
		}
	case *StateSet:
		if err := requireInfo(b.Kind(), b.Info); err != nil {
			return err
		}
		if !b.HasState {
			return missing(b.Kind(), "state")
		}
	case *FieldSet:
		return requireString(b.Kind(), "name", b.Name)
	case *FieldRequest:
		return requireString(b.Kind(), "name", b.Name)
	case *SendComplete:
		return requireInfo(b.Kind(), b.Info)
	case *Event:
	default:
		return fmt.Errorf("message: unsupported body type %T", e.Body)
	}

	return nil
}

func requireString(k Kind, name, value string) error {
	if value == "" {
		return missing(k, name)
	}

	return nil
}

func requireInfo(k Kind, info *RFInfo) error {
	if info == nil {
		return missing(k, "info")
	}

	return nil
}

func missing(k Kind, name string) error {
	return fmt.Errorf("message: %s is missing %s", k, name)
}
