package message

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Codec converts envelopes to frames and back.
type Codec interface {
	Encode(env *Envelope) ([]byte, error)
	Decode(frame []byte) (*Envelope, error)
}

// Field numbers of the envelope. Every body is an embedded message and at most
// one of them is present in a frame.
const (
	fieldRegister       protowire.Number = 1
	fieldDeregister     protowire.Number = 2
	fieldPacket         protowire.Number = 3
	fieldSignalRequest  protowire.Number = 4
	fieldSignalResponse protowire.Number = 5
	fieldStateRequest   protowire.Number = 6
	fieldStateResponse  protowire.Number = 7
	fieldStateSet       protowire.Number = 8
	fieldFieldSet       protowire.Number = 9
	fieldFieldRequest   protowire.Number = 10
	fieldSendComplete   protowire.Number = 11
	fieldEvent          protowire.Number = 12
)

var kindFields = map[Kind]protowire.Number{
	KindRegister:       fieldRegister,
	KindDeregister:     fieldDeregister,
	KindPacket:         fieldPacket,
	KindSignalRequest:  fieldSignalRequest,
	KindSignalResponse: fieldSignalResponse,
	KindStateRequest:   fieldStateRequest,
	KindStateResponse:  fieldStateResponse,
	KindStateSet:       fieldStateSet,
	KindFieldSet:       fieldFieldSet,
	KindFieldRequest:   fieldFieldRequest,
	KindSendComplete:   fieldSendComplete,
	KindEvent:          fieldEvent,
}

// ProtoCodec encodes envelopes in the protocol buffers wire format. A body
// field that is not set is not written, so the presence of optional values
// survives a round trip.
type ProtoCodec struct{}

// NewProtoCodec creates a ProtoCodec.
func NewProtoCodec() ProtoCodec {
	return ProtoCodec{}
}

// Encode turns a valid envelope into a frame.
func (ProtoCodec) Encode(env *Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}

	body := encodeBody(env.Body)

	frame := protowire.AppendTag(nil, kindFields[env.Kind()], protowire.BytesType)
	frame = protowire.AppendBytes(frame, body)

	return frame, nil
}

func encodeBody(body Body) []byte {
	var b []byte

	switch m := body.(type) {
	case *Register:
		b = appendString(b, 1, m.Address)
	case *Deregister:
		b = appendString(b, 1, m.Address)
	case *Packet:
		b = appendInfo(b, 1, m.Info)
		if len(m.Data) > 0 {
			b = protowire.AppendTag(b, 2, protowire.BytesType)
			b = protowire.AppendBytes(b, m.Data)
		}
	case *SignalRequest:
		b = appendInfo(b, 1, m.Info)
	case *SignalResponse:
		b = appendInfo(b, 1, m.Info)
		if m.HasValue {
			b = protowire.AppendTag(b, 2, protowire.Fixed32Type)
			b = protowire.AppendFixed32(b, math.Float32bits(m.Value))
		}
	case *StateRequest:
		b = appendInfo(b, 1, m.Info)
	case *StateResponse:
		b = appendInfo(b, 1, m.Info)
		b = appendState(b, m.HasState, m.State)
	case *StateSet:
		b = appendInfo(b, 1, m.Info)
		b = appendState(b, m.HasState, m.State)
	case *FieldSet:
		b = appendString(b, 1, m.Name)
		b = appendString(b, 2, m.Data)
	case *FieldRequest:
		b = appendString(b, 1, m.Name)
	case *SendComplete:
		b = appendInfo(b, 1, m.Info)
	case *Event:
		b = appendString(b, 1, m.Data)
	}

	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendString(b, s)
}

func appendInfo(b []byte, num protowire.Number, info *RFInfo) []byte {
	if info == nil {
		return b
	}

	var inner []byte
	inner = appendString(inner, 1, info.Band)
	if info.Channel != 0 {
		inner = protowire.AppendTag(inner, 2, protowire.VarintType)
		inner = protowire.AppendVarint(inner,
			protowire.EncodeZigZag(int64(info.Channel)))
	}

	b = protowire.AppendTag(b, num, protowire.BytesType)

	return protowire.AppendBytes(b, inner)
}

func appendState(b []byte, present bool, s RadioState) []byte {
	if !present {
		return b
	}

	b = protowire.AppendTag(b, 2, protowire.VarintType)

	return protowire.AppendVarint(b, uint64(s))
}

// Decode parses a frame. Malformed frames, frames without a known body, and
// bodies that lack a required field produce a *DecodeError.
func (ProtoCodec) Decode(frame []byte) (*Envelope, error) {
	env := &Envelope{}

	err := readFields(frame, func(f wireField) error {
		body, known, err := decodeBody(f)
		if err != nil {
			return err
		}

		if known {
			env.Body = body
		}

		return nil
	})
	if err != nil {
		return nil, &DecodeError{Reason: "malformed frame", Err: err}
	}

	if env.Body == nil {
		return nil, &DecodeError{Reason: "no recognized message body"}
	}

	if err := env.Validate(); err != nil {
		return nil, &DecodeError{Reason: "invalid " + env.Kind().String(), Err: err}
	}

	return env, nil
}

func decodeBody(f wireField) (Body, bool, error) {
	switch f.num {
	case fieldRegister:
		m := &Register{}
		return m, true, f.embedded(func(g wireField) error {
			return g.stringAt(1, &m.Address)
		})
	case fieldDeregister:
		m := &Deregister{}
		return m, true, f.embedded(func(g wireField) error {
			return g.stringAt(1, &m.Address)
		})
	case fieldPacket:
		m := &Packet{}
		return m, true, f.embedded(func(g wireField) error {
			if err := g.infoAt(1, &m.Info); err != nil {
				return err
			}
			return g.bytesAt(2, &m.Data)
		})
	case fieldSignalRequest:
		m := &SignalRequest{}
		return m, true, f.embedded(func(g wireField) error {
			return g.infoAt(1, &m.Info)
		})
	case fieldSignalResponse:
		m := &SignalResponse{}
		return m, true, f.embedded(func(g wireField) error {
			if err := g.infoAt(1, &m.Info); err != nil {
				return err
			}
			return g.float32At(2, &m.Value, &m.HasValue)
		})
	case fieldStateRequest:
		m := &StateRequest{}
		return m, true, f.embedded(func(g wireField) error {
			return g.infoAt(1, &m.Info)
		})
	case fieldStateResponse:
		m := &StateResponse{}
		return m, true, f.embedded(func(g wireField) error {
			if err := g.infoAt(1, &m.Info); err != nil {
				return err
			}
			return g.stateAt(2, &m.State, &m.HasState)
		})
	case fieldStateSet:
		m := &StateSet{}
		return m, true, f.embedded(func(g wireField) error {
			if err := g.infoAt(1, &m.Info); err != nil {
				return err
			}
			return g.stateAt(2, &m.State, &m.HasState)
		})
	case fieldFieldSet:
		m := &FieldSet{}
		return m, true, f.embedded(func(g wireField) error {
			if err := g.stringAt(1, &m.Name); err != nil {
				return err
			}
			return g.stringAt(2, &m.Data)
		})
	case fieldFieldRequest:
		m := &FieldRequest{}
		return m, true, f.embedded(func(g wireField) error {
			return g.stringAt(1, &m.Name)
		})
	case fieldSendComplete:
		m := &SendComplete{}
		return m, true, f.embedded(func(g wireField) error {
			return g.infoAt(1, &m.Info)
		})
	case fieldEvent:
		m := &Event{}
		return m, true, f.embedded(func(g wireField) error {
			return g.stringAt(1, &m.Data)
		})
	}

	return nil, false, nil
}

type wireField struct {
	num     protowire.Number
	typ     protowire.Type
	varint  uint64
	fixed32 uint32
	bytes   []byte
}

func readFields(b []byte, fn func(f wireField) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := wireField{num: num, typ: typ}

		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			f.fixed32, n = protowire.ConsumeFixed32(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}

		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}

	return nil
}

func (f wireField) mustBe(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("field %d has wire type %d, want %d", f.num, f.typ, typ)
	}

	return nil
}

func (f wireField) embedded(fn func(g wireField) error) error {
	if err := f.mustBe(protowire.BytesType); err != nil {
		return err
	}

	return readFields(f.bytes, fn)
}

func (f wireField) stringAt(num protowire.Number, dst *string) error {
	if f.num != num {
		return nil
	}

	if err := f.mustBe(protowire.BytesType); err != nil {
		return err
	}

	*dst = string(f.bytes)

	return nil
}

func (f wireField) bytesAt(num protowire.Number, dst *[]byte) error {
	if f.num != num {
		return nil
	}

	if err := f.mustBe(protowire.BytesType); err != nil {
		return err
	}

	*dst = append([]byte(nil), f.bytes...)

	return nil
}

func (f wireField) float32At(
	num protowire.Number,
	dst *float32,
	present *bool,
) error {
	if f.num != num {
		return nil
	}

	if err := f.mustBe(protowire.Fixed32Type); err != nil {
		return err
	}

	*dst = math.Float32frombits(f.fixed32)
	*present = true

	return nil
}

func (f wireField) stateAt(
	num protowire.Number,
	dst *RadioState,
	present *bool,
) error {
	if f.num != num {
		return nil
	}

	if err := f.mustBe(protowire.VarintType); err != nil {
		return err
	}

	if f.varint > math.MaxUint32 {
		return fmt.Errorf("state %d out of range", f.varint)
	}

	*dst = RadioState(f.varint)
	*present = true

	return nil
}

func (f wireField) infoAt(num protowire.Number, dst **RFInfo) error {
	if f.num != num {
		return nil
	}

	info := &RFInfo{}
	err := f.embedded(func(g wireField) error {
		if err := g.stringAt(1, &info.Band); err != nil {
			return err
		}

		if g.num == 2 {
			if err := g.mustBe(protowire.VarintType); err != nil {
				return err
			}

			info.Channel = int32(protowire.DecodeZigZag(g.varint))
		}

		return nil
	})
	if err != nil {
		return err
	}

	*dst = info

	return nil
}
